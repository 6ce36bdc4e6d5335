package goodday

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadableText_PlainTextUnchanged(t *testing.T) {
	title, text := readableText("d1", "  Use 2 < 3 and a -> b.\n")
	assert.Empty(t, title)
	assert.Equal(t, "Use 2 < 3 and a -> b.", text)
}

func TestStripHTML(t *testing.T) {
	in := `<style>p{color:red}</style><h2>Setup</h2><p>Install&nbsp;the   <em>CLI</em>.</p><script>alert(1)</script><ul><li>one</li><li>two</li></ul>`
	assert.Equal(t, "Setup\nInstall the CLI.\none\ntwo", stripHTML(in))
}

func TestReadableText_HTML(t *testing.T) {
	_, text := readableText("d1", `<div><p>Rollout plan for the cache &amp; the scheduler.</p></div>`)
	assert.Contains(t, text, "Rollout plan for the cache & the scheduler.")
	assert.NotContains(t, text, "<p>")
}
