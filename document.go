package goodday

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"
)

// documentFetchLimit caps concurrent document content fetches.
const documentFetchLimit = 4

// ProjectDocuments lists the documents of the named project. Only PROJECT and
// FOLDER items are considered, archived ones included. A non-empty nameFilter
// keeps documents whose name contains it, case-insensitively. With
// includeContent each document's content is fetched as readable text; a
// failed fetch is recorded on the entry and does not fail the call.
func (c *Client) ProjectDocuments(ctx context.Context, projectName, nameFilter string, includeContent bool) (*ProjectDocuments, error) {
	if err := requireArg("project_name", projectName); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Finding project '%s'...", projectName), false)

	projects, err := c.dir.Projects(ctx)
	if err != nil {
		return nil, err
	}
	project, candidates, ok := findDocumentProject(projects, projectName)
	if !ok {
		return nil, &NotFoundError{Kind: "project", Query: projectName, Available: projectNames(candidates)}
	}

	reportStatus(ctx, fmt.Sprintf("Fetching documents for project '%s' (ID: %s)...", project.Name, project.ID), false)
	docs, err := c.api.ListProjectDocuments(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	filter := normalize(nameFilter)
	entries := make([]DocumentEntry, 0, len(docs))
	for _, d := range docs {
		if filter != "" && !strings.Contains(strings.ToLower(d.Name), filter) {
			continue
		}
		entries = append(entries, DocumentEntry{Document: d})
	}

	if includeContent && len(entries) > 0 {
		reportStatus(ctx, fmt.Sprintf("Fetching content of %d documents...", len(entries)), false)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(documentFetchLimit)
		for i := range entries {
			e := &entries[i]
			g.Go(func() error {
				doc, err := c.api.GetDocument(gctx, e.ID)
				if err != nil {
					e.ContentErr = err
					return nil
				}
				_, e.Content = readableText(doc.ID, doc.Content.String())
				return nil
			})
		}
		_ = g.Wait()
	}

	reportStatus(ctx, fmt.Sprintf("Found %d documents in project '%s'", len(entries), project.Name), true)
	return &ProjectDocuments{Project: project, Filter: strings.TrimSpace(nameFilter), Documents: entries}, nil
}

// DocumentContent fetches a document and converts HTML content to text.
func (c *Client) DocumentContent(ctx context.Context, id string) (*DocumentText, error) {
	if err := requireArg("document_id", id); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Fetching document '%s'...", id), false)

	doc, err := c.api.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	title, text := readableText(doc.ID, doc.Content.String())

	name := doc.Name
	if name == "" {
		name = id
	}
	reportStatus(ctx, fmt.Sprintf("Successfully retrieved document '%s'", name), true)
	return &DocumentText{ID: doc.ID, Name: doc.Name, Title: title, Text: text}, nil
}

var (
	reHTMLTag  = regexp.MustCompile(`(?i)<(?:p|div|br|h[1-6]|ul|ol|li|table|span|a|b|i|strong|em|html|body)\b[^>]*>`)
	reScript   = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle    = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reBlockEnd = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|li|tr)>|<br\s*/?>`)
	reTags     = regexp.MustCompile(`<[^>]+>`)
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// readableText returns the title and plain text of document content.
// Content that is not HTML is returned unchanged.
func readableText(id, content string) (title, text string) {
	if !reHTMLTag.MatchString(content) {
		return "", strings.TrimSpace(content)
	}

	pageURL, _ := url.Parse("https://www.goodday.work/document/" + url.PathEscape(id))
	article, err := readability.FromReader(strings.NewReader(content), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		return article.Title, stripHTML(article.Content)
	}
	return "", stripHTML(content)
}

func stripHTML(s string) string {
	s = reScript.ReplaceAllString(s, "")
	s = reStyle.ReplaceAllString(s, "")
	s = reBlockEnd.ReplaceAllString(s, "\n")
	s = reTags.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = reNewlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
