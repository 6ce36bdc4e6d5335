package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{
			query: "get tasks from sprint 233 in ASTRA project",
			want:  Intent{Kind: SprintTasks, Sprint: "233", Project: "astra"},
		},
		{
			query: "sprint 102 tasks from Phoenix",
			want:  Intent{Kind: SprintTasks, Sprint: "102", Project: "phoenix"},
		},
		{
			query: "get tasks in spring 122 in Astra project",
			want:  Intent{Kind: SprintTasks, Sprint: "122", Project: "astra"},
		},
		{
			query: "  Tasks assigned to Roney Dsilva ",
			want:  Intent{Kind: UserTasks, User: "roney dsilva"},
		},
		{
			query: "tasks for john.smith@example.com",
			want:  Intent{Kind: UserTasks, User: "john.smith@example.com"},
		},
		{
			query: "Roney Dsilva tasks",
			want:  Intent{Kind: UserTasks, User: "roney dsilva"},
		},
		{
			query: "get messages from RAD-434 in ASTRA project",
			want:  Intent{Kind: TaskMessages, TaskID: "RAD-434", Project: "astra"},
		},
		{
			query: "get all messages from TASK-456 in Astra",
			want:  Intent{Kind: TaskMessages, TaskID: "TASK-456", Project: "astra"},
		},
		{
			query: "get task RAD-434 in ASTRA project",
			want:  Intent{Kind: TaskDetails, TaskID: "RAD-434", Project: "astra"},
		},
		{
			query: "get details of rad-434 in astra",
			want:  Intent{Kind: TaskDetails, TaskID: "RAD-434", Project: "astra"},
		},
		{
			query: "search for Security tasks",
			want:  Intent{Kind: Search, Terms: "security"},
		},
		{
			query: "find tasks S3 upload",
			want:  Intent{Kind: Search, Terms: "s3 upload"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.query))
		})
	}
}

func TestParse_Clarify(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"tasks from sprint 233", "Please specify the project name. Example: 'get tasks from sprint 233 in ASTRA project'"},
		{"messages for ABC-123", "Please specify the project name. Example: 'get messages from ABC-123 in ASTRA project'"},
		{"task details for ABC-123", "Please specify the project name. Example: 'get task ABC-123 in ASTRA project'"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Parse(tt.query)
			assert.Equal(t, Clarify, got.Kind)
			assert.Equal(t, tt.want, got.Message)
		})
	}
}

func TestParse_Help(t *testing.T) {
	for _, q := range []string{"", "hello there", "what is the weather", "tasks"} {
		got := Parse(q)
		assert.Equal(t, Help, got.Kind, "query %q", q)
		assert.Equal(t, HelpText, got.Message)
	}
}

func TestParse_PriorityOrder(t *testing.T) {
	// sprint wins over the user shorthand even though both mention tasks
	assert.Equal(t, SprintTasks, Parse("sprint 5 tasks in apollo").Kind)
	// "assigned to" wins over search keywords
	assert.Equal(t, UserTasks, Parse("find tasks assigned to Ana").Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sprint_tasks", SprintTasks.String())
	assert.Equal(t, "help", Help.String())
}
