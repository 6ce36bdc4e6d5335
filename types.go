package goodday

import (
	"time"

	"github.com/hyperengineering/goodday/internal/gdapi"
	"github.com/hyperengineering/goodday/internal/search"
)

// Goodday API records.
type (
	Project              = gdapi.Project
	Task                 = gdapi.Task
	TaskDetail           = gdapi.TaskDetail
	Subtask              = gdapi.Subtask
	User                 = gdapi.User
	Message              = gdapi.Message
	Document             = gdapi.Document
	Ref                  = gdapi.Ref
	Scalar               = gdapi.Scalar
	CreateProjectRequest = gdapi.CreateProjectRequest
	CreateTaskRequest    = gdapi.CreateTaskRequest
)

// System types of Goodday projects.
const (
	SystemTypeProject = gdapi.SystemTypeProject
	SystemTypeFolder  = gdapi.SystemTypeFolder
	SystemTypeTag     = gdapi.SystemTypeTag
)

// SearchHit is a semantic search hit with duplicate chunks merged.
type SearchHit = search.Hit

// UserNames maps user ids to display names.
type UserNames map[string]string

// Display renders a user id as "Name (id)" when the name is known,
// the bare id otherwise, and "N/A" for an empty id.
func (u UserNames) Display(id string) string {
	if id == "" {
		return "N/A"
	}
	if name, ok := u[id]; ok && name != "" {
		return name + " (" + id + ")"
	}
	return id
}

// ProjectTasks is the result of ProjectTasks.
type ProjectTasks struct {
	Project Project
	Tasks   []Task
}

// SprintTasks is the result of SprintTasks.
type SprintTasks struct {
	Project Project
	Sprint  Project
	Tasks   []Task
}

// SprintSummary aggregates the tasks of one sprint.
type SprintSummary struct {
	Project Project
	Sprint  Project
	Tasks   []Task
	Users   UserNames

	// StatusCounts is ordered by descending count, then name.
	StatusCounts []Count
	// AssigneeCounts is ordered by descending count, then name.
	AssigneeCounts []Count
}

// Count is a labelled tally.
type Count struct {
	Label string
	N     int
}

// UserTasks is the result of UserTasks.
type UserTasks struct {
	User  User
	Tasks []Task
}

// TaskMessages is the result of TaskMessages.
type TaskMessages struct {
	Project  Project
	Task     Task
	Messages []Message
	Users    UserNames
}

// TaskDetails is the result of TaskDetails.
type TaskDetails struct {
	Project Project
	Task    TaskDetail
	Users   UserNames
}

// ProjectDocuments is the result of ProjectDocuments.
type ProjectDocuments struct {
	Project   Project
	Filter    string
	Documents []DocumentEntry
}

// DocumentEntry is a document, optionally with its content.
type DocumentEntry struct {
	Document
	// Content is the readable text when content was requested.
	Content string
	// ContentErr is set when fetching the content failed.
	ContentErr error
}

// DocumentText is a document converted to readable text.
type DocumentText struct {
	ID    string
	Name  string
	Title string
	Text  string
}

// CallRecord is one entry of the tool call history.
type CallRecord struct {
	ID        string
	Tool      string
	Arguments string
	Duration  time.Duration
	IsError   bool
	CreatedAt time.Time
}

// CacheStats describes the local directory cache.
type CacheStats struct {
	Enabled           bool
	Path              string
	TTL               time.Duration
	Projects          int
	Users             int
	ProjectsRefreshed time.Time
	UsersRefreshed    time.Time
	HistoryEntries    int
	SchemaVersion     string
}
