package gdapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Scalar holds a JSON scalar of any type in its textual form.
// Goodday is loose about numeric vs string fields (priority, health, estimates),
// so these are kept as text and only rendered. The zero value means absent or null.
type Scalar string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	*s = Scalar(b)
	return nil
}

// MarshalJSON writes the scalar back as a JSON string, or null when empty.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s Scalar) String() string { return string(s) }

// Or returns the scalar text, or def when the scalar is empty.
func (s Scalar) Or(def string) string {
	if strings.TrimSpace(string(s)) == "" {
		return def
	}
	return string(s)
}

// Ref is a nested {id, name} object such as a status, role or owner.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON decodes an {id, name} object. Any other value (a bare
// string, number or null) yields an empty Ref, which renders as missing.
func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*r = Ref{}
		return nil
	}
	var obj struct {
		ID   Scalar `json:"id"`
		Name Scalar `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = Ref{ID: obj.ID.String(), Name: obj.Name.String()}
	return nil
}

// NameOr returns the ref's name, or def when the ref or its name is missing.
func (r *Ref) NameOr(def string) string {
	if r == nil || r.Name == "" {
		return def
	}
	return r.Name
}

// System types of Goodday projects.
const (
	SystemTypeProject = "PROJECT"
	SystemTypeFolder  = "FOLDER"
	SystemTypeTag     = "TAG"
)

// Project from GET /projects and GET /project/{id}.
// Sprints are modelled by Goodday as PROJECT items nested under their parent.
type Project struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Health          Scalar `json:"health"`
	Status          *Ref   `json:"status"`
	StartDate       Scalar `json:"startDate"`
	EndDate         Scalar `json:"endDate"`
	Deadline        Scalar `json:"deadline"`
	Progress        Scalar `json:"progress"`
	Owner           *Ref   `json:"owner"`
	SystemType      string `json:"systemType"`
	ParentProjectID string `json:"parentProjectId"`
	Color           Scalar `json:"color"`
}

// Task from GET /project/{id}/tasks and GET /user/{id}/assigned-tasks.
type Task struct {
	ID               string `json:"id"`
	ShortID          string `json:"shortId"`
	Name             string `json:"name"`
	Status           *Ref   `json:"status"`
	Project          *Ref   `json:"project"`
	ProjectID        string `json:"projectId"`
	AssignedToUserID string `json:"assignedToUserId"`
	Priority         Scalar `json:"priority"`
	StartDate        Scalar `json:"startDate"`
	EndDate          Scalar `json:"endDate"`
	Message          Scalar `json:"message"`
}

// Subtask is an entry of TaskDetail.Subtasks. Goodday returns either full
// objects or bare ids depending on the endpoint version.
type Subtask struct {
	ID      string
	ShortID string
	Name    string
}

// UnmarshalJSON accepts either an object or a scalar id.
func (s *Subtask) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID      string `json:"id"`
			ShortID string `json:"shortId"`
			Name    string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*s = Subtask{ID: obj.ID, ShortID: obj.ShortID, Name: obj.Name}
		return nil
	}
	var id Scalar
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	*s = Subtask{ID: id.String()}
	return nil
}

// TaskDetail from GET /task/{id}.
type TaskDetail struct {
	Task
	TaskType             *Ref            `json:"taskType"`
	SystemStatus         Scalar          `json:"systemStatus"`
	SystemType           Scalar          `json:"systemType"`
	ActionRequiredUserID string          `json:"actionRequiredUserId"`
	CreatedByUserID      string          `json:"createdByUserId"`
	Deadline             Scalar          `json:"deadline"`
	ScheduleDate         Scalar          `json:"scheduleDate"`
	ScheduleStatus       Scalar          `json:"scheduleStatus"`
	Estimate             Scalar          `json:"estimate"`
	ReportedTime         Scalar          `json:"reportedTime"`
	MomentCreated        Scalar          `json:"momentCreated"`
	MomentClosed         Scalar          `json:"momentClosed"`
	RecentActivityMoment Scalar          `json:"recentActivityMoment"`
	ParentTaskID         Scalar          `json:"parentTaskId"`
	Users                []string        `json:"users"`
	Subtasks             []Subtask       `json:"subtasks"`
	CustomFieldsData     json.RawMessage `json:"customFieldsData"`
}

// User from GET /users and GET /user/{id}.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   *Ref   `json:"role"`
	Status Scalar `json:"status"`
}

// Message from GET /task/{id}/messages.
type Message struct {
	ID           string `json:"id"`
	DateCreated  Scalar `json:"dateCreated"`
	FromUserID   string `json:"fromUserId"`
	ToUserID     string `json:"toUserId"`
	Message      Scalar `json:"message"`
	TaskStatusID Scalar `json:"taskStatusId"`
	TimeReportID Scalar `json:"timeReportId"`
	EditByUserID string `json:"editByUserId"`
	EditDate     Scalar `json:"editDate"`
}

// Document from GET /project/{id}/documents.
type Document struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProjectID       string `json:"projectId"`
	CreatedByUserID string `json:"createdByUserId"`
	MomentCreated   Scalar `json:"momentCreated"`
	MomentUpdated   Scalar `json:"momentUpdated"`
}

// DocumentContent from GET /document/{id}. Content may be HTML.
type DocumentContent struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content Scalar `json:"content"`
}

// ProjectListOptions controls GET /projects.
type ProjectListOptions struct {
	Archived bool
	RootOnly bool
}

// TaskListOptions controls task list endpoints.
type TaskListOptions struct {
	Closed     bool
	Subfolders bool
}

// CreateProjectRequest for POST /projects/new-project.
type CreateProjectRequest struct {
	Name              string `json:"name"`
	CreatedByUserID   string `json:"createdByUserId"`
	ProjectTemplateID string `json:"projectTemplateId,omitempty"`
	ParentProjectID   string `json:"parentProjectId,omitempty"`
	Color             int    `json:"color,omitempty"`
	Deadline          string `json:"deadline,omitempty"`
	StartDate         string `json:"startDate,omitempty"`
	EndDate           string `json:"endDate,omitempty"`
}

// CreateTaskRequest for POST /tasks.
type CreateTaskRequest struct {
	ProjectID    string `json:"projectId"`
	Title        string `json:"title"`
	FromUserID   string `json:"fromUserId"`
	ToUserID     string `json:"toUserId,omitempty"`
	Message      string `json:"message,omitempty"`
	ParentTaskID string `json:"parentTaskId,omitempty"`
	TaskTypeID   string `json:"taskTypeId,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Deadline     string `json:"deadline,omitempty"`
	Estimate     int    `json:"estimate,omitempty"`
	Priority     int    `json:"priority,omitempty"`
}
