package goodday_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/gdtest"
	"go.uber.org/goleak"
)

func newTestClient(t *testing.T, srv *gdtest.Server, mutate ...func(*goodday.Config)) *goodday.Client {
	t.Helper()

	cfg := goodday.Config{
		APIToken:    gdtest.Token,
		APIBase:     srv.URL,
		SearchURL:   srv.SearchURL(),
		SearchToken: gdtest.SearchToken,
		CachePath:   filepath.Join(t.TempDir(), "cache.db"),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	client, err := goodday.New(cfg)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// statusRecorder collects the progress lines reported through the context.
type statusRecorder struct {
	mu    sync.Mutex
	lines []string
	done  []bool
}

func (r *statusRecorder) ctx() context.Context {
	return goodday.WithStatus(context.Background(), func(_ context.Context, msg string, done bool) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.lines = append(r.lines, msg)
		r.done = append(r.done, done)
	})
}

func TestNew_MissingToken(t *testing.T) {
	_, err := goodday.New(goodday.Config{CachePath: "off"})

	var ve *goodday.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("New() returned %v, want *ValidationError", err)
	}
	if ve.Field != "APIToken" {
		t.Errorf("ValidationError.Field = %q, want %q", ve.Field, "APIToken")
	}
}

func TestNew_StoreInitError_WrapsWithClientPrefix(t *testing.T) {
	dir := t.TempDir()
	// A directory where the database file should be makes sqlite fail.
	_, err := goodday.New(goodday.Config{APIToken: "x", CachePath: dir})
	if err == nil {
		t.Fatal("New() returned nil error for unusable cache path")
	}
	if !strings.HasPrefix(err.Error(), "client:") {
		t.Errorf("error = %q, want client: prefix", err)
	}
}

func TestNew_RefreshScheduleStopsOnClose(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, opt)

	client, err := goodday.New(goodday.Config{
		APIToken:        "x",
		CachePath:       filepath.Join(t.TempDir(), "cache.db"),
		RefreshSchedule: "@every 1h",
	})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close() returned error: %v", err)
	}
}

func TestClient_Projects_ForcesArchived(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	projects, err := client.Projects(context.Background(), true)
	if err != nil {
		t.Fatalf("Projects() error: %v", err)
	}
	if len(projects) != 6 {
		t.Errorf("len(projects) = %d, want 6", len(projects))
	}
	if got := srv.Query("GET /projects"); got != "archived=true&rootOnly=true" {
		t.Errorf("query = %q", got)
	}
}

func TestClient_ProjectTasks(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)
	rec := &statusRecorder{}

	res, err := client.ProjectTasks(rec.ctx(), "astra")
	if err != nil {
		t.Fatalf("ProjectTasks() error: %v", err)
	}
	if res.Project.ID != "p-astra" {
		t.Errorf("Project.ID = %q, want p-astra", res.Project.ID)
	}
	if len(res.Tasks) != 2 {
		t.Errorf("len(Tasks) = %d, want 2", len(res.Tasks))
	}
	if got := srv.Query("GET /project/p-astra/tasks"); got != "subfolders=true" {
		t.Errorf("query = %q, want subfolders=true", got)
	}

	want := []string{
		"Finding project 'astra'...",
		"Fetching tasks for project 'ASTRA' (ID: p-astra)...",
		"Successfully retrieved project tasks for 'ASTRA'",
	}
	if diff := cmp.Diff(want, rec.lines); diff != "" {
		t.Errorf("status lines mismatch (-want +got):\n%s", diff)
	}
	if !rec.done[len(rec.done)-1] {
		t.Error("last status line should be final")
	}
}

func TestClient_ProjectTasks_NonObjectNestedFields(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.ProjectTasks(context.Background(), "Orion")
	if err != nil {
		t.Fatalf("ProjectTasks() error: %v", err)
	}
	if res.Project.ID != "p-orion" {
		t.Errorf("Project.ID = %q, want p-orion", res.Project.ID)
	}
	if got := res.Project.Status.NameOr("N/A"); got != "N/A" {
		t.Errorf("project status = %q, want N/A", got)
	}
	if len(res.Tasks) != 1 {
		t.Fatalf("len(Tasks) = %d, want 1", len(res.Tasks))
	}
	if got := res.Tasks[0].Status.NameOr("N/A"); got != "N/A" {
		t.Errorf("task status = %q, want N/A", got)
	}
	if got := res.Tasks[0].Project.NameOr("N/A"); got != "N/A" {
		t.Errorf("task project = %q, want N/A", got)
	}
}

func TestClient_ProjectTasks_NotFound(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	_, err := client.ProjectTasks(context.Background(), "Zeus")

	var nf *goodday.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	want := "Project 'Zeus' not found. Available projects: ASTRA, Sprint 232, Sprint 233, Knowledge Base, Backend tag, Orion"
	if err.Error() != want {
		t.Errorf("error = %q\nwant    %q", err.Error(), want)
	}
}

func TestClient_ProjectTasks_MissingArgument(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	_, err := client.ProjectTasks(context.Background(), "  ")
	if !errors.Is(err, goodday.ErrMissingArgument) {
		t.Errorf("error = %v, want ErrMissingArgument", err)
	}
}

func TestClient_ProjectTasks_TransportError(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)
	srv.FailNext("GET /project/p-astra/tasks", 1)

	_, err := client.ProjectTasks(context.Background(), "ASTRA")

	var apiErr *goodday.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Errorf("error = %q, want response body", err)
	}
}

func TestClient_DirectoryIsCached(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.ProjectTasks(ctx, "ASTRA"); err != nil {
			t.Fatalf("ProjectTasks() error: %v", err)
		}
	}
	if got := srv.Hits("GET /projects"); got != 1 {
		t.Errorf("GET /projects hits = %d, want 1", got)
	}

	if err := client.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if got := srv.Hits("GET /projects"); got != 2 {
		t.Errorf("GET /projects hits after refresh = %d, want 2", got)
	}
	if got := srv.Hits("GET /users"); got != 1 {
		t.Errorf("GET /users hits after refresh = %d, want 1", got)
	}
}

func TestClient_CacheOff_PassesThrough(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv, func(c *goodday.Config) { c.CachePath = "off" })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.ProjectTasks(ctx, "ASTRA"); err != nil {
			t.Fatalf("ProjectTasks() error: %v", err)
		}
	}
	if got := srv.Hits("GET /projects"); got != 2 {
		t.Errorf("GET /projects hits = %d, want 2", got)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Enabled {
		t.Error("Stats().Enabled = true with cache off")
	}
	if _, err := client.History(5); !errors.Is(err, goodday.ErrCacheDisabled) {
		t.Errorf("History() error = %v, want ErrCacheDisabled", err)
	}
}

func TestClient_SprintTasks(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.SprintTasks(context.Background(), "Astra", "233")
	if err != nil {
		t.Fatalf("SprintTasks() error: %v", err)
	}
	if res.Sprint.ID != "s-233" || res.Project.ID != "p-astra" {
		t.Errorf("resolved %s/%s, want p-astra/s-233", res.Project.ID, res.Sprint.ID)
	}
	if len(res.Tasks) != 3 {
		t.Errorf("len(Tasks) = %d, want 3", len(res.Tasks))
	}
	if got := srv.Query("GET /project/s-233/tasks"); got != "closed=true&subfolders=true" {
		t.Errorf("query = %q", got)
	}
}

func TestClient_SprintTasks_SprintNotFound(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	_, err := client.SprintTasks(context.Background(), "ASTRA", "Sprint 999")

	want := "Sprint 'Sprint 999' not found in project 'ASTRA'. Available sprints: Sprint 232, Sprint 233"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestClient_SprintSummary(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.SprintSummary(context.Background(), "ASTRA", "sprint 233")
	if err != nil {
		t.Fatalf("SprintSummary() error: %v", err)
	}

	wantStatus := []goodday.Count{{Label: "Done", N: 2}, {Label: "In Progress", N: 1}}
	if diff := cmp.Diff(wantStatus, res.StatusCounts); diff != "" {
		t.Errorf("StatusCounts mismatch (-want +got):\n%s", diff)
	}
	wantAssignees := []goodday.Count{{Label: "Jane Doe (u1)", N: 2}, {Label: "Unassigned", N: 1}}
	if diff := cmp.Diff(wantAssignees, res.AssigneeCounts); diff != "" {
		t.Errorf("AssigneeCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_UserTasks(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.UserTasks(context.Background(), "JANE@example.com")
	if err != nil {
		t.Fatalf("UserTasks() error: %v", err)
	}
	if res.User.ID != "u1" {
		t.Errorf("User.ID = %q, want u1", res.User.ID)
	}
	if got := srv.Query("GET /user/u1/assigned-tasks"); got != "closed=true" {
		t.Errorf("query = %q, want closed=true", got)
	}

	_, err = client.UserTasks(context.Background(), "nobody")
	want := "User 'nobody' not found. Available users: Jane Doe, Roney Dsilva"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestClient_TaskMessages(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.TaskMessages(context.Background(), "rad-434", "astra")
	if err != nil {
		t.Fatalf("TaskMessages() error: %v", err)
	}
	if res.Task.ID != "t-434" {
		t.Errorf("Task.ID = %q, want t-434", res.Task.ID)
	}
	if len(res.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want 2", len(res.Messages))
	}
	if got := res.Users.Display("u2"); got != "Roney Dsilva (u2)" {
		t.Errorf("Display(u2) = %q", got)
	}
}

func TestClient_TaskMessages_TaskNotFound(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	_, err := client.TaskMessages(context.Background(), "rad-999", "astra")

	want := "Task with short ID 'RAD-999' not found in project 'ASTRA'. Please verify the task ID and project name are correct."
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestClient_TaskDetails(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.TaskDetails(context.Background(), "RAD-434", "ASTRA")
	if err != nil {
		t.Fatalf("TaskDetails() error: %v", err)
	}
	if res.Task.TaskType.NameOr("N/A") != "Bug" {
		t.Errorf("TaskType = %q, want Bug", res.Task.TaskType.NameOr("N/A"))
	}
	if len(res.Task.Subtasks) != 2 || res.Task.Subtasks[0].ID != "t-500" {
		t.Errorf("Subtasks = %+v", res.Task.Subtasks)
	}
	if res.Users.Display("u9") != "u9" {
		t.Errorf("unknown user should render as bare id")
	}
}

func TestClient_SearchTasks(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	hits, err := client.SearchTasks(context.Background(), "  login  ")
	if err != nil {
		t.Fatalf("SearchTasks() error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if diff := cmp.Diff([]string{"Cookie is dropped"}, hits[0].Additional); diff != "" {
		t.Errorf("Additional mismatch (-want +got):\n%s", diff)
	}
	if got := srv.Query("GET /search"); got != "query=login" {
		t.Errorf("query = %q, want query=login", got)
	}
}

func TestClient_SearchTasks_Errors(t *testing.T) {
	srv := gdtest.NewServer(t)

	client := newTestClient(t, srv)
	if _, err := client.SearchTasks(context.Background(), " "); !errors.Is(err, goodday.ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}

	noToken := newTestClient(t, srv, func(c *goodday.Config) { c.SearchToken = "" })
	if _, err := noToken.SearchTasks(context.Background(), "x"); !errors.Is(err, goodday.ErrMissingSearchToken) {
		t.Errorf("error = %v, want ErrMissingSearchToken", err)
	}
}

func TestClient_ProjectDocuments(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.ProjectDocuments(context.Background(), "astra", "DATABASE", true)
	if err != nil {
		t.Fatalf("ProjectDocuments() error: %v", err)
	}
	if len(res.Documents) != 1 {
		t.Fatalf("len(Documents) = %d, want 1", len(res.Documents))
	}
	doc := res.Documents[0]
	if doc.ContentErr != nil {
		t.Fatalf("ContentErr = %v", doc.ContentErr)
	}
	if !strings.Contains(doc.Content, "SQLite") || strings.Contains(doc.Content, "<b>") {
		t.Errorf("Content = %q, want readable text", doc.Content)
	}
}

func TestClient_ProjectDocuments_ContentErrorIsPerEntry(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	res, err := client.ProjectDocuments(context.Background(), "astra", "", true)
	if err != nil {
		t.Fatalf("ProjectDocuments() error: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("len(Documents) = %d, want 2", len(res.Documents))
	}
	// d2 has no fixture and answers 404.
	if res.Documents[1].ContentErr == nil {
		t.Error("expected ContentErr for d2")
	}
}

func TestClient_ProjectDocuments_IgnoresTags(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	_, err := client.ProjectDocuments(context.Background(), "backend", "", false)

	var nf *goodday.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	for _, name := range nf.Available {
		if name == "Backend tag" {
			t.Error("tags must not be listed as candidates")
		}
	}
}

func TestClient_DocumentContent(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	doc, err := client.DocumentContent(context.Background(), "d1")
	if err != nil {
		t.Fatalf("DocumentContent() error: %v", err)
	}
	if doc.Name != "Database design" {
		t.Errorf("Name = %q", doc.Name)
	}
	if !strings.Contains(doc.Text, "SQLite for the local cache & goose") {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestClient_CreateProject_InvalidatesDirectory(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)
	ctx := context.Background()

	if _, err := client.ProjectTasks(ctx, "ASTRA"); err != nil {
		t.Fatalf("ProjectTasks() error: %v", err)
	}

	project, err := client.CreateProject(ctx, goodday.CreateProjectRequest{Name: "Apollo", CreatedByUserID: "u1", Color: 3})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if project.ID != "p-new" {
		t.Errorf("ID = %q, want p-new", project.ID)
	}
	body := srv.Body("POST /projects/new-project")
	if body["name"] != "Apollo" || body["createdByUserId"] != "u1" {
		t.Errorf("request body = %v", body)
	}

	if _, err := client.ProjectTasks(ctx, "ASTRA"); err != nil {
		t.Fatalf("ProjectTasks() error: %v", err)
	}
	if got := srv.Hits("GET /projects"); got != 2 {
		t.Errorf("GET /projects hits = %d, want 2 after create", got)
	}
}

func TestClient_CreateTask(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)
	ctx := context.Background()

	_, err := client.CreateTask(ctx, goodday.CreateTaskRequest{ProjectID: "p-astra", FromUserID: "u1"})
	if !errors.Is(err, goodday.ErrMissingArgument) || !strings.Contains(err.Error(), "title") {
		t.Errorf("error = %v, want missing title", err)
	}

	task, err := client.CreateTask(ctx, goodday.CreateTaskRequest{ProjectID: "p-astra", Title: "New task", FromUserID: "u1", Priority: 5})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if task.ShortID != "RAD-900" {
		t.Errorf("ShortID = %q", task.ShortID)
	}
	if body := srv.Body("POST /tasks"); body["priority"] != float64(5) {
		t.Errorf("request body = %v", body)
	}
}

func TestClient_History(t *testing.T) {
	srv := gdtest.NewServer(t)
	client := newTestClient(t, srv)

	client.RecordCall("get_goodday_projects", nil, 15*time.Millisecond, false)
	client.RecordCall("get_goodday_smart_query", map[string]any{"query": "tasks for jane"}, 40*time.Millisecond, true)

	recs, err := client.History(10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(recs))
	}
	if recs[0].Tool != "get_goodday_smart_query" || !recs[0].IsError {
		t.Errorf("newest record = %+v", recs[0])
	}
	if recs[0].Arguments != `{"query":"tasks for jane"}` {
		t.Errorf("Arguments = %q", recs[0].Arguments)
	}
	if recs[1].Arguments != "{}" {
		t.Errorf("Arguments = %q, want {}", recs[1].Arguments)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.HistoryEntries != 2 || stats.TTL != 10*time.Minute {
		t.Errorf("Stats() = %+v", stats)
	}
}
