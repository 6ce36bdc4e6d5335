package goodday

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/hyperengineering/goodday/internal/gdapi"
	"github.com/hyperengineering/goodday/internal/observe"
	"github.com/hyperengineering/goodday/internal/search"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Searcher runs semantic task searches against the search proxy.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Client is the main interface for reading and creating Goodday data.
// Name-based lookups resolve through a Directory backed by the local cache.
type Client struct {
	api      gdapi.Client
	searcher Searcher
	dir      *Directory
	store    *Store
	config   Config
	logger   *zap.Logger
	metrics  *observe.Metrics

	mu          sync.Mutex
	closed      bool
	stopRefresh func()
}

// Option customizes a Client.
type Option func(*Client)

// WithAPI replaces the Goodday API client.
func WithAPI(api gdapi.Client) Option {
	return func(c *Client) { c.api = api }
}

// WithSearcher replaces the search proxy client.
func WithSearcher(s Searcher) Option {
	return func(c *Client) { c.searcher = s }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// Metrics is the set of instruments a Client records to.
type Metrics = observe.Metrics

// New creates a new goodday client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:  cfg,
		logger:  zap.NewNop(),
		metrics: observe.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if c.api == nil {
		c.api = gdapi.NewHTTPClient(cfg.APIBase, cfg.APIToken, cfg.UserAgent).
			WithHTTPClient(httpClient).
			WithLogger(c.logger.Named("api")).
			WithObserver(c.metrics.ObserveAPI)
	}
	if c.searcher == nil {
		c.searcher = search.NewClient(cfg.SearchURL, cfg.SearchToken, cfg.UserAgent).
			WithHTTPClient(httpClient).
			WithLogger(c.logger.Named("search"))
	}

	if cfg.CacheEnabled() {
		store, err := NewStore(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
		c.store = store
	}
	c.dir = NewDirectory(c.api, c.store, cfg.CacheTTL, c.logger.Named("directory"), c.metrics)

	if cfg.RefreshSchedule != "" && c.store != nil {
		stop, err := c.dir.Schedule(cfg.RefreshSchedule)
		if err != nil {
			_ = c.store.Close()
			return nil, fmt.Errorf("client: %w", err)
		}
		c.stopRefresh = stop
	}

	c.logger.Debug("client ready",
		zap.String("api_base", cfg.APIBase),
		zap.String("api_token", redact(cfg.APIToken)),
		zap.String("cache", cfg.CachePath),
		zap.Duration("cache_ttl", cfg.CacheTTL))

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Projects lists every project, archived ones included.
func (c *Client) Projects(ctx context.Context, rootOnly bool) ([]Project, error) {
	reportStatus(ctx, "Fetching Goodday projects...", false)

	projects, err := c.api.ListProjects(ctx, gdapi.ProjectListOptions{Archived: true, RootOnly: rootOnly})
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, "Successfully retrieved projects", true)
	return projects, nil
}

// ProjectTasks returns the tasks of the project named name, subfolders included.
func (c *Client) ProjectTasks(ctx context.Context, name string) (*ProjectTasks, error) {
	if err := requireArg("project_name", name); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Finding project '%s'...", name), false)

	project, _, err := c.resolveProject(ctx, name)
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Fetching tasks for project '%s' (ID: %s)...", project.Name, project.ID), false)
	tasks, err := c.api.ListProjectTasks(ctx, project.ID, gdapi.TaskListOptions{Subfolders: true})
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Successfully retrieved project tasks for '%s'", project.Name), true)
	return &ProjectTasks{Project: project, Tasks: tasks}, nil
}

// SprintTasks returns every task of a sprint, closed ones included.
func (c *Client) SprintTasks(ctx context.Context, projectName, sprintName string) (*SprintTasks, error) {
	project, sprint, err := c.resolveSprint(ctx, projectName, sprintName)
	if err != nil {
		return nil, err
	}

	tasks, err := c.api.ListProjectTasks(ctx, sprint.ID, gdapi.TaskListOptions{Closed: true, Subfolders: true})
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Successfully retrieved %d tasks from sprint '%s'", len(tasks), sprint.Name), true)
	return &SprintTasks{Project: project, Sprint: sprint, Tasks: tasks}, nil
}

// SprintSummary returns the tasks of a sprint with status and assignee tallies.
func (c *Client) SprintSummary(ctx context.Context, projectName, sprintName string) (*SprintSummary, error) {
	project, sprint, err := c.resolveSprint(ctx, projectName, sprintName)
	if err != nil {
		return nil, err
	}

	var (
		tasks []Task
		users UserNames
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = c.api.ListProjectTasks(gctx, sprint.ID, gdapi.TaskListOptions{Closed: true, Subfolders: true})
		return err
	})
	g.Go(func() error {
		users = c.dir.UserNames(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statuses := make(map[string]int)
	assignees := make(map[string]int)
	for _, t := range tasks {
		statuses[t.Status.NameOr("No Status")]++
		if t.AssignedToUserID == "" {
			assignees["Unassigned"]++
		} else {
			assignees[users.Display(t.AssignedToUserID)]++
		}
	}

	reportStatus(ctx, fmt.Sprintf("Successfully summarized %d tasks from sprint '%s'", len(tasks), sprint.Name), true)
	return &SprintSummary{
		Project:        project,
		Sprint:         sprint,
		Tasks:          tasks,
		Users:          users,
		StatusCounts:   sortedCounts(statuses),
		AssigneeCounts: sortedCounts(assignees),
	}, nil
}

// UserTasks returns the tasks assigned to the user matching name or email,
// closed ones included.
func (c *Client) UserTasks(ctx context.Context, user string) (*UserTasks, error) {
	if err := requireArg("user", user); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Finding user '%s'...", user), false)

	users, err := c.dir.Users(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := findUser(users, user)
	if !ok {
		return nil, &NotFoundError{Kind: "user", Query: user, Available: userNames(users)}
	}

	reportStatus(ctx, fmt.Sprintf("Fetching tasks assigned to '%s' (ID: %s)...", u.Name, u.ID), false)
	tasks, err := c.api.ListUserTasks(ctx, u.ID, gdapi.TaskListOptions{Closed: true})
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Successfully retrieved tasks for '%s'", u.Name), true)
	return &UserTasks{User: u, Tasks: tasks}, nil
}

// TaskMessages returns the message thread of the task with the given short
// id in the named project.
func (c *Client) TaskMessages(ctx context.Context, shortID, projectName string) (*TaskMessages, error) {
	project, task, err := c.resolveTask(ctx, shortID, projectName)
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Found task '%s' in project '%s', fetching messages...", task.Name, project.Name), false)

	var (
		messages []Message
		users    UserNames
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = c.api.ListTaskMessages(gctx, task.ID)
		return err
	})
	g.Go(func() error {
		users = c.dir.UserNames(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Successfully retrieved %d messages for task '%s'", len(messages), task.ShortID), true)
	return &TaskMessages{Project: project, Task: task, Messages: messages, Users: users}, nil
}

// TaskDetails returns the full record of the task with the given short id in
// the named project.
func (c *Client) TaskDetails(ctx context.Context, shortID, projectName string) (*TaskDetails, error) {
	project, task, err := c.resolveTask(ctx, shortID, projectName)
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Found task in project '%s', fetching detailed information...", project.Name), false)

	var (
		detail *TaskDetail
		users  UserNames
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = c.api.GetTask(gctx, task.ID)
		return err
	})
	g.Go(func() error {
		users = c.dir.UserNames(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Successfully retrieved details for task '%s'", task.ShortID), true)
	return &TaskDetails{Project: project, Task: *detail, Users: users}, nil
}

// SearchTasks runs a semantic search and merges hits that share a task id.
func (c *Client) SearchTasks(ctx context.Context, query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	reportStatus(ctx, fmt.Sprintf("Searching for tasks with query: '%s'...", query), false)

	results, err := c.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	hits := search.Merge(results)

	reportStatus(ctx, fmt.Sprintf("Found %d unique tasks matching '%s'", len(hits), query), true)
	return hits, nil
}

// Users lists every user of the organization.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	reportStatus(ctx, "Fetching Goodday users...", false)
	users, err := c.dir.Users(ctx)
	if err != nil {
		return nil, err
	}
	reportStatus(ctx, "Successfully retrieved users", true)
	return users, nil
}

// User returns a user by id.
func (c *Client) User(ctx context.Context, id string) (*User, error) {
	if err := requireArg("user_id", id); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Fetching user '%s'...", id), false)
	return c.api.GetUser(ctx, id)
}

// Project returns a project by id.
func (c *Client) Project(ctx context.Context, id string) (*Project, error) {
	if err := requireArg("project_id", id); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Fetching project '%s'...", id), false)
	return c.api.GetProject(ctx, id)
}

// Task returns a task by id.
func (c *Client) Task(ctx context.Context, id string) (*TaskDetail, error) {
	if err := requireArg("task_id", id); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Fetching task '%s'...", id), false)
	return c.api.GetTask(ctx, id)
}

// CreateProject creates a project. The cached directory is invalidated so
// the new project resolves by name right away.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if err := requireArg("name", req.Name); err != nil {
		return nil, err
	}
	if err := requireArg("created_by_user_id", req.CreatedByUserID); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Creating project '%s'...", req.Name), false)

	project, err := c.api.CreateProject(ctx, &req)
	if err != nil {
		return nil, err
	}
	c.invalidate()

	reportStatus(ctx, fmt.Sprintf("Successfully created project '%s'", req.Name), true)
	return project, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if err := requireArg("project_id", req.ProjectID); err != nil {
		return nil, err
	}
	if err := requireArg("title", req.Title); err != nil {
		return nil, err
	}
	if err := requireArg("from_user_id", req.FromUserID); err != nil {
		return nil, err
	}
	reportStatus(ctx, fmt.Sprintf("Creating task '%s'...", req.Title), false)

	task, err := c.api.CreateTask(ctx, &req)
	if err != nil {
		return nil, err
	}

	reportStatus(ctx, fmt.Sprintf("Successfully created task '%s'", req.Title), true)
	return task, nil
}

// Refresh re-fetches the cached project and user lists.
func (c *Client) Refresh(ctx context.Context) error {
	reportStatus(ctx, "Refreshing project and user directory...", false)
	if err := c.dir.Refresh(ctx); err != nil {
		return err
	}
	reportStatus(ctx, "Directory refreshed", true)
	return nil
}

// Stats returns local cache statistics.
func (c *Client) Stats() (*CacheStats, error) {
	if c.store == nil {
		return &CacheStats{Enabled: false, TTL: c.config.CacheTTL}, nil
	}
	stats, err := c.store.Stats()
	if err != nil {
		return nil, err
	}
	stats.TTL = c.config.CacheTTL
	return stats, nil
}

// Close stops the scheduled refresh and closes the cache.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.stopRefresh != nil {
		c.stopRefresh()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

func (c *Client) resolveProject(ctx context.Context, name string) (Project, []Project, error) {
	projects, err := c.dir.Projects(ctx)
	if err != nil {
		return Project{}, nil, err
	}
	project, ok := findProject(projects, name)
	if !ok {
		return Project{}, projects, &NotFoundError{Kind: "project", Query: name, Available: projectNames(projects)}
	}
	return project, projects, nil
}

func (c *Client) resolveSprint(ctx context.Context, projectName, sprintName string) (Project, Project, error) {
	if err := requireArg("project_name", projectName); err != nil {
		return Project{}, Project{}, err
	}
	if err := requireArg("sprint_name", sprintName); err != nil {
		return Project{}, Project{}, err
	}
	reportStatus(ctx, fmt.Sprintf("Finding project '%s' and sprint '%s'...", projectName, sprintName), false)

	project, projects, err := c.resolveProject(ctx, projectName)
	if err != nil {
		return Project{}, Project{}, err
	}
	sprint, available, ok := findSprint(projects, project, sprintName)
	if !ok {
		return Project{}, Project{}, &NotFoundError{Kind: "sprint", Query: sprintName, Scope: project.Name, Available: available}
	}

	reportStatus(ctx, fmt.Sprintf("Found sprint '%s', fetching tasks...", sprint.Name), false)
	return project, sprint, nil
}

func (c *Client) resolveTask(ctx context.Context, shortID, projectName string) (Project, Task, error) {
	if err := requireArg("task_short_id", shortID); err != nil {
		return Project{}, Task{}, err
	}
	if err := requireArg("project_name", projectName); err != nil {
		return Project{}, Task{}, err
	}
	shortID = strings.ToUpper(strings.TrimSpace(shortID))
	reportStatus(ctx, fmt.Sprintf("Finding project '%s'...", projectName), false)

	project, _, err := c.resolveProject(ctx, projectName)
	if err != nil {
		return Project{}, Task{}, err
	}

	reportStatus(ctx, fmt.Sprintf("Searching for task '%s' in project '%s'...", shortID, project.Name), false)
	tasks, err := c.api.ListProjectTasks(ctx, project.ID, gdapi.TaskListOptions{Subfolders: true})
	if err != nil {
		return Project{}, Task{}, err
	}
	task, ok := findTaskByShortID(tasks, shortID)
	if !ok {
		return Project{}, Task{}, &NotFoundError{Kind: "task", Query: shortID, Scope: project.Name}
	}
	return project, task, nil
}

func (c *Client) invalidate() {
	if c.store == nil {
		return
	}
	if err := c.store.Invalidate(); err != nil {
		c.logger.Warn("invalidate directory cache", zap.Error(err))
	}
}

func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return nil
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for label, n := range m {
		counts = append(counts, Count{Label: label, N: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Label < counts[j].Label
	})
	return counts
}
