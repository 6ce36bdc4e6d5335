// Package mcp serves the goodday operations as MCP (Model Context Protocol)
// tools over stdio. Every tool returns Markdown text.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/observe"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const instructions = `Tools for the Goodday project management system. Look up projects, sprints, ` +
	`tasks, task messages, users and project documents by name, run semantic task searches, ` +
	`or ask get_goodday_smart_query a plain-language question such as ` +
	`"tasks from sprint 233 in ASTRA project".`

// Server wraps the MCP server with goodday tools.
type Server struct {
	client    *goodday.Client
	mcpServer *server.MCPServer
	logger    *zap.Logger
	metrics   *observe.Metrics
	tools     []ToolInfo
	byName    map[string]mcp.Tool
}

// toolAliases are the short tool names earlier Goodday MCP servers used,
// mapped to the tools they call.
var toolAliases = []struct{ alias, target string }{
	{"get_projects", "get_goodday_projects"},
	{"get_project", "get_goodday_project"},
	{"create_project", "create_goodday_project"},
	{"get_project_tasks", "get_goodday_project_tasks"},
	{"get_task", "get_goodday_task"},
	{"create_task", "create_goodday_task"},
	{"get_users", "get_goodday_users"},
	{"get_user", "get_goodday_user"},
}

// canonicalTool returns the tool an alias calls, or name itself.
func canonicalTool(name string) string {
	for _, a := range toolAliases {
		if a.alias == name {
			return a.target
		}
	}
	return name
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the instruments tool calls are recorded to.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewServer creates a new MCP server with goodday tools registered.
func NewServer(client *goodday.Client, version string, opts ...Option) *Server {
	s := &Server{
		client:  client,
		logger:  zap.NewNop(),
		metrics: observe.Nop(),
		byName:  make(map[string]mcp.Tool),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		"goodday",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.registerTools()

	return s
}

// Serve speaks the stdio transport over in and out until ctx is cancelled
// or in reaches EOF.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	return stdio.Listen(ctx, in, out)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools in registration order, aliases last.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(s.tools))
	copy(out, s.tools)
	return out
}

// CallTool executes a tool by name with the given arguments, recording the
// call in the history and the metrics. Progress lines go to the reporter
// carried by ctx.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	result, known := s.dispatch(ctx, name, args)
	if !known {
		return result, nil
	}
	elapsed := time.Since(start)

	s.metrics.RecordToolCall(ctx, name, result.IsError, elapsed)
	s.client.RecordCall(name, args, elapsed, result.IsError)
	s.logger.Info("tool call",
		zap.String("tool", name),
		zap.Duration("elapsed", elapsed),
		zap.Bool("is_error", result.IsError))

	return result, nil
}

func (s *Server) dispatch(ctx context.Context, name string, args map[string]any) (*ToolResult, bool) {
	switch canonicalTool(name) {
	case "get_goodday_projects":
		return s.handleProjects(ctx, args), true
	case "get_goodday_project_tasks":
		return s.handleProjectTasks(ctx, args), true
	case "get_goodday_sprint_tasks":
		return s.handleSprintTasks(ctx, args), true
	case "get_goodday_sprint_summary":
		return s.handleSprintSummary(ctx, args), true
	case "get_goodday_user_tasks":
		return s.handleUserTasks(ctx, args), true
	case "get_goodday_task_messages":
		return s.handleTaskMessages(ctx, args), true
	case "get_goodday_task_details":
		return s.handleTaskDetails(ctx, args), true
	case "search_goodday_tasks":
		return s.handleSearchTasks(ctx, args), true
	case "search_project_documents":
		return s.handleProjectDocuments(ctx, args), true
	case "get_document_content":
		return s.handleDocumentContent(ctx, args), true
	case "get_goodday_smart_query":
		return s.handleSmartQuery(ctx, args), true
	case "get_goodday_users":
		return s.handleUsers(ctx, args), true
	case "get_goodday_user":
		return s.handleUser(ctx, args), true
	case "get_goodday_project":
		return s.handleProject(ctx, args), true
	case "get_goodday_task":
		return s.handleTask(ctx, args), true
	case "create_goodday_project":
		return s.handleCreateProject(ctx, args), true
	case "create_goodday_task":
		return s.handleCreateTask(ctx, args), true
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, false
	}
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("get_goodday_projects",
		mcp.WithDescription("Get the list of projects from Goodday, archived projects included."),
		mcp.WithBoolean("archived",
			mcp.Description("Include archived/closed projects (always on)"),
		),
		mcp.WithBoolean("root_only",
			mcp.Description("Return only root projects"),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_project_tasks",
		mcp.WithDescription("Get the tasks of a Goodday project by project name (case-insensitive), subfolders included."),
		mcp.WithString("project_name",
			mcp.Description("The name of the project"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_sprint_tasks",
		mcp.WithDescription("Get the open and closed tasks of a sprint by project name and sprint name."),
		mcp.WithString("project_name",
			mcp.Description("The name of the project (e.g. \"ASTRA\")"),
			mcp.Required(),
		),
		mcp.WithString("sprint_name",
			mcp.Description("The name or number of the sprint (e.g. \"Sprint 233\" or \"233\")"),
			mcp.Required(),
		),
		mcp.WithBoolean("closed",
			mcp.Description("Include closed tasks (always on)"),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_sprint_summary",
		mcp.WithDescription("Summarize a sprint: overview, status distribution, task assignment and task details with descriptions."),
		mcp.WithString("project_name",
			mcp.Description("The name of the project"),
			mcp.Required(),
		),
		mcp.WithString("sprint_name",
			mcp.Description("The name or number of the sprint"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_user_tasks",
		mcp.WithDescription("Get the open and closed tasks assigned to a user, by user name or email."),
		mcp.WithString("user",
			mcp.Description("User name or email (case-insensitive)"),
			mcp.Required(),
		),
		mcp.WithBoolean("closed",
			mcp.Description("Include closed tasks (always on)"),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_task_messages",
		mcp.WithDescription("Get the message thread of a task by its short id within a project."),
		mcp.WithString("task_short_id",
			mcp.Description("Task short id, e.g. RAD-434"),
			mcp.Required(),
		),
		mcp.WithString("project_name",
			mcp.Description("The name of the project containing the task"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_task_details",
		mcp.WithDescription("Get the full details of a task by its short id within a project, including custom fields and subtasks."),
		mcp.WithString("task_short_id",
			mcp.Description("Task short id, e.g. RAD-434"),
			mcp.Required(),
		),
		mcp.WithString("project_name",
			mcp.Description("The name of the project containing the task"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("search_goodday_tasks",
		mcp.WithDescription("Semantic search over Goodday tasks. Requires GOODDAY_SEARCH_BEARER_TOKEN."),
		mcp.WithString("query",
			mcp.Description("What to search for"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("search_project_documents",
		mcp.WithDescription("List the documents of a project, optionally filtered by name and with their content."),
		mcp.WithString("project_name",
			mcp.Description("The name of the project or folder"),
			mcp.Required(),
		),
		mcp.WithString("document_name",
			mcp.Description("Only documents whose name contains this text (case-insensitive)"),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Fetch and include the content of each document"),
		),
	))

	s.addTool(mcp.NewTool("get_document_content",
		mcp.WithDescription("Get the content of a document as readable text."),
		mcp.WithString("document_id",
			mcp.Description("The document id"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_smart_query",
		mcp.WithDescription("Answer a plain-language request about Goodday data, e.g. \"tasks from sprint 233 in ASTRA project\", \"tasks assigned to Jane\", \"get messages from RAD-434 in ASTRA\" or \"search tasks S3 upload\"."),
		mcp.WithString("query",
			mcp.Description("Natural language query"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_users",
		mcp.WithDescription("Get the list of users of the organization."),
	))

	s.addTool(mcp.NewTool("get_goodday_user",
		mcp.WithDescription("Get a user by id."),
		mcp.WithString("user_id",
			mcp.Description("The user id"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_project",
		mcp.WithDescription("Get a project by id."),
		mcp.WithString("project_id",
			mcp.Description("The project id"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("get_goodday_task",
		mcp.WithDescription("Get a task by id."),
		mcp.WithString("task_id",
			mcp.Description("The task id"),
			mcp.Required(),
		),
	))

	s.addTool(mcp.NewTool("create_goodday_project",
		mcp.WithDescription("Create a new project."),
		mcp.WithString("name", mcp.Description("Project name"), mcp.Required()),
		mcp.WithString("created_by_user_id", mcp.Description("Id of the creating user"), mcp.Required()),
		mcp.WithString("project_template_id", mcp.Description("Project template id")),
		mcp.WithString("parent_project_id", mcp.Description("Parent project or folder id")),
		mcp.WithNumber("color", mcp.Description("Color index 1-24")),
		mcp.WithString("deadline", mcp.Description("Deadline (YYYY-MM-DD)")),
		mcp.WithString("start_date", mcp.Description("Start date (YYYY-MM-DD)")),
		mcp.WithString("end_date", mcp.Description("End date (YYYY-MM-DD)")),
	))

	s.addTool(mcp.NewTool("create_goodday_task",
		mcp.WithDescription("Create a new task in a project."),
		mcp.WithString("project_id", mcp.Description("Project id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("from_user_id", mcp.Description("Id of the creating user"), mcp.Required()),
		mcp.WithString("to_user_id", mcp.Description("Id of the assignee")),
		mcp.WithString("message", mcp.Description("Task description")),
		mcp.WithString("parent_task_id", mcp.Description("Parent task id for subtasks")),
		mcp.WithString("task_type_id", mcp.Description("Task type id")),
		mcp.WithString("start_date", mcp.Description("Start date (YYYY-MM-DD)")),
		mcp.WithString("end_date", mcp.Description("End date (YYYY-MM-DD)")),
		mcp.WithString("deadline", mcp.Description("Deadline (YYYY-MM-DD)")),
		mcp.WithNumber("estimate", mcp.Description("Estimate in minutes")),
		mcp.WithNumber("priority", mcp.Description("Priority 1-10 (50 blocker, 100 emergency)")),
	))

	for _, a := range toolAliases {
		tool := s.byName[a.target]
		tool.Name = a.alias
		tool.Description = fmt.Sprintf("%s Same as %s.", tool.Description, a.target)
		s.addTool(tool)
	}
}

func (s *Server) addTool(tool mcp.Tool) {
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	s.byName[tool.Name] = tool
	s.mcpServer.AddTool(tool, s.mcpHandler(tool.Name))
}

// mcpHandler adapts CallTool to mcp-go. Progress lines are logged and, when
// the caller sent a progress token, relayed as progress notifications.
func (s *Server) mcpHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = goodday.WithStatus(ctx, s.statusRelay(req))
		result, err := s.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

func (s *Server) statusRelay(req mcp.CallToolRequest) goodday.StatusFunc {
	var token mcp.ProgressToken
	if req.Params.Meta != nil {
		token = req.Params.Meta.ProgressToken
	}
	var step atomic.Int64

	return func(ctx context.Context, message string, done bool) {
		s.logger.Debug("status", zap.String("tool", req.Params.Name), zap.String("message", message), zap.Bool("done", done))
		if token == nil {
			return
		}
		srv := server.ServerFromContext(ctx)
		if srv == nil {
			return
		}
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      step.Add(1),
			"message":       message,
		})
		if err != nil {
			s.logger.Debug("progress notification failed", zap.Error(err))
		}
	}
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}
