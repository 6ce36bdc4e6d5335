package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/intent"
	"go.uber.org/zap"
)

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

func textResult(content string) *ToolResult {
	return &ToolResult{Content: content}
}

// fail turns an operation error into an error result. Lookup misses, search
// proxy answers and argument errors carry their own message; everything else
// reads "Failed to <verb>: <cause>".
func fail(ctx context.Context, verb string, err error) *ToolResult {
	var (
		notFound    *goodday.NotFoundError
		searchErr   *goodday.SearchResponseError
		searchShape *goodday.SearchFormatError
		msg         string
	)
	switch {
	case errors.As(err, &notFound):
		msg = notFound.Error()
	case errors.As(err, &searchErr):
		msg = searchErr.Error()
	case errors.As(err, &searchShape):
		msg = searchShape.Error()
	case errors.Is(err, goodday.ErrEmptyQuery):
		msg = "Error: Search query cannot be empty"
	case errors.Is(err, goodday.ErrMissingArgument):
		msg = "Error: " + err.Error()
	default:
		msg = fmt.Sprintf("Failed to %s: %v", verb, err)
	}
	goodday.ReportStatus(ctx, msg, true)
	return &ToolResult{Content: msg, IsError: true}
}

func (s *Server) handleProjects(ctx context.Context, args map[string]any) *ToolResult {
	projects, err := s.client.Projects(ctx, boolArg(args, "root_only"))
	if err != nil {
		return fail(ctx, "retrieve projects", err)
	}
	return textResult(formatProjects(projects))
}

func (s *Server) handleProjectTasks(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.ProjectTasks(ctx, stringArg(args, "project_name"))
	if err != nil {
		return fail(ctx, "retrieve project tasks", err)
	}
	return textResult(formatProjectTasks(r))
}

func (s *Server) handleSprintTasks(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.SprintTasks(ctx, stringArg(args, "project_name"), stringArg(args, "sprint_name"))
	if err != nil {
		return fail(ctx, "retrieve sprint tasks", err)
	}
	return textResult(formatSprintTasks(r))
}

func (s *Server) handleSprintSummary(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.SprintSummary(ctx, stringArg(args, "project_name"), stringArg(args, "sprint_name"))
	if err != nil {
		return fail(ctx, "retrieve sprint summary", err)
	}
	return textResult(formatSprintSummary(r))
}

func (s *Server) handleUserTasks(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.UserTasks(ctx, stringArg(args, "user"))
	if err != nil {
		return fail(ctx, "retrieve user tasks", err)
	}
	return textResult(formatUserTasks(r))
}

func (s *Server) handleTaskMessages(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.TaskMessages(ctx, stringArg(args, "task_short_id"), stringArg(args, "project_name"))
	if err != nil {
		return fail(ctx, "retrieve task messages", err)
	}
	return textResult(formatTaskMessages(r))
}

func (s *Server) handleTaskDetails(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.TaskDetails(ctx, stringArg(args, "task_short_id"), stringArg(args, "project_name"))
	if err != nil {
		return fail(ctx, "retrieve task details", err)
	}
	return textResult(formatTaskDetails(r))
}

func (s *Server) handleSearchTasks(ctx context.Context, args map[string]any) *ToolResult {
	query := stringArg(args, "query")
	hits, err := s.client.SearchTasks(ctx, query)
	if err != nil {
		return fail(ctx, "search tasks", err)
	}
	return textResult(formatSearchResults(query, hits))
}

func (s *Server) handleProjectDocuments(ctx context.Context, args map[string]any) *ToolResult {
	r, err := s.client.ProjectDocuments(ctx,
		stringArg(args, "project_name"),
		stringArg(args, "document_name"),
		boolArg(args, "include_content"))
	if err != nil {
		return fail(ctx, "search project documents", err)
	}
	return textResult(formatProjectDocuments(r))
}

func (s *Server) handleDocumentContent(ctx context.Context, args map[string]any) *ToolResult {
	d, err := s.client.DocumentContent(ctx, stringArg(args, "document_id"))
	if err != nil {
		return fail(ctx, "retrieve document content", err)
	}
	return textResult(formatDocumentText(d))
}

func (s *Server) handleUsers(ctx context.Context, _ map[string]any) *ToolResult {
	users, err := s.client.Users(ctx)
	if err != nil {
		return fail(ctx, "retrieve users", err)
	}
	return textResult(formatUsers(users))
}

func (s *Server) handleUser(ctx context.Context, args map[string]any) *ToolResult {
	u, err := s.client.User(ctx, stringArg(args, "user_id"))
	if err != nil {
		return fail(ctx, "retrieve user", err)
	}
	return textResult(formatUser(*u))
}

func (s *Server) handleProject(ctx context.Context, args map[string]any) *ToolResult {
	p, err := s.client.Project(ctx, stringArg(args, "project_id"))
	if err != nil {
		return fail(ctx, "retrieve project", err)
	}
	return textResult(formatProject(*p))
}

func (s *Server) handleTask(ctx context.Context, args map[string]any) *ToolResult {
	t, err := s.client.Task(ctx, stringArg(args, "task_id"))
	if err != nil {
		return fail(ctx, "retrieve task", err)
	}
	return textResult(formatTask(t.Task))
}

func (s *Server) handleCreateProject(ctx context.Context, args map[string]any) *ToolResult {
	p, err := s.client.CreateProject(ctx, goodday.CreateProjectRequest{
		Name:              stringArg(args, "name"),
		CreatedByUserID:   stringArg(args, "created_by_user_id"),
		ProjectTemplateID: stringArg(args, "project_template_id"),
		ParentProjectID:   stringArg(args, "parent_project_id"),
		Color:             intArg(args, "color"),
		Deadline:          stringArg(args, "deadline"),
		StartDate:         stringArg(args, "start_date"),
		EndDate:           stringArg(args, "end_date"),
	})
	if err != nil {
		return fail(ctx, "create project", err)
	}
	return textResult("**Project created successfully:**\n\n" + formatProject(*p))
}

func (s *Server) handleCreateTask(ctx context.Context, args map[string]any) *ToolResult {
	t, err := s.client.CreateTask(ctx, goodday.CreateTaskRequest{
		ProjectID:    stringArg(args, "project_id"),
		Title:        stringArg(args, "title"),
		FromUserID:   stringArg(args, "from_user_id"),
		ToUserID:     stringArg(args, "to_user_id"),
		Message:      stringArg(args, "message"),
		ParentTaskID: stringArg(args, "parent_task_id"),
		TaskTypeID:   stringArg(args, "task_type_id"),
		StartDate:    stringArg(args, "start_date"),
		EndDate:      stringArg(args, "end_date"),
		Deadline:     stringArg(args, "deadline"),
		Estimate:     intArg(args, "estimate"),
		Priority:     intArg(args, "priority"),
	})
	if err != nil {
		return fail(ctx, "create task", err)
	}
	return textResult("**Task created successfully:**\n\n" + formatTask(*t))
}

// handleSmartQuery routes a free-text request to one of the structured tools.
// Clarification prompts and the help text are plain results, not errors.
func (s *Server) handleSmartQuery(ctx context.Context, args map[string]any) *ToolResult {
	query := stringArg(args, "query")
	goodday.ReportStatus(ctx, fmt.Sprintf("Processing query: '%s'...", query), false)

	in := intent.Parse(query)
	s.logger.Debug("smart query routed", zapIntent(in)...)

	switch in.Kind {
	case intent.SprintTasks:
		return s.handleSprintTasks(ctx, map[string]any{"project_name": in.Project, "sprint_name": in.Sprint})
	case intent.UserTasks:
		return s.handleUserTasks(ctx, map[string]any{"user": in.User})
	case intent.TaskMessages:
		return s.handleTaskMessages(ctx, map[string]any{"task_short_id": in.TaskID, "project_name": in.Project})
	case intent.TaskDetails:
		return s.handleTaskDetails(ctx, map[string]any{"task_short_id": in.TaskID, "project_name": in.Project})
	case intent.Search:
		return s.handleSearchTasks(ctx, map[string]any{"query": in.Terms})
	default:
		goodday.ReportStatus(ctx, "Query needs more detail", true)
		return textResult(in.Message)
	}
}

func zapIntent(in intent.Intent) []zap.Field {
	return []zap.Field{
		zap.Stringer("kind", in.Kind),
		zap.String("project", in.Project),
		zap.String("sprint", in.Sprint),
		zap.String("user", in.User),
		zap.String("task_id", in.TaskID),
		zap.String("terms", in.Terms),
	}
}
