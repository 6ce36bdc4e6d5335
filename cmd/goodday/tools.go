package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/container"
	gdmcp "github.com/hyperengineering/goodday/mcp"
	"github.com/spf13/cobra"
)

// toolOutput is the --json form of a tool result.
type toolOutput struct {
	Tool    string `json:"tool"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// runTool invokes an MCP tool in-process and prints its Markdown result.
// Error results exit non-zero.
func runTool(cmd *cobra.Command, tool string, args map[string]any) error {
	c, err := newContainer(container.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx := cmd.Context()
	if verbose {
		errOut := cmd.ErrOrStderr()
		ctx = goodday.WithStatus(ctx, func(_ context.Context, msg string, _ bool) {
			printMuted(errOut, "%s", msg)
		})
	}

	var result *gdmcp.ToolResult
	call := func() error {
		var err error
		result, err = c.Server().CallTool(ctx, tool, args)
		return err
	}
	if verbose {
		err = call()
	} else {
		err = runWithSpinner(cmd.ErrOrStderr(), "Calling Goodday", call)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		if err := outputAsJSON(cmd, toolOutput{Tool: tool, Content: result.Content, IsError: result.IsError}); err != nil {
			return err
		}
	} else if !result.IsError {
		fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(result.Content))
	}
	if result.IsError {
		return errors.New(result.Content)
	}
	return nil
}

var projectsRootOnly bool

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects, archived ones included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_projects", map[string]any{"root_only": projectsRootOnly})
	},
}

var tasksCmd = &cobra.Command{
	Use:     "tasks <project>",
	Short:   "List the tasks of a project",
	Example: `  goodday tasks ASTRA`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_project_tasks", map[string]any{"project_name": args[0]})
	},
}

var sprintSummary bool

var sprintCmd = &cobra.Command{
	Use:   "sprint <project> <sprint>",
	Short: "List or summarize the tasks of a sprint",
	Example: `  goodday sprint ASTRA 233
  goodday sprint ASTRA "Sprint 233" --summary`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool := "get_goodday_sprint_tasks"
		if sprintSummary {
			tool = "get_goodday_sprint_summary"
		}
		return runTool(cmd, tool, map[string]any{"project_name": args[0], "sprint_name": args[1]})
	},
}

var userTasksCmd = &cobra.Command{
	Use:     "user-tasks <name or email>",
	Short:   "List the tasks assigned to a user",
	Example: `  goodday user-tasks jane@example.com`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_user_tasks", map[string]any{"user": args[0]})
	},
}

var messagesCmd = &cobra.Command{
	Use:     "messages <project> <task-id>",
	Short:   "Show the message thread of a task",
	Example: `  goodday messages ASTRA RAD-434`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_task_messages", map[string]any{"project_name": args[0], "task_short_id": args[1]})
	},
}

var taskCmd = &cobra.Command{
	Use:     "task <project> <task-id>",
	Short:   "Show the details of a task",
	Example: `  goodday task ASTRA RAD-434`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_task_details", map[string]any{"project_name": args[0], "task_short_id": args[1]})
	},
}

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Semantic search over tasks",
	Example: `  goodday search "S3 upload"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "search_goodday_tasks", map[string]any{"query": strings.Join(args, " ")})
	},
}

var (
	docsName    string
	docsContent bool
)

var docsCmd = &cobra.Command{
	Use:     "docs <project>",
	Short:   "List the documents of a project",
	Example: `  goodday docs ASTRA --name design --content`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "search_project_documents", map[string]any{
			"project_name":    args[0],
			"document_name":   docsName,
			"include_content": docsContent,
		})
	},
}

var docCmd = &cobra.Command{
	Use:   "doc <document-id>",
	Short: "Show a document as readable text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_document_content", map[string]any{"document_id": args[0]})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the users of the organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_users", nil)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a plain-language question about Goodday data",
	Example: `  goodday ask "tasks from sprint 233 in ASTRA project"
  goodday ask "get messages from RAD-434 in ASTRA"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "get_goodday_smart_query", map[string]any{"query": strings.Join(args, " ")})
	},
}

var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value ...]",
	Short: "Call any tool by name",
	Long: `Call any registered tool by name. Arguments are key=value pairs;
true and false become booleans and plain integers become numbers.`,
	Example: `  goodday call get_goodday_task task_id=t-434
  goodday call create_goodday_task project_id=p1 title="Fix login" from_user_id=u1 priority=3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs, err := parseToolArgs(args[1:])
		if err != nil {
			return err
		}
		return runTool(cmd, args[0], toolArgs)
	},
}

// parseToolArgs turns key=value pairs into tool arguments shaped like the
// JSON an MCP client would send.
func parseToolArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: want key=value", p)
		}
		if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
			out[key] = b
		} else if n, err := strconv.Atoi(value); err == nil {
			out[key] = float64(n)
		} else {
			out[key] = value
		}
	}
	return out, nil
}

func init() {
	projectsCmd.Flags().BoolVar(&projectsRootOnly, "root-only", false, "Only root projects")
	sprintCmd.Flags().BoolVar(&sprintSummary, "summary", false, "Summarize status and assignment instead of listing tasks")
	docsCmd.Flags().StringVar(&docsName, "name", "", "Only documents whose name contains this text")
	docsCmd.Flags().BoolVar(&docsContent, "content", false, "Include document content")

	rootCmd.AddCommand(projectsCmd, tasksCmd, sprintCmd, userTasksCmd, messagesCmd,
		taskCmd, searchCmd, docsCmd, docCmd, usersCmd, askCmd, callCmd)
}
