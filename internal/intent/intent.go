// Package intent maps a free-text request about Goodday data onto one of the
// structured operations. Rules are tried in a fixed order and the first one
// that yields a complete or partial intent wins.
package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the operation an interpreted query maps to.
type Kind int

const (
	// Help means no rule matched; the caller should show HelpText.
	Help Kind = iota
	SprintTasks
	UserTasks
	TaskMessages
	TaskDetails
	Search
	// Clarify means a rule matched but a required argument is missing.
	// Intent.Message carries the prompt to show.
	Clarify
)

func (k Kind) String() string {
	switch k {
	case SprintTasks:
		return "sprint_tasks"
	case UserTasks:
		return "user_tasks"
	case TaskMessages:
		return "task_messages"
	case TaskDetails:
		return "task_details"
	case Search:
		return "search"
	case Clarify:
		return "clarify"
	default:
		return "help"
	}
}

// Intent is the result of Parse.
type Intent struct {
	Kind    Kind
	Project string
	Sprint  string
	User    string
	TaskID  string
	Terms   string
	Message string
}

var (
	sprintRe        = regexp.MustCompile(`(?:sprint|spring)\s+(\w+)`)
	projectBeforeRe = regexp.MustCompile(`(?:from|in|project)\s+(\w+)`)
	projectAfterRe  = regexp.MustCompile(`(\w+)\s+project`)
	messageTaskRe   = regexp.MustCompile(`(?:from|for)\s+([a-z]+-\d+)`)
	detailTaskRe    = regexp.MustCompile(`(?:task|for|of)\s+([a-z]+-\d+)`)
	anyTaskRe       = regexp.MustCompile(`([a-z]+-\d+)`)
)

var stopWords = map[string]bool{
	"sprint":  true,
	"spring":  true,
	"task":    true,
	"tasks":   true,
	"the":     true,
	"a":       true,
	"project": true,
}

// Parse interprets query. It never fails: unmatched input yields Kind Help.
func Parse(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	hasTask := strings.Contains(q, "task")

	// 1. sprint tasks
	if (strings.Contains(q, "sprint") || strings.Contains(q, "spring")) && hasTask {
		if sprint := firstToken(q, []*regexp.Regexp{sprintRe}, nil); sprint != "" {
			project := firstToken(q, []*regexp.Regexp{projectBeforeRe, projectAfterRe}, []string{sprint})
			if project == "" {
				return clarify(fmt.Sprintf("Please specify the project name. Example: 'get tasks from sprint %s in ASTRA project'", sprint))
			}
			return Intent{Kind: SprintTasks, Sprint: sprint, Project: project}
		}
	}

	// 2. tasks assigned to a user
	if (strings.Contains(q, "assigned to") || strings.Contains(q, "tasks for")) && hasTask {
		var rest string
		if _, after, ok := strings.Cut(q, "assigned to"); ok {
			rest = after
		} else if _, after, ok := strings.Cut(q, "tasks for"); ok {
			rest = after
		}
		if user := removeWords(rest, "user", "tasks"); user != "" {
			return Intent{Kind: UserTasks, User: user}
		}
	}

	// 3. task messages
	if strings.Contains(q, "message") && (strings.Contains(q, "from") || strings.Contains(q, "for")) {
		if m := messageTaskRe.FindStringSubmatch(q); m != nil {
			id := strings.ToUpper(m[1])
			project := firstToken(q, []*regexp.Regexp{projectBeforeRe, projectAfterRe}, nil)
			if project == "" {
				return clarify(fmt.Sprintf("Please specify the project name. Example: 'get messages from %s in ASTRA project'", id))
			}
			return Intent{Kind: TaskMessages, TaskID: id, Project: project}
		}
	}

	// 4. task details
	wantsDetails := (hasTask && strings.Contains(q, "detail")) ||
		(strings.Contains(q, "details") && (strings.Contains(q, "for") || strings.Contains(q, "of"))) ||
		strings.Contains(q, "get task")
	if wantsDetails && !strings.Contains(q, "tasks") && !strings.Contains(q, "message") {
		var raw string
		if m := detailTaskRe.FindStringSubmatch(q); m != nil {
			raw = m[1]
		} else if m := anyTaskRe.FindStringSubmatch(q); m != nil {
			raw = m[1]
		}
		if raw != "" {
			id := strings.ToUpper(raw)
			project := firstToken(q, []*regexp.Regexp{projectBeforeRe, projectAfterRe}, nil)
			if project == "" {
				return clarify(fmt.Sprintf("Please specify the project name. Example: 'get task %s in ASTRA project'", id))
			}
			return Intent{Kind: TaskDetails, TaskID: id, Project: project}
		}
	}

	// 5. "<user> tasks" shorthand
	if hasTask && !containsAny(q, "sprint", "spring", "project", "assigned", "message", "detail", "search", "find") {
		if user := removeWords(q, "tasks", "task", "get"); user != "" {
			return Intent{Kind: UserTasks, User: user}
		}
	}

	// 6. semantic search
	if (strings.Contains(q, "search") || strings.Contains(q, "find")) && hasTask {
		if terms := removeWords(q, "search", "for", "find", "tasks", "task", "get"); terms != "" {
			return Intent{Kind: Search, Terms: terms}
		}
	}

	return Intent{Kind: Help, Message: HelpText}
}

func clarify(msg string) Intent {
	return Intent{Kind: Clarify, Message: msg}
}

// firstToken returns the first capture of the patterns, in pattern order then
// position order, that is neither a stop word nor one of exclude. A capture
// directly followed by "-" is the prefix of a task id and is skipped.
func firstToken(q string, patterns []*regexp.Regexp, exclude []string) string {
	for _, re := range patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(q, -1) {
			start, end := loc[2], loc[3]
			tok := q[start:end]
			if stopWords[tok] || contains(exclude, tok) {
				continue
			}
			if end < len(q) && q[end] == '-' {
				continue
			}
			return tok
		}
	}
	return ""
}

// removeWords drops whole-word occurrences of words.
func removeWords(s string, words ...string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !contains(words, f) {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// HelpText is returned when a query matches none of the rules.
const HelpText = `I couldn't understand your query. Here are some examples of what I can help with:

**Search Tasks:**
- "search for Security tasks"
- "find tasks S3 upload"
- "search tasks security improvements"

**Sprint Tasks:**
- "get tasks from sprint 233 in ASTRA project"
- "get tasks in sprint 122 in Astra project"
- "sprint 102 tasks from PROJECT_NAME"
- "tasks from sprint 233"

**User Tasks:**
- "tasks assigned to Roney Dsilva"
- "Roney Dsilva tasks"
- "tasks for John Smith"

**Task Messages:**
- "get messages from RAD-434 in ASTRA project"
- "messages for ABC-123 in PROJECT_NAME"
- "get all messages from TASK-456 in Astra"

**Task Details:**
- "get task RAD-434 in ASTRA project"
- "task details for ABC-123 in PROJECT_NAME"
- "details for TASK-456 in Astra"
- "get details of RAD-434 in ASTRA"

**Other Options:**
- Use specific tools like ` + "`get_goodday_projects`" + ` for projects
- Use ` + "`get_goodday_users`" + ` to see available users
- Use ` + "`get_goodday_project_tasks`" + ` for project tasks
- Use ` + "`search_goodday_tasks`" + ` for semantic search

Please try rephrasing your query with one of these patterns.`
