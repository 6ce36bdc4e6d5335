package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hyperengineering/goodday"
	"github.com/tidwall/gjson"
)

const (
	na            = "N/A"
	blockSep      = "\n---\n"
	maxSubtasks   = 10
	maxSummaryLen = 200
)

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return na
	}
	return s
}

func formatTask(t goodday.Task) string {
	project := na
	if t.Project != nil {
		project = orNA(t.Project.Name)
	}
	return strings.Join([]string{
		"**Task ID:** " + orNA(t.ShortID),
		"**Title:** " + orNA(t.Name),
		"**Status:** " + t.Status.NameOr(na),
		"**Project:** " + project,
		"**Assigned To:** " + orNA(t.AssignedToUserID),
		"**Priority:** " + t.Priority.Or(na),
		"**Start Date:** " + t.StartDate.Or(na),
		"**End Date:** " + t.EndDate.Or(na),
		"**Description:** " + t.Message.Or("No description"),
	}, "\n")
}

func formatProject(p goodday.Project) string {
	return strings.Join([]string{
		"**Project ID:** " + orNA(p.ID),
		"**Name:** " + orNA(p.Name),
		"**Health:** " + p.Health.Or(na),
		"**Status:** " + p.Status.NameOr(na),
		"**Start Date:** " + p.StartDate.Or(na),
		"**End Date:** " + p.EndDate.Or(na),
		"**Progress:** " + p.Progress.Or("0") + "%",
		"**Owner:** " + p.Owner.NameOr(na),
	}, "\n")
}

func formatUser(u goodday.User) string {
	return strings.Join([]string{
		"**User ID:** " + orNA(u.ID),
		"**Name:** " + orNA(u.Name),
		"**Email:** " + orNA(u.Email),
		"**Role:** " + u.Role.NameOr(na),
		"**Status:** " + u.Status.Or(na),
	}, "\n")
}

func formatMessage(m goodday.Message, users goodday.UserNames) string {
	return strings.Join([]string{
		"**Message ID:** " + orNA(m.ID),
		"**Date Created:** " + m.DateCreated.Or(na),
		"**From User:** " + users.Display(m.FromUserID),
		"**To User:** " + users.Display(m.ToUserID),
		"**Message:** " + m.Message.Or("No message content"),
		"**Task Status ID:** " + m.TaskStatusID.Or(na),
		"**Time Report ID:** " + m.TimeReportID.Or(na),
		"**Edit By User:** " + users.Display(m.EditByUserID),
		"**Edit Date:** " + m.EditDate.Or(na),
	}, "\n")
}

func formatSearchHit(h goodday.SearchHit) string {
	content := h.Content
	if strings.TrimSpace(content) == "" {
		content = "No content"
	}
	var b strings.Builder
	b.WriteString("**Task ID:** " + orNA(h.TaskID) + "\n")
	b.WriteString("**Title:** " + orNA(h.Title) + "\n")
	b.WriteString("**Content:** " + content)
	for _, extra := range h.Additional {
		b.WriteString("\n**Additional Content:** " + extra)
	}
	return b.String()
}

func joinBlocks[T any](items []T, format func(T) string) string {
	blocks := make([]string, len(items))
	for i, item := range items {
		blocks[i] = format(item)
	}
	return strings.Join(blocks, blockSep)
}

func formatProjects(projects []goodday.Project) string {
	if len(projects) == 0 {
		return "No projects found."
	}
	return "**Goodday Projects:**\n\n" + joinBlocks(projects, formatProject)
}

func formatUsers(users []goodday.User) string {
	if len(users) == 0 {
		return "No users found."
	}
	return "**Goodday Users:**\n\n" + joinBlocks(users, formatUser)
}

func formatProjectTasks(r *goodday.ProjectTasks) string {
	if len(r.Tasks) == 0 {
		return fmt.Sprintf("No tasks found in project '%s'.", r.Project.Name)
	}
	return fmt.Sprintf("**Project '%s' Tasks:**\n\n", r.Project.Name) + joinBlocks(r.Tasks, formatTask)
}

func formatSprintTasks(r *goodday.SprintTasks) string {
	if len(r.Tasks) == 0 {
		return fmt.Sprintf("Sprint '%s' exists but contains no tasks.", r.Sprint.Name)
	}
	return fmt.Sprintf("**Sprint '%s' Tasks (%d tasks):**\n\n", r.Sprint.Name, len(r.Tasks)) + joinBlocks(r.Tasks, formatTask)
}

func formatUserTasks(r *goodday.UserTasks) string {
	if len(r.Tasks) == 0 {
		return fmt.Sprintf("No tasks found assigned to '%s'.", r.User.Name)
	}
	return fmt.Sprintf("**Tasks assigned to '%s':**\n\n", r.User.Name) + joinBlocks(r.Tasks, formatTask)
}

func formatTaskMessages(r *goodday.TaskMessages) string {
	if len(r.Messages) == 0 {
		return fmt.Sprintf("Task '%s' (%s) has no messages.", r.Task.ShortID, r.Task.Name)
	}
	body := joinBlocks(r.Messages, func(m goodday.Message) string { return formatMessage(m, r.Users) })
	return fmt.Sprintf("**Messages for Task '%s' (%s) in project '%s' - %d messages:**\n\n%s",
		r.Task.ShortID, r.Task.Name, r.Project.Name, len(r.Messages), body)
}

func formatTaskDetails(r *goodday.TaskDetails) string {
	t := r.Task
	users := na
	if len(t.Users) > 0 {
		names := make([]string, len(t.Users))
		for i, id := range t.Users {
			names[i] = r.Users.Display(id)
		}
		users = strings.Join(names, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Task Details for '%s' in project '%s':**\n\n", t.ShortID, r.Project.Name)
	b.WriteString(strings.Join([]string{
		"**Task ID:** " + orNA(t.ShortID),
		"**Name:** " + orNA(t.Name),
		"**Project:** " + r.Project.Name,
		"**Status:** " + t.Status.NameOr(na),
		"**Task Type:** " + t.TaskType.NameOr(na),
		"**System Status:** " + t.SystemStatus.Or(na),
		"**System Type:** " + t.SystemType.Or(na),
		"**Priority:** " + t.Priority.Or(na),
		"**Assigned To:** " + r.Users.Display(t.AssignedToUserID),
		"**Action Required:** " + r.Users.Display(t.ActionRequiredUserID),
		"**Created By:** " + r.Users.Display(t.CreatedByUserID),
		"**Start Date:** " + t.StartDate.Or(na),
		"**End Date:** " + t.EndDate.Or(na),
		"**Deadline:** " + t.Deadline.Or(na),
		"**Schedule Date:** " + t.ScheduleDate.Or(na),
		"**Schedule Status:** " + t.ScheduleStatus.Or(na),
		"**Estimate:** " + t.Estimate.Or(na),
		"**Reported Time:** " + t.ReportedTime.Or(na),
		"**Moment Created:** " + t.MomentCreated.Or(na),
		"**Moment Closed:** " + t.MomentClosed.Or(na),
		"**Recent Activity:** " + t.RecentActivityMoment.Or(na),
		"**Parent Task ID:** " + t.ParentTaskID.Or(na),
		"**Users:** " + users,
		fmt.Sprintf("**Subtasks Count:** %d", len(t.Subtasks)),
	}, "\n"))

	if fields := customFields(t.CustomFieldsData); len(fields) > 0 {
		b.WriteString("\n\n**Custom Fields:**")
		for _, f := range fields {
			b.WriteString("\n- " + f)
		}
	}

	if len(t.Subtasks) > 0 {
		fmt.Fprintf(&b, "\n\n**Subtasks (%d):**", len(t.Subtasks))
		for i, s := range t.Subtasks {
			if i == maxSubtasks {
				break
			}
			if s.ShortID == "" && s.Name == "" {
				fmt.Fprintf(&b, "\n- Subtask %d: %s", i+1, s.ID)
				continue
			}
			fmt.Fprintf(&b, "\n- %s: %s", orNA(s.ShortID), orNA(s.Name))
		}
		if len(t.Subtasks) > maxSubtasks {
			fmt.Fprintf(&b, "\n... and %d more subtasks", len(t.Subtasks)-maxSubtasks)
		}
	}
	return b.String()
}

// customFields renders customFieldsData, which Goodday sends either as an
// object keyed by field id or as a list of field objects.
func customFields(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	data := gjson.ParseBytes(raw)
	var out []string
	switch {
	case data.IsObject():
		data.ForEach(func(key, value gjson.Result) bool {
			out = append(out, key.String()+": "+value.String())
			return true
		})
	case data.IsArray():
		for i, v := range data.Array() {
			id := v.Get("id").String()
			if id == "" {
				id = fmt.Sprintf("%d", i+1)
			}
			value := v.Get("value")
			if !value.Exists() {
				value = v
			}
			out = append(out, id+": "+value.String())
		}
	}
	return out
}

func formatSprintSummary(r *goodday.SprintSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Sprint Summary for '%s' in project '%s':**\n\n", r.Sprint.Name, r.Project.Name)

	b.WriteString("**Sprint Overview:**\n")
	fmt.Fprintf(&b, "- Sprint: %s (ID: %s)\n", r.Sprint.Name, r.Sprint.ID)
	fmt.Fprintf(&b, "- Status: %s\n", r.Sprint.Status.NameOr(na))
	fmt.Fprintf(&b, "- Start Date: %s\n", humanDate(r.Sprint.StartDate))
	fmt.Fprintf(&b, "- End Date: %s\n", humanDate(r.Sprint.EndDate))
	fmt.Fprintf(&b, "- Progress: %s%%\n", r.Sprint.Progress.Or("0"))
	fmt.Fprintf(&b, "- Total Tasks: %d\n", len(r.Tasks))

	b.WriteString("\n**Status Distribution:**\n")
	writeCounts(&b, r.StatusCounts, len(r.Tasks))

	b.WriteString("\n**Task Assignment:**\n")
	writeCounts(&b, r.AssigneeCounts, len(r.Tasks))

	b.WriteString("\n**Task Details:**")
	if len(r.Tasks) == 0 {
		b.WriteString("\nNo tasks in this sprint.")
	}
	for _, t := range r.Tasks {
		assignee := "Unassigned"
		if t.AssignedToUserID != "" {
			assignee = r.Users.Display(t.AssignedToUserID)
		}
		fmt.Fprintf(&b, "\n- **%s** %s [%s] (Assigned To: %s)", orNA(t.ShortID), orNA(t.Name), t.Status.NameOr("No Status"), assignee)
		fmt.Fprintf(&b, "\n  Description: %s", truncate(t.Message.Or("No description"), maxSummaryLen))
	}
	return b.String()
}

func writeCounts(b *strings.Builder, counts []goodday.Count, total int) {
	if len(counts) == 0 {
		b.WriteString("- None\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(b, "- %s: %d (%d%%)\n", c.Label, c.N, c.N*100/total)
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// humanDate renders a Goodday date with its distance from now, e.g.
// "2026-05-01 (3 days ago)".
func humanDate(s goodday.Scalar) string {
	raw := strings.TrimSpace(s.String())
	if raw == "" {
		return na
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%s (%s)", raw, humanize.Time(t))
		}
	}
	return raw
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func formatSearchResults(query string, hits []goodday.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No search results found for query: '%s'", query)
	}
	return fmt.Sprintf("**Search Results for '%s' (%d unique tasks found):**\n\n", query, len(hits)) + joinBlocks(hits, formatSearchHit)
}

func formatProjectDocuments(r *goodday.ProjectDocuments) string {
	if len(r.Documents) == 0 {
		if r.Filter != "" {
			return fmt.Sprintf("No documents matching '%s' found in project '%s'.", r.Filter, r.Project.Name)
		}
		return fmt.Sprintf("No documents found in project '%s'.", r.Project.Name)
	}
	body := joinBlocks(r.Documents, func(d goodday.DocumentEntry) string {
		lines := []string{
			"**Document ID:** " + orNA(d.ID),
			"**Name:** " + orNA(d.Name),
			"**Created:** " + d.MomentCreated.Or(na),
			"**Updated:** " + d.MomentUpdated.Or(na),
		}
		switch {
		case d.ContentErr != nil:
			lines = append(lines, "**Content:** Failed to fetch content: "+d.ContentErr.Error())
		case d.Content != "":
			lines = append(lines, "**Content:**\n"+d.Content)
		}
		return strings.Join(lines, "\n")
	})
	return fmt.Sprintf("**Documents in project '%s' (%d found):**\n\n%s", r.Project.Name, len(r.Documents), body)
}

func formatDocumentText(d *goodday.DocumentText) string {
	name := d.Name
	if name == "" {
		name = d.Title
	}
	if name == "" {
		name = d.ID
	}
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Sprintf("Document '%s' has no content.", name)
	}
	return fmt.Sprintf("**Document '%s' (ID: %s):**\n\n%s", name, d.ID, d.Text)
}
