package goodday

import (
	"regexp"
	"strings"
)

var numberRe = regexp.MustCompile(`\d+`)

// findProject resolves a project by name, case-insensitively. An exact name
// match wins over the first containment match in either direction. Projects
// with blank names never match.
func findProject(projects []Project, query string) (Project, bool) {
	q := normalize(query)
	if q == "" {
		return Project{}, false
	}
	var partial *Project
	for i := range projects {
		name := normalize(projects[i].Name)
		if name == "" {
			continue
		}
		if name == q {
			return projects[i], true
		}
		if partial == nil && (strings.Contains(name, q) || strings.Contains(q, name)) {
			partial = &projects[i]
		}
	}
	if partial != nil {
		return *partial, true
	}
	return Project{}, false
}

// findDocumentProject resolves a project by name among PROJECT and FOLDER
// items only, so tags and system items never match.
func findDocumentProject(projects []Project, query string) (Project, []Project, bool) {
	var candidates []Project
	for _, p := range projects {
		if p.SystemType == SystemTypeProject || p.SystemType == SystemTypeFolder {
			candidates = append(candidates, p)
		}
	}
	p, ok := findProject(candidates, query)
	return p, candidates, ok
}

// findSprint resolves a sprint of parent by name. Sprints are PROJECT items
// whose name starts with "sprint"; when any of them are children of parent
// the search is limited to those. A sprint with the same first number or the
// same normalised name beats one whose name merely contains the number or the
// query. Returns the candidate sprint names for error reporting.
func findSprint(projects []Project, parent Project, query string) (Project, []string, bool) {
	var all, children []Project
	for _, p := range projects {
		if p.SystemType != SystemTypeProject || !strings.HasPrefix(normalize(p.Name), "sprint") {
			continue
		}
		all = append(all, p)
		if p.ParentProjectID == parent.ID {
			children = append(children, p)
		}
	}
	candidates := all
	if len(children) > 0 {
		candidates = children
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}

	want := normalize(query)
	if !strings.HasPrefix(want, "sprint") {
		want = "sprint " + want
	}
	wantNum := numberRe.FindString(want)

	// A number match always takes the exact slot, so the last one wins. The
	// other rules only fill an empty slot.
	var exact, substring *Project
	for i := range candidates {
		c := &candidates[i]
		name := normalize(c.Name)
		switch {
		case wantNum != "" && numberRe.FindString(name) == wantNum:
			exact = c
		case wantNum != "" && strings.Contains(name, wantNum):
			if substring == nil {
				substring = c
			}
		case name == want:
			if exact == nil {
				exact = c
			}
		case strings.Contains(name, want) || strings.Contains(want, name):
			if substring == nil {
				substring = c
			}
		}
	}
	for _, p := range []*Project{exact, substring} {
		if p != nil {
			return *p, names, true
		}
	}
	return Project{}, names, false
}

// findUser resolves a user by name or email, case-insensitively. Exact
// matches win over containment matches.
func findUser(users []User, query string) (User, bool) {
	q := normalize(query)
	if q == "" {
		return User{}, false
	}
	var partial *User
	for i := range users {
		name := normalize(users[i].Name)
		email := normalize(users[i].Email)
		if (name != "" && name == q) || (email != "" && email == q) {
			return users[i], true
		}
		if partial == nil && ((name != "" && strings.Contains(name, q)) || (email != "" && strings.Contains(email, q))) {
			partial = &users[i]
		}
	}
	if partial != nil {
		return *partial, true
	}
	return User{}, false
}

// findTaskByShortID finds a task by its short id, comparing upper-cased.
func findTaskByShortID(tasks []Task, shortID string) (Task, bool) {
	want := strings.ToUpper(strings.TrimSpace(shortID))
	for _, t := range tasks {
		if strings.ToUpper(t.ShortID) == want {
			return t, true
		}
	}
	return Task{}, false
}

func projectNames(projects []Project) []string {
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}
	return names
}

func userNames(users []User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
