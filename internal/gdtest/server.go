// Package gdtest provides an in-process fake of the Goodday API and the
// search proxy for tests.
package gdtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Token is the API token the fake server accepts.
const Token = "test-token"

// SearchToken is the bearer token the fake search endpoint accepts.
const SearchToken = "search-token"

// Projects is the fixture project list: a project with two sprints, a
// folder, a tag and an unrelated project whose nested fields are not objects.
const Projects = `[
	{"id":"p-astra","name":"ASTRA","health":2,"status":{"id":"st1","name":"Active"},"startDate":"2026-01-01","endDate":"2026-12-31","progress":40,"owner":{"id":"u1","name":"Jane Doe"},"systemType":"PROJECT"},
	{"id":"s-232","name":"Sprint 232","systemType":"PROJECT","parentProjectId":"p-astra"},
	{"id":"s-233","name":"Sprint 233","systemType":"PROJECT","parentProjectId":"p-astra"},
	{"id":"f-docs","name":"Knowledge Base","systemType":"FOLDER"},
	{"id":"tag-1","name":"Backend tag","systemType":"TAG"},
	{"id":"p-orion","name":"Orion","status":"ACTIVE","owner":7,"systemType":"PROJECT"}
]`

// Users is the fixture user list.
const Users = `[
	{"id":"u1","name":"Jane Doe","email":"jane@example.com","role":{"id":"r1","name":"Admin"},"status":1},
	{"id":"u2","name":"Roney Dsilva","email":"roney@example.com","role":{"id":"r2","name":"Member"},"status":1}
]`

const astraTasks = `[
	{"id":"t-434","shortId":"RAD-434","name":"Fix login","status":{"id":"x","name":"In Progress"},"project":{"id":"p-astra","name":"ASTRA"},"assignedToUserId":"u1","priority":3,"startDate":"2026-03-01","message":"Login fails on Safari"},
	{"id":"t-435","shortId":"RAD-435","name":"Write docs","project":{"id":"p-astra","name":"ASTRA"}}
]`

const sprintTasks = `[
	{"id":"t-1","shortId":"RAD-1","name":"Plan","status":{"name":"Done"},"assignedToUserId":"u1","message":"Sprint planning"},
	{"id":"t-2","shortId":"RAD-2","name":"Build","status":{"name":"In Progress"},"assignedToUserId":"u1"},
	{"id":"t-3","shortId":"RAD-3","name":"Ship","status":{"name":"Done"}}
]`

const taskDetail = `{
	"id":"t-434","shortId":"RAD-434","name":"Fix login","status":{"id":"x","name":"In Progress"},
	"taskType":{"id":"tt","name":"Bug"},"systemStatus":2,"systemType":1,"priority":3,
	"assignedToUserId":"u1","actionRequiredUserId":"u2","createdByUserId":"u9",
	"startDate":"2026-03-01","estimate":120,"users":["u1","u2"],
	"subtasks":["t-500",{"id":"t-501","shortId":"RAD-501","name":"Repro"}],
	"customFieldsData":{"cf1":"High","cf2":5}
}`

const messages = `[
	{"id":"m1","dateCreated":"2026-03-02T10:00:00Z","fromUserId":"u1","toUserId":"u2","message":"Can you check Safari?"},
	{"id":"m2","dateCreated":"2026-03-02T11:00:00Z","fromUserId":"u2","message":"On it"}
]`

const documents = `[
	{"id":"d1","name":"Database design","projectId":"p-astra"},
	{"id":"d2","name":"Release notes","projectId":"p-astra"}
]`

const documentD1 = `{"id":"d1","name":"Database design","content":"<h1>Database design</h1><p>We use <b>SQLite</b> for the local cache &amp; goose for migrations.</p>"}`

// SearchResponse is the fixture search proxy response. RAD-434 appears twice
// with different content.
const SearchResponse = `[{"result":[
	{"taskId":"RAD-434","title":"Fix login","content":"Login fails on Safari","score":0.9},
	{"taskId":"RAD-434","title":"Fix login","content":"Cookie is dropped","score":0.8},
	{"taskId":"RAD-12","title":"Security review","content":"","score":0.5}
]}]`

// Server is a fake Goodday API. Paths are relative to URL.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	queries  map[string]string
	bodies   map[string][]byte
	failures map[string]int
	search   string
}

// NewServer starts a fake Goodday API and search proxy. The search proxy
// answers at URL + "/search". The server is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		hits:     make(map[string]int),
		queries:  make(map[string]string),
		bodies:   make(map[string][]byte),
		failures: make(map[string]int),
		search:   SearchResponse,
	}

	mux := http.NewServeMux()
	s.handle(mux, "GET /projects", Projects)
	s.handle(mux, "GET /project/p-astra", `{"id":"p-astra","name":"ASTRA","systemType":"PROJECT"}`)
	s.handle(mux, "GET /project/p-astra/tasks", astraTasks)
	s.handle(mux, "GET /project/s-233/tasks", sprintTasks)
	s.handle(mux, "GET /project/p-orion/tasks", `[{"id":"t-9","shortId":"ORI-9","name":"Scan","status":"OPEN","project":"p-orion"}]`)
	s.handle(mux, "GET /project/s-232/tasks", `[]`)
	s.handle(mux, "GET /project/p-astra/documents", documents)
	s.handle(mux, "GET /document/d1", documentD1)
	s.handle(mux, "GET /users", Users)
	s.handle(mux, "GET /user/u1", `{"id":"u1","name":"Jane Doe","email":"jane@example.com"}`)
	s.handle(mux, "GET /user/u1/assigned-tasks", astraTasks)
	s.handle(mux, "GET /user/u2/assigned-tasks", `[]`)
	s.handle(mux, "GET /task/t-434", taskDetail)
	s.handle(mux, "GET /task/t-434/messages", messages)
	s.handle(mux, "POST /projects/new-project", `{"id":"p-new","name":"Apollo","systemType":"PROJECT"}`)
	s.handle(mux, "POST /tasks", `{"id":"t-new","shortId":"RAD-900","name":"New task"}`)

	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		s.record(r, "GET /search")
		if r.Header.Get("Authorization") != "Bearer "+SearchToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		s.mu.Lock()
		body := s.search
		s.mu.Unlock()
		_, _ = io.WriteString(w, body)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) handle(mux *http.ServeMux, pattern, body string) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.record(r, pattern)
		if r.Header.Get("gd-api-token") != Token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid token"}`)
			return
		}
		if s.fail(pattern) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "upstream exploded")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func (s *Server) record(r *http.Request, pattern string) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[pattern]++
	s.queries[pattern] = r.URL.RawQuery
	if len(body) > 0 {
		s.bodies[pattern] = body
	}
}

func (s *Server) fail(pattern string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[pattern] > 0 {
		s.failures[pattern]--
		return true
	}
	return false
}

// FailNext makes the next n requests matching pattern answer 500.
func (s *Server) FailNext(pattern string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[pattern] = n
}

// SetSearchResponse replaces the body the search proxy answers with.
func (s *Server) SetSearchResponse(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = body
}

// Hits returns how often pattern (e.g. "GET /projects") was requested.
func (s *Server) Hits(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[pattern]
}

// Query returns the raw query string of the last request matching pattern.
func (s *Server) Query(pattern string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[pattern]
}

// Body decodes the JSON body of the last request matching pattern.
func (s *Server) Body(pattern string) map[string]any {
	s.mu.Lock()
	raw := s.bodies[pattern]
	s.mu.Unlock()

	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return m
}

// SearchURL is the fake search proxy endpoint.
func (s *Server) SearchURL() string {
	return s.URL + "/search"
}
