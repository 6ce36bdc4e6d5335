package goodday

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperengineering/goodday/internal/store"
	_ "modernc.org/sqlite"
)

// Store manages the local SQLite cache of the Goodday directory and the
// tool call history.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewStore opens or creates a local cache store.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// ReplaceProjects atomically replaces the cached project list.
func (s *Store) ReplaceProjects(projects []Project, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return fmt.Errorf("store: clear projects: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO projects (id, name, system_type, parent_project_id, payload, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare project insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range projects {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("store: encode project %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(p.ID, p.Name, p.SystemType, p.ParentProjectID, string(payload), i); err != nil {
			return fmt.Errorf("store: insert project %s: %w", p.ID, err)
		}
	}

	if err := setMetadataTx(tx, "projects_refreshed_at", refreshedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

// Projects returns the cached project list in API order and the time it was
// stored. A zero time means the list has never been cached.
func (s *Store) Projects() ([]Project, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, time.Time{}, ErrStoreClosed
	}

	refreshed := s.metadataTime("projects_refreshed_at")
	if refreshed.IsZero() {
		return nil, refreshed, nil
	}

	rows, err := s.db.Query(`SELECT payload FROM projects ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, time.Time{}, err
		}
		var p Project
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, time.Time{}, fmt.Errorf("store: decode project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, refreshed, rows.Err()
}

// ReplaceUsers atomically replaces the cached user list.
func (s *Store) ReplaceUsers(users []User, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		return fmt.Errorf("store: clear users: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO users (id, name, email, payload, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare user insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range users {
		payload, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("store: encode user %s: %w", u.ID, err)
		}
		if _, err := stmt.Exec(u.ID, u.Name, u.Email, string(payload), i); err != nil {
			return fmt.Errorf("store: insert user %s: %w", u.ID, err)
		}
	}

	if err := setMetadataTx(tx, "users_refreshed_at", refreshedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

// Users returns the cached user list in API order and the time it was stored.
func (s *Store) Users() ([]User, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, time.Time{}, ErrStoreClosed
	}

	refreshed := s.metadataTime("users_refreshed_at")
	if refreshed.IsZero() {
		return nil, refreshed, nil
	}

	rows, err := s.db.Query(`SELECT payload FROM users ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, time.Time{}, err
		}
		var u User
		if err := json.Unmarshal([]byte(payload), &u); err != nil {
			return nil, time.Time{}, fmt.Errorf("store: decode user: %w", err)
		}
		users = append(users, u)
	}
	return users, refreshed, rows.Err()
}

// Invalidate drops the cached refresh times so the next lookup refetches.
func (s *Store) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.db.Exec(`DELETE FROM metadata WHERE key IN ('projects_refreshed_at', 'users_refreshed_at')`)
	return err
}

// InsertCall appends a record to the call history.
func (s *Store) InsertCall(rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	isError := 0
	if rec.IsError {
		isError = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO call_history (id, tool, arguments, duration_ms, is_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Tool, rec.Arguments, rec.Duration.Milliseconds(), isError, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: insert call: %w", err)
	}
	return nil
}

// RecentCalls returns up to limit history records, newest first.
func (s *Store) RecentCalls(limit int) ([]CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, tool, arguments, duration_ms, is_error, created_at
		FROM call_history ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CallRecord
	for rows.Next() {
		var (
			rec        CallRecord
			durationMS int64
			isError    int
			createdAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.Tool, &rec.Arguments, &durationMS, &isError, &createdAt); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.IsError = isError != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns cache statistics. TTL and Enabled are left for the caller.
func (s *Store) Stats() (*CacheStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &CacheStats{Enabled: true, Path: s.path}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&stats.Projects); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.Users); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM call_history").Scan(&stats.HistoryEntries); err != nil {
		return nil, err
	}
	stats.ProjectsRefreshed = s.metadataTime("projects_refreshed_at")
	stats.UsersRefreshed = s.metadataTime("users_refreshed_at")
	stats.SchemaVersion = s.metadata("schema_version")
	return stats, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// metadata reads a metadata value; callers hold s.mu.
func (s *Store) metadata(key string) string {
	var v sql.NullString
	_ = s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	return v.String
}

func (s *Store) metadataTime(key string) time.Time {
	v := s.metadata(key)
	if v == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func setMetadataTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: set metadata %s: %w", key, err)
	}
	return nil
}
