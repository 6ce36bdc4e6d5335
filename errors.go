package goodday

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/goodday/internal/gdapi"
	"github.com/hyperengineering/goodday/internal/search"
)

// Common errors returned by the goodday client.
var (
	// ErrMissingToken is returned when no Goodday API token is configured.
	ErrMissingToken = errors.New("goodday API token is required, set GOODDAY_API_TOKEN")

	// ErrMissingSearchToken is returned when a search runs without a bearer token.
	ErrMissingSearchToken = search.ErrMissingToken

	// ErrEmptyQuery is returned when a search or smart query is blank.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrMissingArgument is returned when a required operation argument is blank.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrStoreClosed is returned when operating on a closed cache store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrCacheDisabled is returned by cache-only operations when no cache is configured.
	ErrCacheDisabled = errors.New("local cache is disabled")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// APIError is returned when a Goodday API call fails.
// Extractable via errors.As(). Supports Unwrap().
type APIError = gdapi.Error

// SearchResponseError is returned when the search proxy answers with an
// error object. Its message reads "Search error: <message>".
type SearchResponseError = search.ResponseError

// SearchFormatError is returned when a search response has no result list.
type SearchFormatError = search.FormatError

// maxAvailable is how many candidate names a NotFoundError lists.
const maxAvailable = 10

// NotFoundError is returned when a name-based lookup has no match.
// Kind is one of "project", "sprint", "user" or "task".
type NotFoundError struct {
	Kind      string
	Query     string
	Scope     string
	Available []string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case "project":
		return fmt.Sprintf("Project '%s' not found. Available projects: %s", e.Query, listAvailable(e.Available))
	case "user":
		return fmt.Sprintf("User '%s' not found. Available users: %s", e.Query, listAvailable(e.Available))
	case "sprint":
		if len(e.Available) == 0 {
			return fmt.Sprintf("No sprints found in project '%s'. Make sure the project contains sprint sub-projects.", e.Scope)
		}
		return fmt.Sprintf("Sprint '%s' not found in project '%s'. Available sprints: %s", e.Query, e.Scope, strings.Join(e.Available, ", "))
	case "task":
		return fmt.Sprintf("Task with short ID '%s' not found in project '%s'. Please verify the task ID and project name are correct.", e.Query, e.Scope)
	default:
		return fmt.Sprintf("%s '%s' not found", e.Kind, e.Query)
	}
}

func listAvailable(names []string) string {
	if len(names) <= maxAvailable {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:maxAvailable], ", ") + "..."
}
