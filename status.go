package goodday

import "context"

// StatusFunc receives progress lines while an operation runs. done is true
// for the final line of an operation.
type StatusFunc func(ctx context.Context, message string, done bool)

type statusKey struct{}

// WithStatus returns a context that delivers progress lines to fn.
func WithStatus(ctx context.Context, fn StatusFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, statusKey{}, fn)
}

// reportStatus sends a progress line to the reporter carried by ctx, if any.
func reportStatus(ctx context.Context, message string, done bool) {
	if fn, ok := ctx.Value(statusKey{}).(StatusFunc); ok {
		fn(ctx, message, done)
	}
}

// ReportStatus sends a progress line to the reporter carried by ctx. Adapters
// use it to report outcomes the client does not see, such as formatted failures.
func ReportStatus(ctx context.Context, message string, done bool) {
	reportStatus(ctx, message, done)
}
