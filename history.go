package goodday

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// RecordCall appends a tool invocation to the call history. Recording is
// best-effort: failures are logged and never returned.
func (c *Client) RecordCall(tool string, args map[string]any, elapsed time.Duration, isError bool) {
	if c.store == nil {
		return
	}

	raw := []byte("{}")
	if len(args) > 0 {
		b, err := json.Marshal(args)
		if err != nil {
			c.logger.Warn("encode call arguments", zap.String("tool", tool), zap.Error(err))
		} else {
			raw = b
		}
	}

	now := time.Now()
	rec := CallRecord{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Tool:      tool,
		Arguments: string(raw),
		Duration:  elapsed,
		IsError:   isError,
		CreatedAt: now,
	}
	if err := c.store.InsertCall(rec); err != nil {
		c.logger.Warn("record call", zap.String("tool", tool), zap.Error(err))
	}
}

// History returns up to limit recorded calls, newest first.
func (c *Client) History(limit int) ([]CallRecord, error) {
	if c.store == nil {
		return nil, ErrCacheDisabled
	}
	return c.store.RecentCalls(limit)
}
