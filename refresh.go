package goodday

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// refreshTimeout bounds one scheduled directory refresh.
const refreshTimeout = 30 * time.Second

// Schedule refreshes the directory on the given standard cron spec until the
// returned stop function is called. stop waits for a running refresh.
func (d *Directory) Schedule(spec string) (stop func(), err error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := d.Refresh(ctx); err != nil {
			d.logger.Warn("scheduled refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", spec, err)
	}
	c.Start()
	d.logger.Info("scheduled directory refresh", zap.String("schedule", spec))

	return func() {
		<-c.Stop().Done()
	}, nil
}
