package goodday

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperengineering/goodday/internal/gdapi"
	"github.com/hyperengineering/goodday/internal/observe"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Directory serves the Goodday project and user lists that name-based
// lookups resolve against. With a store it caches both lists for ttl;
// without one every call goes to the API. Concurrent misses share one fetch.
type Directory struct {
	api     gdapi.Client
	store   *Store
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	logger  *zap.Logger
	metrics *observe.Metrics
}

// NewDirectory creates a directory over api. store may be nil.
func NewDirectory(api gdapi.Client, store *Store, ttl time.Duration, logger *zap.Logger, metrics *observe.Metrics) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observe.Nop()
	}
	return &Directory{
		api:     api,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		metrics: metrics,
	}
}

// Projects returns every project, folder and sprint, archived ones included.
func (d *Directory) Projects(ctx context.Context) ([]Project, error) {
	if d.store != nil {
		cached, refreshed, err := d.store.Projects()
		if err != nil {
			d.logger.Warn("read cached projects", zap.Error(err))
		} else if d.fresh(refreshed) {
			d.metrics.RecordCache(ctx, "projects", true)
			return cached, nil
		}
	}
	d.metrics.RecordCache(ctx, "projects", false)

	return shared(ctx, &d.group, "projects", d.fetchProjects)
}

// Users returns every user of the organization.
func (d *Directory) Users(ctx context.Context) ([]User, error) {
	if d.store != nil {
		cached, refreshed, err := d.store.Users()
		if err != nil {
			d.logger.Warn("read cached users", zap.Error(err))
		} else if d.fresh(refreshed) {
			d.metrics.RecordCache(ctx, "users", true)
			return cached, nil
		}
	}
	d.metrics.RecordCache(ctx, "users", false)

	return shared(ctx, &d.group, "users", d.fetchUsers)
}

// shared runs fetch once for all concurrent callers of key. The fetch is
// detached from any one caller's cancellation; a caller whose ctx ends
// stops waiting without failing the others.
func shared[T any](ctx context.Context, group *singleflight.Group, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	ch := group.DoChan(key, func() (any, error) {
		return fetch(context.WithoutCancel(ctx))
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UserNames returns the id to name map of all users. A failure yields an
// empty map so callers fall back to bare ids.
func (d *Directory) UserNames(ctx context.Context) UserNames {
	users, err := d.Users(ctx)
	names := make(UserNames, len(users))
	if err != nil {
		d.logger.Debug("user names unavailable", zap.Error(err))
		return names
	}
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = "Unknown"
		}
		names[u.ID] = name
	}
	return names
}

// Refresh re-fetches projects and users concurrently, bypassing the TTL.
func (d *Directory) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := d.fetchProjects(gctx)
		return err
	})
	g.Go(func() error {
		_, err := d.fetchUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh directory: %w", err)
	}
	d.logger.Info("directory refreshed")
	return nil
}

func (d *Directory) fresh(refreshed time.Time) bool {
	return !refreshed.IsZero() && d.now().Sub(refreshed) < d.ttl
}

func (d *Directory) fetchProjects(ctx context.Context) ([]Project, error) {
	projects, err := d.api.ListProjects(ctx, gdapi.ProjectListOptions{Archived: true})
	if err != nil {
		return nil, err
	}
	if d.store != nil {
		if err := d.store.ReplaceProjects(projects, d.now()); err != nil {
			d.logger.Warn("cache projects", zap.Error(err))
		}
	}
	return projects, nil
}

func (d *Directory) fetchUsers(ctx context.Context) ([]User, error) {
	users, err := d.api.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if d.store != nil {
		if err := d.store.ReplaceUsers(users, d.now()); err != nil {
			d.logger.Warn("cache users", zap.Error(err))
		}
	}
	return users, nil
}
