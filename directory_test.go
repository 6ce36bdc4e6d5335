package goodday

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperengineering/goodday/internal/gdapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAPI is a gdapi.Client serving fixed lists and counting fetches.
type countingAPI struct {
	gdapi.Client

	projectCalls atomic.Int32
	userCalls    atomic.Int32
	gate         chan struct{}
	err          error
}

func (a *countingAPI) ListProjects(ctx context.Context, opts gdapi.ProjectListOptions) ([]Project, error) {
	a.projectCalls.Add(1)
	if a.gate != nil {
		<-a.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.err != nil {
		return nil, a.err
	}
	if !opts.Archived {
		return nil, errors.New("directory must include archived projects")
	}
	return []Project{{ID: "p1", Name: "ASTRA", SystemType: SystemTypeProject}}, nil
}

func (a *countingAPI) ListUsers(ctx context.Context) ([]User, error) {
	a.userCalls.Add(1)
	if a.err != nil {
		return nil, a.err
	}
	return []User{{ID: "u1", Name: "Jane"}, {ID: "u2"}}, nil
}

func TestDirectory_TTL(t *testing.T) {
	api := &countingAPI{}
	d := NewDirectory(api, newTestStore(t), time.Minute, nil, nil)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := d.Projects(ctx)
	require.NoError(t, err)
	_, err = d.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.projectCalls.Load(), "second call within TTL should hit the cache")

	now = now.Add(2 * time.Minute)
	projects, err := d.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.projectCalls.Load(), "expired entry should refetch")
	assert.Equal(t, "ASTRA", projects[0].Name)
}

func TestDirectory_NoStorePassesThrough(t *testing.T) {
	api := &countingAPI{}
	d := NewDirectory(api, nil, time.Hour, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := d.Users(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), api.userCalls.Load())
}

func TestDirectory_ConcurrentMissesShareFetch(t *testing.T) {
	api := &countingAPI{gate: make(chan struct{})}
	d := NewDirectory(api, nil, time.Hour, nil, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Projects(context.Background())
			errs <- err
		}()
	}

	// Let every caller reach the shared fetch before releasing it.
	require.Eventually(t, func() bool { return api.projectCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.projectCalls.Load())
}

func TestDirectory_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	api := &countingAPI{gate: make(chan struct{})}
	d := NewDirectory(api, nil, time.Hour, nil, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := d.Projects(firstCtx)
		first <- err
	}()
	require.Eventually(t, func() bool { return api.projectCalls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		projects []Project
		err      error
	}
	second := make(chan result, 1)
	go func() {
		projects, err := d.Projects(context.Background())
		second <- result{projects, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	close(api.gate)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		require.Len(t, r.projects, 1)
		assert.Equal(t, "ASTRA", r.projects[0].Name)
	case <-time.After(time.Second):
		t.Fatal("second caller never received the shared fetch")
	}
	assert.Equal(t, int32(1), api.projectCalls.Load())
}

func TestDirectory_UserNames(t *testing.T) {
	d := NewDirectory(&countingAPI{}, nil, time.Hour, nil, nil)

	names := d.UserNames(context.Background())
	assert.Equal(t, UserNames{"u1": "Jane", "u2": "Unknown"}, names)
}

func TestDirectory_UserNames_ErrorYieldsEmptyMap(t *testing.T) {
	d := NewDirectory(&countingAPI{err: errors.New("boom")}, nil, time.Hour, nil, nil)

	names := d.UserNames(context.Background())
	assert.NotNil(t, names)
	assert.Empty(t, names)
	assert.Equal(t, "u1", names.Display("u1"))
}

func TestDirectory_RefreshWritesThrough(t *testing.T) {
	api := &countingAPI{}
	store := newTestStore(t)
	d := NewDirectory(api, store, time.Hour, nil, nil)

	require.NoError(t, d.Refresh(context.Background()))

	projects, refreshed, err := store.Projects()
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.False(t, refreshed.IsZero())

	users, _, err := store.Users()
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDirectory_RefreshError(t *testing.T) {
	d := NewDirectory(&countingAPI{err: errors.New("boom")}, nil, time.Hour, nil, nil)

	err := d.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh directory")
}

func TestDirectory_ScheduleRejectsBadSpec(t *testing.T) {
	d := NewDirectory(&countingAPI{}, nil, time.Hour, nil, nil)

	_, err := d.Schedule("not a cron")
	assert.Error(t, err)
}
