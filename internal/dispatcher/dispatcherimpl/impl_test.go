package dispatcherimpl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecast/internal/dispatcher/dispatcherimpl"
	"telecast/internal/domain"
	"telecast/internal/repositories/post"
	"telecast/internal/sender"
	"telecast/pkg/config"
	apperrors "telecast/pkg/errors"
	"telecast/pkg/logger"
)

type fakeSender struct {
	mu      sync.Mutex
	calls   []string
	outcome sender.Outcome
}

func (f *fakeSender) Send(_ context.Context, p domain.Post) sender.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.ID)
	return f.outcome
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.ScanInterval = time.Second
	cfg.Scheduler.SendTimeout = 5 * time.Second
	cfg.Scheduler.Workers = 2
	cfg.Scheduler.AllowReschedule = true
	cfg.Scheduler.MaxResolveFailures = 3
	return cfg
}

func newDispatcher(repo post.Repository, snd sender.Adapter, cfg *config.Config) *dispatcherimpl.DispatcherImpl {
	return dispatcherimpl.New(dispatcherimpl.Opts{
		PostRepo: repo,
		Sender:   snd,
		Logger:   logger.New(logger.Opts{Env: "production"}),
		Config:   cfg,
	})
}

func scheduledPost(id, date, clock string) domain.Post {
	return domain.Post{
		ID:        id,
		ChannelID: "@news",
		Date:      date,
		Time:      clock,
		Timezone:  "UTC",
		Text:      "hello",
		Status:    domain.StatusScheduled,
	}
}

func pastPost(id string) domain.Post {
	due := time.Now().UTC().Add(-time.Minute)
	return scheduledPost(id, due.Format("2006-01-02"), due.Format("15:04"))
}

func futurePost(id string) domain.Post {
	due := time.Now().UTC().Add(time.Hour)
	return scheduledPost(id, due.Format("2006-01-02"), due.Format("15:04"))
}

func TestScanDeliversDuePost(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, pastPost("due"))
	require.NoError(t, err)

	d.Scan(ctx)

	got, err := repo.Get(ctx, "due")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, got.Status)
	require.NotNil(t, got.SentAt)
	assert.Equal(t, 1, snd.callCount())
}

func TestScanSkipsFuturePost(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, futurePost("later"))
	require.NoError(t, err)

	d.Scan(ctx)

	got, err := repo.Get(ctx, "later")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)
	assert.Zero(t, snd.callCount())
}

func TestScanDeliversEachDuePostOnce(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, pastPost("due"))
	require.NoError(t, err)

	// Repeated scans must not re-send an already delivered post.
	d.Scan(ctx)
	d.Scan(ctx)
	d.Scan(ctx)

	assert.Equal(t, 1, snd.callCount())
}

func TestScanRecordsFailedDelivery(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{PlatformError: "chat not found"}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, pastPost("doomed"))
	require.NoError(t, err)

	d.Scan(ctx)

	got, err := repo.Get(ctx, "doomed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "chat not found", got.Error)
	assert.Nil(t, got.SentAt)

	// Failed is terminal: later scans leave it alone.
	d.Scan(ctx)
	assert.Equal(t, 1, snd.callCount())
}

func TestScanIsolatesBadSchedules(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	broken := pastPost("broken")
	broken.Timezone = "Not/AZone"
	_, err := repo.Put(ctx, broken)
	require.NoError(t, err)
	_, err = repo.Put(ctx, pastPost("fine"))
	require.NoError(t, err)

	d.Scan(ctx)

	got, err := repo.Get(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, got.Status)

	got, err = repo.Get(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)
}

func TestScanMarksPostFailedAfterRepeatedResolutionFaults(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	cfg := testConfig()
	cfg.Scheduler.MaxResolveFailures = 3
	d := newDispatcher(repo, snd, cfg)
	ctx := context.Background()

	broken := pastPost("broken")
	broken.Timezone = "Not/AZone"
	_, err := repo.Put(ctx, broken)
	require.NoError(t, err)

	d.Scan(ctx)
	d.Scan(ctx)

	got, err := repo.Get(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)

	d.Scan(ctx)

	got, err = repo.Get(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "schedule resolution failed")
	assert.Zero(t, snd.callCount())
}

func TestResolutionFaultCounterResetsOnSuccess(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	cfg := testConfig()
	cfg.Scheduler.MaxResolveFailures = 2
	d := newDispatcher(repo, snd, cfg)
	ctx := context.Background()

	broken := futurePost("flaky")
	broken.Timezone = "Not/AZone"
	_, err := repo.Put(ctx, broken)
	require.NoError(t, err)

	d.Scan(ctx)

	// The schedule gets fixed before the cap is reached.
	fixed := futurePost("flaky")
	_, err = repo.Put(ctx, fixed)
	require.NoError(t, err)
	d.Scan(ctx)

	// Break it again: the counter starts over instead of carrying the old fault.
	broken = futurePost("flaky")
	broken.Timezone = "Not/AZone"
	_, err = repo.Put(ctx, broken)
	require.NoError(t, err)
	d.Scan(ctx)

	got, err := repo.Get(ctx, "flaky")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)
}

func TestSendNowDeliversRegardlessOfSchedule(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, futurePost("early"))
	require.NoError(t, err)

	p, err := d.SendNow(ctx, "early")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, p.Status)
	require.NotNil(t, p.SentAt)
	assert.Equal(t, 1, snd.callCount())
}

func TestSendNowIsIdempotent(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, futurePost("once"))
	require.NoError(t, err)

	first, err := d.SendNow(ctx, "once")
	require.NoError(t, err)
	second, err := d.SendNow(ctx, "once")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSent, first.Status)
	assert.Equal(t, domain.StatusSent, second.Status)
	assert.Equal(t, 1, snd.callCount())
}

func TestSendNowConcurrentCallsDeliverOnce(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	snd := &fakeSender{outcome: sender.Outcome{OK: true}}
	d := newDispatcher(repo, snd, testConfig())
	ctx := context.Background()

	_, err := repo.Put(ctx, futurePost("contended"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.SendNow(ctx, "contended")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, snd.callCount())
}

func TestSendNowUnknownPost(t *testing.T) {
	repo := post.NewMemory(logger.New(logger.Opts{Env: "production"}))
	d := newDispatcher(repo, &fakeSender{}, testConfig())

	_, err := d.SendNow(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
