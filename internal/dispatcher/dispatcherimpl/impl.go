package dispatcherimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/fx"

	"telecast/internal/dispatcher"
	"telecast/internal/domain"
	"telecast/internal/repositories/post"
	"telecast/internal/schedule"
	"telecast/internal/sender"
	"telecast/pkg/config"
	apperrors "telecast/pkg/errors"
	"telecast/pkg/logger"
)

type Opts struct {
	fx.In

	PostRepo post.Repository
	Sender   sender.Adapter
	Logger   logger.Logger
	Config   *config.Config
}

type DispatcherImpl struct {
	PostRepo post.Repository
	Sender   sender.Adapter
	Logger   logger.Logger
	Config   *config.Config

	// Per-post mutual exclusion held across read-status -> send -> write-status,
	// so a manual send racing the periodic scan can never double-deliver.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Consecutive schedule-resolution failures per post. Scan-local state:
	// reset whenever resolution succeeds or the post reaches a terminal state.
	failuresMu      sync.Mutex
	resolveFailures map[string]int

	pool *ants.Pool
}

func New(opts Opts) *DispatcherImpl {
	return &DispatcherImpl{
		PostRepo:        opts.PostRepo,
		Sender:          opts.Sender,
		Logger:          opts.Logger.WithComponent("Dispatcher"),
		Config:          opts.Config,
		locks:           make(map[string]*sync.Mutex),
		resolveFailures: make(map[string]int),
	}
}

var _ dispatcher.Client = (*DispatcherImpl)(nil)

// Start schedules the periodic scan and wires a clean shutdown to ctx.
func (d *DispatcherImpl) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	pool, err := ants.NewPool(d.Config.Scheduler.Workers, ants.WithPreAlloc(true))
	if err != nil {
		return fmt.Errorf("failed to create dispatch pool: %w", err)
	}
	d.pool = pool

	_, err = scheduler.NewJob(
		gocron.DurationJob(d.Config.Scheduler.ScanInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				d.Logger.Info("Context cancelled, stopping dispatch scan")
				return
			}
			d.Scan(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule dispatch scan: %w", err)
	}

	scheduler.Start()
	d.Logger.Info("Dispatch loop started", "interval", d.Config.Scheduler.ScanInterval)

	go func() {
		<-ctx.Done()
		d.Logger.Info("Stopping dispatch scheduler")
		if err := scheduler.Shutdown(); err != nil {
			d.Logger.Error("Failed to shut down dispatch scheduler", "error", err)
		}
		pool.Release()
	}()

	return nil
}

// Scan walks all scheduled posts, resolves their instants and hands due
// ones to the worker pool. Faults local to one post never abort the scan.
func (d *DispatcherImpl) Scan(ctx context.Context) {
	now := time.Now()

	posts, err := d.PostRepo.List(ctx)
	if err != nil {
		d.Logger.Error("Failed to list posts for scan", "error", err)
		return
	}

	for _, p := range posts {
		if p.Status != domain.StatusScheduled {
			d.clearResolveFailures(p.ID)
			continue
		}

		due, err := schedule.Resolve(p.Date, p.Time, p.Timezone)
		if err != nil {
			d.noteResolveFailure(ctx, p, err)
			continue
		}
		d.clearResolveFailures(p.ID)

		if due.After(now) {
			continue
		}

		id := p.ID
		if err := d.submit(ctx, id); err != nil {
			d.Logger.Error("Failed to submit dispatch job", "post_id", id, "error", err)
		}
	}
}

func (d *DispatcherImpl) submit(ctx context.Context, id string) error {
	if d.pool == nil {
		// No pool outside a started loop; deliver inline.
		_, err := d.deliver(ctx, id)
		return err
	}
	return d.pool.Submit(func() {
		if _, err := d.deliver(ctx, id); err != nil {
			d.Logger.Error("Dispatch failed", "post_id", id, "error", err)
		}
	})
}

// SendNow runs the identical delivery path outside the periodic scan.
func (d *DispatcherImpl) SendNow(ctx context.Context, id string) (*domain.Post, error) {
	d.Logger.Info("Manual send requested", "post_id", id)
	return d.deliver(ctx, id)
}

// deliver holds the post's lock for the whole read-send-write sequence.
// A caller that finds the post already terminal short-circuits without
// touching the transport, which makes concurrent send attempts idempotent.
func (d *DispatcherImpl) deliver(ctx context.Context, id string) (*domain.Post, error) {
	mu := d.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	p, err := d.PostRepo.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, post.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("post %q", id))
		}
		return nil, err
	}

	if p.Status != domain.StatusScheduled {
		d.Logger.Debug("Post already in terminal state, skipping send", "post_id", id, "status", p.Status)
		return p, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.Config.Scheduler.SendTimeout)
	defer cancel()

	outcome := d.Sender.Send(sendCtx, *p)

	var upd post.StatusUpdate
	if outcome.OK {
		now := time.Now().UTC()
		upd = post.StatusUpdate{Status: domain.StatusSent, SentAt: &now}
		d.Logger.Info("Post delivered", "post_id", id, "channel_id", p.ChannelID)
	} else {
		upd = post.StatusUpdate{Status: domain.StatusFailed, Error: outcome.PlatformError}
		d.Logger.Warn("Post delivery failed", "post_id", id, "channel_id", p.ChannelID, "error", outcome.PlatformError)
	}

	if err := d.PostRepo.UpdateStatus(ctx, id, upd); err != nil {
		return nil, err
	}
	d.clearResolveFailures(id)

	p.Status = upd.Status
	p.Error = upd.Error
	p.SentAt = upd.SentAt
	return p, nil
}

// noteResolveFailure counts consecutive resolution faults for a post.
// The post stays scheduled (the fault may be transient misconfiguration);
// once the configured cap is hit it is marked failed so it cannot starve
// silently forever. A cap of zero disables the transition.
func (d *DispatcherImpl) noteResolveFailure(ctx context.Context, p *domain.Post, resolveErr error) {
	d.failuresMu.Lock()
	d.resolveFailures[p.ID]++
	count := d.resolveFailures[p.ID]
	d.failuresMu.Unlock()

	limit := d.Config.Scheduler.MaxResolveFailures
	d.Logger.Warn("Cannot resolve post schedule",
		"post_id", p.ID, "date", p.Date, "time", p.Time, "timezone", p.Timezone,
		"consecutive_failures", count, "error", resolveErr)

	if limit <= 0 || count < limit {
		return
	}

	upd := post.StatusUpdate{
		Status: domain.StatusFailed,
		Error:  fmt.Sprintf("schedule resolution failed %d times: %v", count, resolveErr),
	}
	if err := d.PostRepo.UpdateStatus(ctx, p.ID, upd); err != nil {
		d.Logger.Error("Failed to mark unresolvable post", "post_id", p.ID, "error", err)
		return
	}
	d.clearResolveFailures(p.ID)
	d.Logger.Error("Post marked failed after repeated resolution faults", "post_id", p.ID, "failures", count)
}

func (d *DispatcherImpl) clearResolveFailures(id string) {
	d.failuresMu.Lock()
	delete(d.resolveFailures, id)
	d.failuresMu.Unlock()
}

func (d *DispatcherImpl) lockFor(id string) *sync.Mutex {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()

	mu, ok := d.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		d.locks[id] = mu
	}
	return mu
}
