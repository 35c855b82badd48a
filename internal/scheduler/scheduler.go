// Package scheduler decides when the device runs a full sync.
//
// Every trigger funnels into one guarded routine: at most one full sync is in
// flight, and non-manual triggers closer than MinGap to the previous attempt are
// dropped. Dropped triggers are not queued; the next trigger simply tries again.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/ironlog/internal/syncengine"
)

// Status is the outcome shown for the most recent sync attempt.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var (
	// ErrSyncInFlight is returned when a trigger is dropped because a sync is running.
	ErrSyncInFlight = errors.New("sync already in progress")
	// ErrRateLimited is returned when a trigger comes too soon after the last attempt.
	ErrRateLimited = errors.New("sync attempted too recently")
	// ErrSignedOut is returned for triggers issued while no user is signed in.
	ErrSignedOut = errors.New("not signed in")
)

// Syncer is the sync work the scheduler drives. *syncengine.Replica implements it.
type Syncer interface {
	FullSync(ctx context.Context) error
	PushPending(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Options tunes the scheduler.
type Options struct {
	Interval    time.Duration // periodic full sync while signed in
	MinGap      time.Duration // minimum time between non-manual attempts
	SignInDelay time.Duration // wait after sign-in before the first sync
	PushTimeout time.Duration // bound on the post-workout push
}

// DefaultOptions returns the production timings.
func DefaultOptions() Options {
	return Options{
		Interval:    5 * time.Minute,
		MinGap:      60 * time.Second,
		SignInDelay: 2 * time.Second,
		PushTimeout: 30 * time.Second,
	}
}

// Scheduler owns the in-flight guard and last-attempt timestamp for one device.
// Sign-out resets both.
type Scheduler struct {
	syncer Syncer
	opts   Options
	log    *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	signedIn    bool
	syncing     bool
	idle        *sync.Cond // signalled when syncing drops to false
	lastAttempt time.Time
	lastSuccess time.Time
	status      Status
	lastErr     error
	stop        context.CancelFunc

	wg sync.WaitGroup
}

// New creates an idle, signed-out scheduler.
func New(syncer Syncer, opts Options, log *slog.Logger) *Scheduler {
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = DefaultOptions().PushTimeout
	}
	s := &Scheduler{
		syncer: syncer,
		opts:   opts,
		log:    log,
		now:    time.Now,
		status: StatusIdle,
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// SetClock replaces the time source used for the rate limit.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SignIn starts the sign-in sync (after SignInDelay) and the periodic timer.
// Further calls are ignored until SignOut.
func (s *Scheduler) SignIn(ctx context.Context) {
	s.mu.Lock()
	if s.signedIn {
		s.mu.Unlock()
		return
	}
	s.signedIn = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(loopCtx)
	}()
}

func (s *Scheduler) run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.opts.SignInDelay):
	}
	s.background(ctx, "sign-in")

	if s.opts.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.background(ctx, "periodic")
		}
	}
}

// background runs a non-manual trigger whose outcome nobody waits for.
func (s *Scheduler) background(ctx context.Context, trigger string) {
	err := s.trigger(ctx, false)
	if errors.Is(err, ErrSyncInFlight) || errors.Is(err, ErrRateLimited) {
		s.log.Debug("sync trigger dropped", "trigger", trigger, "reason", err)
	}
}

// SignOut stops the timers, waits for a sync already in flight, resets the
// guard and discards the cached watermark so the next sign-in pulls everything.
func (s *Scheduler) SignOut(ctx context.Context) error {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.signedIn = false
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.wg.Wait()

	s.mu.Lock()
	for s.syncing {
		s.idle.Wait()
	}
	s.lastAttempt = time.Time{}
	s.status = StatusIdle
	s.lastErr = nil
	s.mu.Unlock()

	return s.syncer.Reset(ctx)
}

// Foreground is called when the app becomes visible again.
func (s *Scheduler) Foreground(ctx context.Context) error {
	return s.trigger(ctx, false)
}

// Manual runs a user-requested sync. It skips the gap check but never runs
// alongside another sync.
func (s *Scheduler) Manual(ctx context.Context) error {
	return s.trigger(ctx, true)
}

// PushAfterWorkout pushes pending changes in the background right after a
// workout completes. Failures are logged and otherwise ignored.
func (s *Scheduler) PushAfterWorkout(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PushTimeout)
		defer cancel()
		n, err := s.syncer.PushPending(ctx)
		if err != nil {
			s.log.Warn("post-workout push failed", "error", err)
			return
		}
		s.log.Debug("post-workout push", "records", n)
	}()
}

func (s *Scheduler) trigger(ctx context.Context, manual bool) error {
	s.mu.Lock()
	if !s.signedIn {
		s.mu.Unlock()
		return ErrSignedOut
	}
	if s.syncing {
		s.mu.Unlock()
		return ErrSyncInFlight
	}
	now := s.now()
	if !manual && !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.opts.MinGap {
		s.mu.Unlock()
		return ErrRateLimited
	}
	s.syncing = true
	s.lastAttempt = now
	s.status = StatusSyncing
	s.mu.Unlock()

	err := s.syncer.FullSync(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = false
	s.idle.Broadcast()
	switch {
	case err == nil:
		s.status = StatusSuccess
		s.lastErr = nil
		s.lastSuccess = s.now()
	case errors.Is(err, syncengine.ErrNotConfigured):
		// Sync is off for this deployment; nothing to show.
		s.status = StatusIdle
		s.lastErr = nil
		return nil
	default:
		s.status = StatusError
		s.lastErr = err
		s.log.Error("sync failed", "error", err)
	}
	return err
}

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	Status      Status
	Err         error
	LastAttempt time.Time
	LastSuccess time.Time
}

// State returns the current status.
func (s *Scheduler) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Status: s.status, Err: s.lastErr, LastAttempt: s.lastAttempt, LastSuccess: s.lastSuccess}
}

// Close stops the timers and waits for background work, including post-workout pushes.
func (s *Scheduler) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.wg.Wait()
}
