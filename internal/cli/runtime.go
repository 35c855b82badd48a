package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/meltforce/ironlog/internal/achievements"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/devicestore"
	"github.com/meltforce/ironlog/internal/progression"
	"github.com/meltforce/ironlog/internal/scheduler"
	"github.com/meltforce/ironlog/internal/syncclient"
	"github.com/meltforce/ironlog/internal/syncengine"
)

// runtime is everything a device command works with.
type runtime struct {
	cfg          *config.DeviceConfig
	store        *devicestore.Store
	history      *devicestore.History
	advisor      *progression.Advisor
	achievements *achievements.Evaluator
	replica      *syncengine.Replica
	log          *slog.Logger
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openRuntime loads the device config and opens the device store.
func openRuntime(ctx context.Context, opts *RootOptions, logOut io.Writer) (*runtime, error) {
	log := newLogger(logOut, opts.Verbose)

	cfg, err := config.LoadDevice(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return openRuntimeWith(ctx, cfg, log)
}

func openRuntimeWith(ctx context.Context, cfg *config.DeviceConfig, log *slog.Logger) (*runtime, error) {
	store, err := devicestore.Open(ctx, cfg.StateDir)
	if err != nil {
		return nil, err
	}

	deviceID := cfg.DeviceID
	if deviceID == "" {
		if deviceID, err = store.DeviceID(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}
	if err := store.EnsureUser(ctx, cfg.UserID, cfg.Email); err != nil {
		store.Close()
		return nil, err
	}

	history := store.For(cfg.UserID)
	defaults := progression.Defaults{
		Increment:       cfg.Progression.Increment,
		AutoProgression: *cfg.Progression.AutoProgression,
		Unit:            cfg.Progression.Unit,
	}

	// Without a server the replica talks to an engine with no store, so every
	// sync ends in ErrNotConfigured and the scheduler stays idle.
	var remote syncengine.Remote = syncengine.Bind(syncengine.New(nil, log), cfg.UserID)
	if cfg.SyncEnabled() {
		remote = syncclient.New(cfg.ServerURL, cfg.Token)
	}
	id := syncengine.Identity{UserID: cfg.UserID, DeviceID: deviceID, Email: cfg.Email}

	return &runtime{
		cfg:          cfg,
		store:        store,
		history:      history,
		advisor:      progression.New(history, defaults, log),
		achievements: achievements.New(history, cfg.UserID, log),
		replica:      syncengine.NewReplica(store, remote, id, log),
		log:          log,
	}, nil
}

func (r *runtime) Close() error {
	return r.store.Close()
}

// scheduler builds a sync scheduler from the configured timings.
func (r *runtime) scheduler() *scheduler.Scheduler {
	opts := scheduler.DefaultOptions()
	opts.Interval = r.cfg.Sync.Interval
	opts.MinGap = r.cfg.Sync.MinGap
	opts.SignInDelay = r.cfg.Sync.SignInDelay
	return scheduler.New(r.replica, opts, r.log)
}

func requireSync(cfg *config.DeviceConfig) error {
	if !cfg.SyncEnabled() {
		return fmt.Errorf("%w: set server_url and token (IRONLOG_DEVICE_SERVER_URL, IRONLOG_DEVICE_TOKEN)", syncengine.ErrNotConfigured)
	}
	return nil
}
