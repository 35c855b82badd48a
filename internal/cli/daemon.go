package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/ironlog/internal/scheduler"
	"github.com/spf13/cobra"
)

// NewDaemonCommand creates the daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Keep the device in sync in the background",
		Long: `Signs in and runs the sync scheduler: a first sync shortly after
start, then one every sync.interval. SIGHUP requests a manual sync,
SIGUSR1 a foreground sync (subject to sync.min_gap). SIGINT/SIGTERM stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := requireSync(rt.cfg); err != nil {
				return err
			}

			sched := rt.scheduler()
			defer sched.Close()
			sched.SignIn(ctx)
			rt.log.Info("daemon started", "interval", rt.cfg.Sync.Interval, "min_gap", rt.cfg.Sync.MinGap)

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGHUP, syscall.SIGUSR1)
			defer signal.Stop(signals)

			for {
				select {
				case <-ctx.Done():
					rt.log.Info("daemon stopping", "status", sched.State().Status)
					return nil
				case sig := <-signals:
					runRequested(ctx, rt, sched, sig == syscall.SIGHUP)
				}
			}
		},
	}
}

func runRequested(ctx context.Context, rt *runtime, sched *scheduler.Scheduler, manual bool) {
	var err error
	if manual {
		err = sched.Manual(ctx)
	} else {
		err = sched.Foreground(ctx)
	}
	switch {
	case err == nil:
		rt.log.Info("sync finished", "manual", manual, "status", sched.State().Status)
	case errors.Is(err, scheduler.ErrSyncInFlight), errors.Is(err, scheduler.ErrRateLimited):
		rt.log.Info("sync skipped", "manual", manual, "reason", err)
	default:
		rt.log.Warn("sync failed", "manual", manual, "error", err)
	}
}
