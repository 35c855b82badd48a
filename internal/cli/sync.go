package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync with the server",
		Long: `Pull changes since the last sync, apply them, push local changes,
and advance the watermark. --reset forgets the watermark first so
everything is pulled again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := requireSync(rt.cfg); err != nil {
				return err
			}
			if reset {
				if err := rt.replica.Reset(ctx); err != nil {
					return err
				}
			}
			if err := rt.replica.FullSync(ctx); err != nil {
				return err
			}
			at, err := rt.store.LastSyncedAt(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced (watermark %s)\n", at.Format("2006-01-02 15:04:05Z07:00"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "discard the watermark and pull everything")
	return cmd
}
