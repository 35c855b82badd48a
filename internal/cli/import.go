package cli

import (
	"fmt"
	"os"

	"github.com/meltforce/ironlog/internal/alpha"
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import an Alpha Progression CSV export",
		Long: `Import workouts from an Alpha Progression CSV export. Re-importing the
same file updates the existing logs instead of duplicating them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := alpha.New(rt.history, rt.cfg.UserID, rt.log).Import(ctx, f)
			if err != nil {
				return err
			}
			unlocked, err := rt.achievements.Evaluate(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sessions: %d, imported: %d, skipped: %d\n", res.SessionsReceived, res.WorkoutsImported, res.WorkoutsSkipped)
			fmt.Fprintf(out, "sets: %d (warm-ups skipped: %d), new exercises: %d\n", res.SetsImported, res.WarmupsSkipped, res.ExercisesCreated)
			for _, a := range unlocked {
				fmt.Fprintf(out, "unlocked: %s\n", a.Title)
			}
			return nil
		},
	}
}
