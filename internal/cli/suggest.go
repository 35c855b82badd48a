package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/spf13/cobra"
)

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dayID     string
		setNumber int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <exercise>",
		Short: "Suggest a working weight for an exercise",
		Long: `Suggest a working weight. With --day the suggestion follows the set
logged for the same slot last time that day was trained; otherwise it
comes from the exercise's most recent appearance in any workout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			ex, err := rt.lookupExercise(ctx, args[0])
			if err != nil {
				return err
			}
			return rt.suggest(ctx, cmd.OutOrStdout(), ex, dayID, setNumber, asJSON)
		},
	}

	cmd.Flags().StringVar(&dayID, "day", "", "training day id for a per-set suggestion")
	cmd.Flags().IntVar(&setNumber, "set", 1, "set number within the day")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the suggestion as JSON")
	return cmd
}

// lookupExercise resolves a name first, then an id.
func (r *runtime) lookupExercise(ctx context.Context, ref string) (*models.Exercise, error) {
	ex, err := r.history.ExerciseByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if ex != nil {
		return ex, nil
	}
	all, err := r.history.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == ref {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("exercise %q not found", ref)
}

func (r *runtime) suggest(ctx context.Context, w io.Writer, ex *models.Exercise, dayID string, setNumber int, asJSON bool) error {
	if dayID != "" {
		s, err := r.advisor.DaySuggestion(ctx, ex.ID, dayID, setNumber)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(w, s)
		}
		if s == nil {
			fmt.Fprintf(w, "%s: no history for set %d of %s\n", ex.Name, setNumber, dayID)
			return nil
		}
		fmt.Fprintf(w, "%s set %d: %g %s x %d", ex.Name, setNumber, s.Weight, s.Unit, s.Reps)
		if s.Progressed {
			fmt.Fprintf(w, " (up from %g, last time %d reps)", s.LastWeight, s.LastReps)
		}
		fmt.Fprintln(w)
		return nil
	}

	s, err := r.advisor.GlobalSuggestion(ctx, ex.ID)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(w, s)
	}
	if s == nil {
		fmt.Fprintf(w, "%s: not trained recently\n", ex.Name)
		return nil
	}
	fmt.Fprintf(w, "%s: best %g %s x %d on %s", ex.Name, s.BestWeight, s.Unit, s.BestReps, s.PerformedAt.Local().Format("2006-01-02"))
	if s.NudgeEligible && s.NudgeWeight != nil {
		fmt.Fprintf(w, ", try %g %s", *s.NudgeWeight, s.Unit)
	}
	fmt.Fprintln(w)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
