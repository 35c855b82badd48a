package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/progression"
	"github.com/meltforce/ironlog/internal/workout"
	"github.com/spf13/cobra"
)

const workoutHelp = `commands:
  begin                        leave preview
  check N                      toggle warm-up/finisher item N
  next                         start exercises / end rest / finish finisher
  set WEIGHT REPS [RPE]        log the current set
  rest                         show the rest countdown
  edit I WEIGHT REPS [RPE]     change logged set I (1-based)
  finish                       end early and save
  discard                      drop the workout (or the resume offer)
  resume                       restore the offered snapshot
  retry                        retry saving a failed log
  status                       show where you are
  quit                         leave; the session can be resumed later`

// NewWorkoutCommand creates the workout command.
func NewWorkoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "workout <day-id>",
		Short: "Run a workout for a training day, driven from stdin",
		Long:  "Run a workout for a training day. Commands are read line by line from stdin.\n\n" + workoutHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			day, err := rt.history.TrainingDay(ctx, args[0])
			if err != nil {
				return err
			}
			if day == nil {
				return fmt.Errorf("training day %q not found", args[0])
			}

			deps := workout.Deps{
				Snapshots:    rt.store,
				Logs:         rt.history,
				Records:      rt.advisor,
				Achievements: rt.achievements,
			}
			if rt.cfg.SyncEnabled() {
				sched := rt.scheduler()
				defer sched.Close() // waits for the post-workout push
				deps.Pusher = sched
			}

			m := workout.New(*day, deps, rt.cfg.Progression.Unit, rt.log)

			sh := &shell{m: m, advisor: rt.advisor, out: cmd.OutOrStdout()}
			return sh.run(ctx, cmd.InOrStdin())
		},
	}
}

// shell drives a workout machine from text commands.
type shell struct {
	m       *workout.Machine
	advisor *progression.Advisor
	out     io.Writer
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	offer, err := sh.m.Start(ctx)
	if err != nil {
		return err
	}
	if saved := sh.m.SavedLog(); saved != nil {
		fmt.Fprintf(sh.out, "recovered unsaved workout %s (%d sets)\n", saved.ID, len(saved.Sets))
	}
	if offer != nil {
		fmt.Fprintf(sh.out, "unfinished workout from %s: %s, %d sets logged. resume or discard?\n",
			offer.CapturedAt.Local().Format("15:04"), offer.Phase, offer.SetsLogged)
	}
	sh.status(ctx)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			break
		}
		quit, err := sh.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command line. It reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	m := sh.m
	args := fields[1:]

	var err error
	switch fields[0] {
	case "begin":
		err = m.Begin(ctx)
	case "check":
		var n int
		if n, err = intArg(args, 0); err == nil {
			if m.Session().Phase == workout.PhaseFinisher {
				err = m.ToggleFinisher(ctx, n-1)
			} else {
				err = m.ToggleWarmup(ctx, n-1)
			}
		}
	case "next":
		switch m.Session().Phase {
		case workout.PhaseWarmup:
			err = m.StartExercises(ctx)
		case workout.PhaseRest:
			err = m.FinishRest(ctx)
		case workout.PhaseFinisher:
			err = m.FinishFinisher(ctx)
		default:
			err = fmt.Errorf("%w: nothing to advance in %s", workout.ErrInvalidTransition, m.Session().Phase)
		}
	case "set":
		var in workout.SetInput
		if in, err = setArgs(args); err == nil {
			err = m.CompleteSet(ctx, in)
		}
	case "rest":
		fmt.Fprintf(sh.out, "rest: %s left\n", m.RestRemaining().Round(time.Second))
		return false, nil
	case "edit":
		var i int
		var in workout.SetInput
		if i, err = intArg(args, 0); err == nil {
			if in, err = setArgs(args[1:]); err == nil {
				err = m.EditSet(ctx, i-1, in)
			}
		}
	case "finish":
		err = m.Complete(ctx)
	case "discard":
		if err = m.Discard(ctx); errors.Is(err, workout.ErrInvalidTransition) {
			err = m.Abandon(ctx, false)
		}
	case "resume":
		err = m.Resume()
	case "retry":
		err = m.RetryCommit(ctx)
	case "status":
		sh.status(ctx)
		return false, nil
	case "help":
		fmt.Fprintln(sh.out, workoutHelp)
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	if err != nil {
		return false, err
	}
	sh.status(ctx)
	return false, nil
}

func (sh *shell) status(ctx context.Context) {
	s := sh.m.Session()
	day := sh.m.Day()
	fmt.Fprintf(sh.out, "[%s] %s · %d sets · volume %.1f\n", day.Name, s.Phase, len(s.CompletedSets), s.CurrentVolume)

	switch s.Phase {
	case workout.PhaseWarmup:
		for i, item := range day.Warmup {
			fmt.Fprintf(sh.out, "  %s %d. %s\n", box(i < len(s.WarmupChecked) && s.WarmupChecked[i]), i+1, item.Name)
		}
	case workout.PhaseFinisher:
		for i, item := range day.Finisher {
			fmt.Fprintf(sh.out, "  %s %d. %s\n", box(i < len(s.FinisherChecked) && s.FinisherChecked[i]), i+1, item.Name)
		}
	case workout.PhaseExercise, workout.PhaseRest:
		ex, ok := sh.m.Current()
		if !ok {
			break
		}
		label := ex.Name
		if label == "" {
			label = ex.ExerciseID
		}
		fmt.Fprintf(sh.out, "  %s set %d/%d, target %d reps", label, s.Position.SetNumber, ex.Sets, ex.TargetReps)
		if sh.advisor != nil {
			if sug, err := sh.advisor.DaySuggestion(ctx, ex.ExerciseID, day.ID, s.Position.SetNumber); err == nil && sug != nil {
				fmt.Fprintf(sh.out, ", suggested %g %s", sug.Weight, sug.Unit)
			}
		}
		fmt.Fprintln(sh.out)
		if s.Phase == workout.PhaseRest {
			fmt.Fprintf(sh.out, "  resting, %s left\n", sh.m.RestRemaining().Round(time.Second))
		}
	case workout.PhaseComplete:
		if s.PendingLog != nil {
			fmt.Fprintln(sh.out, "  workout not saved yet, use retry")
		} else if saved := sh.m.SavedLog(); saved != nil {
			fmt.Fprintf(sh.out, "  saved %s: %d sets, %.1f total volume", saved.ID, len(saved.Sets), saved.TotalVolume)
			if n := len(saved.PersonalRecords); n > 0 {
				fmt.Fprintf(sh.out, ", %d personal records", n)
			}
			fmt.Fprintln(sh.out)
		}
	}
}

func box(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errors.New("missing number")
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[i])
	}
	return n, nil
}

// setArgs parses WEIGHT REPS [RPE].
func setArgs(args []string) (workout.SetInput, error) {
	if len(args) < 2 {
		return workout.SetInput{}, errors.New("usage: WEIGHT REPS [RPE]")
	}
	weight, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		return workout.SetInput{}, fmt.Errorf("invalid weight %q", args[0])
	}
	reps, err := strconv.Atoi(args[1])
	if err != nil {
		return workout.SetInput{}, fmt.Errorf("invalid reps %q", args[1])
	}
	in := workout.SetInput{Weight: weight, Reps: reps}
	if len(args) > 2 {
		rpe, err := strconv.ParseFloat(strings.ReplaceAll(args[2], ",", "."), 64)
		if err != nil {
			return workout.SetInput{}, fmt.Errorf("invalid rpe %q", args[2])
		}
		in.RPE = &rpe
	}
	return in, nil
}
