package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/odegate/internal/cli"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

var (
	unlockConditionsFile string
	unlockContextFile    string
	unlockUser           string
	unlockStamps         []string
	unlockTasks          []string
	unlockLat            float64
	unlockLng            float64
	unlockAt             string
	unlockPolicy         string
	unlockRemote         bool
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Work with unlock conditions",
}

var unlockEvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a condition list against a user context",
	Long: `Evaluate a JSON condition list the way the server does. The user context
comes from a JSON file, from flags, or both (flags win).

Examples:
  odegate unlock eval -c conditions.json --stamp explorer-badge
  odegate unlock eval -c conditions.json --context user.json --at 2025-06-01T19:00:00Z
  odegate unlock eval -c conditions.json --policy fail-closed
  odegate unlock eval -c conditions.json --remote --env staging`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if unlockConditionsFile == "" {
			return fmt.Errorf("a conditions file is required (-c)")
		}
		raw, err := os.ReadFile(unlockConditionsFile)
		if err != nil {
			return fmt.Errorf("failed to read conditions: %w", err)
		}
		if errs := unlock.Validate(raw); len(errs) > 0 && !quiet {
			for field, msg := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", field, msg)
			}
		}

		uctx, err := unlockContext(cmd)
		if err != nil {
			return err
		}

		at := time.Now()
		if unlockAt != "" {
			at, err = time.Parse(time.RFC3339, unlockAt)
			if err != nil {
				return fmt.Errorf("invalid --at, expected RFC 3339: %w", err)
			}
		}

		var res unlock.Result
		if unlockRemote {
			c, err := newClient()
			if err != nil {
				return err
			}
			var when time.Time
			if unlockAt != "" {
				when = at
			}
			out, err := c.EvaluateUnlock(cmd.Context(), json.RawMessage(raw), uctx, when)
			if err != nil {
				return fmt.Errorf("failed to evaluate: %w", err)
			}
			res = *out
		} else {
			e := unlock.Evaluator{Policy: unlock.ParsePolicy(unlockPolicy)}
			res = e.EvaluateAt(unlock.ParseConditions(raw), uctx, at)
		}

		if quiet {
			return nil
		}
		return cli.PrintResult(cmd.OutOrStdout(), res, cli.OutputFormat(format))
	},
}

// unlockContext merges the context file with the flags that were set.
func unlockContext(cmd *cobra.Command) (unlock.Context, error) {
	var uctx unlock.Context
	if unlockContextFile != "" {
		data, err := os.ReadFile(unlockContextFile)
		if err != nil {
			return uctx, fmt.Errorf("failed to read context: %w", err)
		}
		if err := json.Unmarshal(data, &uctx); err != nil {
			return uctx, fmt.Errorf("invalid context file: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		uctx.UserID = unlockUser
	}
	if flags.Changed("stamp") {
		uctx.Stamps = unlockStamps
	}
	if flags.Changed("task") {
		uctx.CompletedTasks = unlockTasks
	}
	if flags.Changed("lat") || flags.Changed("lng") {
		uctx.Location = &unlock.Location{Lat: unlockLat, Lng: unlockLng}
	}
	return uctx, nil
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	unlockCmd.AddCommand(unlockEvalCmd)

	f := unlockEvalCmd.Flags()
	f.StringVarP(&unlockConditionsFile, "conditions", "c", "", "JSON file with the condition list")
	f.StringVar(&unlockContextFile, "context", "", "JSON file with the user context")
	f.StringVar(&unlockUser, "user", "", "Signed-in user id")
	f.StringSliceVar(&unlockStamps, "stamp", nil, "Collected stamp id (repeatable)")
	f.StringSliceVar(&unlockTasks, "task", nil, "Completed task id (repeatable)")
	f.Float64Var(&unlockLat, "lat", 0, "Latitude of the user")
	f.Float64Var(&unlockLng, "lng", 0, "Longitude of the user")
	f.StringVar(&unlockAt, "at", "", "Evaluation instant (RFC 3339, default now)")
	f.StringVar(&unlockPolicy, "policy", string(unlock.FailOpen), "Unknown condition policy (fail-open, fail-closed)")
	f.BoolVar(&unlockRemote, "remote", false, "Evaluate on the server instead of locally")
}
