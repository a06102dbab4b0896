package cli

import (
	"github.com/spf13/cobra"
)

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Manual phase operations (hosts only)",
	}

	cmd.AddCommand(newPhaseRunCmd())

	return cmd
}

func newPhaseRunCmd() *cobra.Command {
	var date, phase string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Re-run a lifecycle phase for a date",
		Long: `Re-runs a lifecycle phase for a cycle date. Phase effects are
idempotent, so re-running after a partial failure is safe.

Phases: entry_creation, reminder, lock, summary, policy_sweep, resolution`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"date": date, "phase": phase}
			var result map[string]string
			if err := client.Post("/api/v1/phases/run", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Ran phase " + phase + " for " + date)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Cycle date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&phase, "phase", "", "Phase name (required)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("phase")

	return cmd
}
