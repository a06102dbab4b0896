package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var date, availability, reason string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit availability for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if availability == "no" && reason == "" {
				return fmt.Errorf("--reason is required when declining")
			}

			req := map[string]string{
				"availability": availability,
				"reason":       reason,
			}
			var result Entry
			if err := client.Put("/api/v1/days/"+date+"/availability", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Cycle date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&availability, "availability", "", "yes or no (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Decline reason (required with --availability=no)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("availability")

	return cmd
}

func newDayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the day sheet for a date (hosts only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result DaySheet
			if err := client.Get("/api/v1/days/"+date, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Cycle date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newMarkCmd() *cobra.Command {
	var date, player, attended string

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Mark a player's attendance for a date (hosts only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"attended": attended}
			var result Entry
			path := "/api/v1/days/" + date + "/players/" + player + "/attendance"
			if err := client.Put(path, req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Cycle date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&player, "player", "", "Player email (required)")
	cmd.Flags().StringVar(&attended, "attended", "", "yes or no (required)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("attended")

	return cmd
}
