package cli

import (
	"github.com/spf13/cobra"
)

func newRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Roster management (hosts only)",
	}

	cmd.AddCommand(newRosterListCmd())
	cmd.AddCommand(newRosterAddPlayerCmd())
	cmd.AddCommand(newRosterRemovePlayerCmd())
	cmd.AddCommand(newRosterPromoteCmd())
	cmd.AddCommand(newRosterRemoveHostCmd())

	return cmd
}

func newRosterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Roster
			if err := client.Get("/api/v1/roster", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRosterAddPlayerCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "add-player",
		Short: "Add a player to the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"name":     name,
				"email":    email,
				"password": password,
			}
			if err := client.Post("/api/v1/roster/players", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Added player " + email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRosterRemovePlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-player <email>",
		Short: "Remove a player from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/roster/players/" + args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Removed player " + args[0])
			return nil
		},
	}
}

func newRosterPromoteCmd() *cobra.Command {
	var email, role, password string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote a player to host or cohost",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"email":    email,
				"role":     role,
				"password": password,
			}
			if err := client.Post("/api/v1/roster/hosts", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Promoted " + email + " to " + role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Player email (required)")
	cmd.Flags().StringVar(&role, "role", "cohost", "Role to grant: host or cohost")
	cmd.Flags().StringVar(&password, "password", "", "Host credential password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRosterRemoveHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-host <email>",
		Short: "Revoke a host's privileges (full hosts only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/roster/hosts/" + args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Removed host " + args[0])
			return nil
		},
	}
}
