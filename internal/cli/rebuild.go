package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRebuildCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute hourly activity from stored heartbeats",
		Long: `Recompute hourly activity from each user's full heartbeat history.
Existing rows are overwritten in place; nothing is deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				if userID != "" {
					if err := a.Rebuilder.RebuildUser(cmd.Context(), userID); err != nil {
						return fmt.Errorf("rebuilding %s: %w", userID, err)
					}
					fmt.Fprintf(out, "rebuilt %s\n", userID)
					return nil
				}

				report, err := a.Rebuilder.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "users: %d  rebuilt: %d  skipped: %d  failed: %d\n",
					report.Users, report.Succeeded, report.Skipped, report.Failed)
				if report.Failed > 0 {
					return fmt.Errorf("%d users failed to rebuild", report.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "rebuild a single user")

	return cmd
}
