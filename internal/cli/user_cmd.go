package cli

import (
	"fmt"

	"github.com/rpggio/chronos/internal/domain/user"
	"github.com/spf13/cobra"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and API keys",
	}

	cmd.AddCommand(
		newUserCreateCmd(opts),
		newUserKeyCmd(opts),
	)

	return cmd
}

func newUserCreateCmd(opts *rootOptions) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its first API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				u, key, err := a.Users.Create(cmd.Context(), user.CreateRequest{Name: name, Email: email})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\napi_key: %s\n", u.ID, key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserKeyCmd(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "key USER_ID",
		Short: "Issue another API key for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				key, err := a.Users.IssueKey(cmd.Context(), args[0], description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "api_key: %s\n", key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what the key is for")

	return cmd
}
