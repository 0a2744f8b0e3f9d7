package main

import (
	"fmt"

	"github.com/spf13/cobra"

	userservice "foodgram/internal/users/service"
	userstore "foodgram/internal/users/store"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "User administration",
	}
	usersCmd.AddCommand(newSetStaffCommand(ctx, "promote", "Grant staff rights to a user", true))
	usersCmd.AddCommand(newSetStaffCommand(ctx, "demote", "Revoke staff rights from a user", false))
	return usersCmd
}

func newSetStaffCommand(ctx *commandContext, use, short string, staff bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := userservice.New(userstore.NewPostgres(db), nil, userservice.WithLogger(ctx.log))
			user, err := svc.SetStaff(cmd.Context(), args[0], staff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d) staff=%t\n", user.Username, user.ID, user.IsStaff)
			return nil
		},
	}
}
