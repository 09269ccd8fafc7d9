package main

import (
	"fmt"

	"alumni_network/internal/service"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage platform administrators",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator, or reset the password if it already exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.close()

		// 这里只写库，会话相关的 redis 用不到
		svc := service.NewAdminService(a.db, nil, nil, a.jwt)
		admin, created, err := svc.EnsureAdmin(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q created (id %d)\n", admin.Username, admin.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q password reset\n", admin.Username)
		}
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().String("username", "", "admin username")
	adminCreateCmd.Flags().String("password", "", "admin password, at least 8 characters")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}
