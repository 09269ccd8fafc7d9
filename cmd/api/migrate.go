package main

import (
	"alumni_network/internal/repository/mysql"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.close()

		if err = mysql.Migrate(a.db); err != nil {
			return err
		}
		a.log.Info("schema migrated")
		return nil
	},
}
