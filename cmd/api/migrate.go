package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tomlord1122/taskboard/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tasks table and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		defer dbService.Close()

		if err := dbService.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info("Database migration complete.")
		return nil
	},
}
