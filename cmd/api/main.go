package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tomlord1122/taskboard/internal/config"
	"github.com/Tomlord1122/taskboard/internal/logger"
)

var (
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "taskboard",
		Short: "Taskboard serves a server-rendered task list",
		Long: `Taskboard is a small task-list web application.

Running it without a subcommand starts the HTTP server.`,
		PersistentPreRunE: loadConfig,
		RunE:              runServe,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return logger.Init(cfg.LogLevel, cfg.LogFormat)
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
