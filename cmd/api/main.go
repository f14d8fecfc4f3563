package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/priospace/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "priospace",
		Short: "PrioSpace API Server",
		Long:  `PrioSpace is a personal task and habit tracker with offline-first storage and optional remote synchronization.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
