package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "helpdeskctl",
		Short:        "Administrative tools for the helpdesk",
		Long:         `helpdeskctl applies database migrations and provisions staff accounts.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newCreateSystemManagerCommand(),
		newCreateTechnicianCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
