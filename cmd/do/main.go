package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/goaltracker/cmd/do/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "do",
		Short:        "Development and admin tools for goaltracker",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.NotifyCmd())
	rootCmd.AddCommand(cmd.TokensCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
