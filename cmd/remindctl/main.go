package main

import (
	"fmt"
	"os"

	"github.com/remindly/remind-api/cmd/remindctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "remindctl",
		Short: "Management tool for the reminder service",
		Long:  "CLI tool for creating, listing and transitioning reminder tasks",
	}

	rootCmd.AddCommand(commands.NewAddCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewDueCmd())
	rootCmd.AddCommand(commands.NewCompleteCmd())
	rootCmd.AddCommand(commands.NewSkipCmd())
	rootCmd.AddCommand(commands.NewSnoozeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
