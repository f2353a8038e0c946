package main

import (
	"fmt"
	"os"

	"github.com/cinevault/cinevault/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "cinevault-configure",
		Short: "Configuration tool for the CineVault API",
		Long:  "CLI tool for initializing the database and managing CORS, rate limit, and auth settings",
	}

	rootCmd.AddCommand(commands.NewInitDBCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
