package commands

import (
	"context"
	"fmt"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/spf13/cobra"
)

// NewInitDBCmd creates the initdb command
func NewInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create or update the database schema",
		Long:  "Create the tables and indexes the API and worker need. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.EnsureSchema(context.Background(), db); err != nil {
				return fmt.Errorf("failed to ensure schema: %w", err)
			}

			fmt.Println("Database schema is up to date.")
			return nil
		},
	}
}
