package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/spf13/cobra"
)

// NewRatelimitCmd creates the ratelimit command with show and set subcommands
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the stored rate limit",
		Long:  "Show or update the rate limit stored in the database, in ulule/limiter notation (5-S, 100-M, 1000-H). The API picks up changes without a restart.",
	}
	cmd.AddCommand(newRatelimitShowCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := database.NewRatelimitConfigRepository(db).Get(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get ratelimit config: %w", err)
			}
			if c == nil {
				fmt.Println("No rate limit stored. Use 'ratelimit set' to add one.")
				return nil
			}
			fmt.Printf("Rate limit: %s\n", c.Rate)
			return nil
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}

			_, db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.NewRatelimitConfigRepository(db).Set(context.Background(), &models.RatelimitConfig{Rate: rate}); err != nil {
				return fmt.Errorf("failed to set ratelimit config: %w", err)
			}
			fmt.Println("Rate limit updated.")
			return nil
		},
	}

	cmd.Flags().StringVar(&rate, "rate", "", "Rate in ulule/limiter notation (required)")
	return cmd
}
