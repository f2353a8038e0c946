package commands

import (
	"context"
	"fmt"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored configuration",
		Long:  "List the CORS and rate limit configuration stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()

			corsCfg, err := database.NewCorsConfigRepository(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get cors config: %w", err)
			}
			if corsCfg == nil {
				fmt.Println("CORS: not configured (server falls back to FRONTEND_URL)")
			} else {
				fmt.Println("CORS:")
				fmt.Printf("  Allowed origins: %s\n", corsCfg.AllowedOrigins)
				fmt.Printf("  Allow credentials: %v\n", corsCfg.AllowCredentials)
				fmt.Printf("  Max-Age: %d\n", corsCfg.MaxAge)
			}

			rateCfg, err := database.NewRatelimitConfigRepository(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get ratelimit config: %w", err)
			}
			if rateCfg == nil {
				fmt.Println("Rate limit: not configured (server uses its default)")
			} else {
				fmt.Printf("Rate limit: %s\n", rateCfg.Rate)
			}

			fmt.Printf("Identity endpoint: %s (project %s)\n", cfg.IdentityEndpoint, cfg.IdentityProjectID)
			return nil
		},
	}
}
