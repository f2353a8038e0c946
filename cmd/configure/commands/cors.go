package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors command with show and set subcommands
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage the stored CORS policy",
		Long:  "Show or update the CORS allowed origins stored in the database. The API picks up changes without a restart.",
	}
	cmd.AddCommand(newCorsShowCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored CORS policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := database.NewCorsConfigRepository(db).Get(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get cors config: %w", err)
			}
			if c == nil {
				fmt.Println("No CORS policy stored. Use 'cors set' to add one.")
				return nil
			}
			fmt.Println("CORS policy:")
			fmt.Printf("  Allowed origins: %s\n", c.AllowedOrigins)
			fmt.Printf("  Allow credentials: %v\n", c.AllowCredentials)
			fmt.Printf("  Max-Age: %d\n", c.MaxAge)
			return nil
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the stored CORS policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}

			_, db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			policy := &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			if err := database.NewCorsConfigRepository(db).Set(context.Background(), policy); err != nil {
				return fmt.Errorf("failed to set cors config: %w", err)
			}
			fmt.Println("CORS policy updated.")
			return nil
		},
	}

	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age in seconds")
	return cmd
}
