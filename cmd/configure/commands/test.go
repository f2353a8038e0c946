package commands

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/config"
	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/identity"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the identity provider configuration",
		Long:  "Check the provider's JWKS endpoint and, with --email, run the one-time-code sign-in flow end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			idClient := identity.NewClient(identity.Config{
				Endpoint:  cfg.IdentityEndpoint,
				ProjectID: cfg.IdentityProjectID,
				APIKey:    cfg.IdentityAPIKey,
			})

			fmt.Printf("Identity endpoint: %s\n", cfg.IdentityEndpoint)

			jwksURL := idClient.JWKSURL()
			fmt.Printf("\nTesting JWKS endpoint: %s\n", jwksURL)
			httpClient := &http.Client{Timeout: 10 * time.Second}
			resp, err := httpClient.Get(jwksURL)
			if err != nil {
				return fmt.Errorf("failed to reach JWKS endpoint: %w", err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
				}
			}()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("JWKS endpoint returned status: %d", resp.StatusCode)
			}
			fmt.Println("✓ JWKS endpoint is accessible")

			if email == "" {
				fmt.Println("\n✓ Identity provider configuration test passed (pass --email to test the sign-in flow)")
				return nil
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			svc := auth.NewService(idClient, database.NewProfileRepository(db), logger)
			flow := auth.NewFlow(svc)

			ctx := context.Background()
			if err := flow.Start(ctx, email, ""); err != nil {
				return fmt.Errorf("failed to request code: %w", err)
			}
			fmt.Printf("\n✓ One-time code sent to %s\n", email)

			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("Enter the code (or 'resend' / 'quit'): ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read code: %w", err)
				}
				line = strings.TrimSpace(line)

				switch line {
				case "quit":
					return fmt.Errorf("aborted")
				case "resend":
					if err := flow.Start(ctx, email, ""); err != nil {
						return fmt.Errorf("failed to request a fresh code: %w", err)
					}
					fmt.Printf("✓ New code sent to %s\n", email)
					continue
				}

				session, accountID, err := flow.Submit(ctx, line, "")
				if err != nil {
					fmt.Printf("Verification failed: %s\n", auth.UserMessage(err))
					continue
				}

				fmt.Printf("\n✓ Signed in. Account ID: %s\n", accountID)
				if session.Reused {
					fmt.Println("  (an existing session was reused)")
				}
				fmt.Println("\n✓ Sign-in flow test passed")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address to run the sign-in flow against (optional)")

	return cmd
}
