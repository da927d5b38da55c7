// Command notifier is the fridge expiry notifier CLI.
//
// Usage:
//
//	fridge-notifier expiry run
//	fridge-notifier expiry window --at 2024-01-13T10:00:00Z --timezone Asia/Ho_Chi_Minh
//	fridge-notifier expiry members --group 3c1d...
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/db"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/push"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "fridge-notifier",
		Short:        "Fridge expiry notifier CLI",
		SilenceUsage: true,
	}

	root.AddCommand(expiryCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// expiry command
// --------------------------------------------------------------------------

func expiryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Expiry notification pass tools",
	}
	cmd.AddCommand(expiryRunCmd())
	cmd.AddCommand(expiryWindowCmd())
	cmd.AddCommand(expiryMembersCmd())
	return cmd
}

func expiryRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one notification pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				sender, err := push.New(ctx, cfg, logger)
				if err != nil {
					return fmt.Errorf("init push provider: %w", err)
				}
				store := expiry.NewStore(pool.Pool)
				job := expiry.NewJob(expiry.JobConfig{
					Items:   store,
					Members: store,
					Sender:  sender,
					Retry: expiry.RetryPolicy{
						MaxAttempts:    cfg.RetryAttempts,
						InitialBackoff: cfg.RetryBackoff,
						MaxBackoff:     cfg.RetryMaxBackoff,
					},
					Location: cfg.ExpiryLocation,
					Logger:   logger,
				})

				res := job.Run(ctx)
				if res.Err != nil {
					return fmt.Errorf("expiry pass %s aborted: %w", res.RunID, res.Err)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"run %s: %d items (%d skipped), %d multicasts, %d/%d tokens delivered in %s\n",
					res.RunID, res.ItemsFound, res.ItemsSkipped, res.Multicasts,
					res.TokensSucceeded, res.TokensAttempted, res.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}

func expiryWindowCmd() *cobra.Command {
	var at, tz string
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the expiry window a pass would query",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("timezone %q: %w", tz, err)
			}
			t := time.Now()
			if at != "" {
				if t, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), expiry.ComputeWindow(t, loc))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Instant to compute the window for (RFC3339, default now)")
	cmd.Flags().StringVar(&tz, "timezone", envOr("EXPIRY_TIMEZONE", "UTC"), "IANA timezone for date arithmetic")
	return cmd
}

func expiryMembersCmd() *cobra.Command {
	var groupID string
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List a group's members and their usable device tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if groupID == "" {
				return errors.New("--group is required")
			}
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				members, err := expiry.NewStore(pool.Pool).GroupMembers(ctx, groupID)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "USER\tRAW\tUSABLE\tTOKENS")
				for _, m := range members {
					clean := expiry.CleanTokens(m.Tokens)
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", m.UserID, len(m.Tokens), len(clean), strings.Join(clean, ","))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "Family group id")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func runWithPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
