// Command summarize runs summary generation from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"growthtrack/internal/app"
	"growthtrack/internal/config"
	"growthtrack/internal/models"
	"growthtrack/internal/security"
	"growthtrack/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate weekly child growth summaries",
		Long: `summarize generates narrative weekly summaries outside the API server.

Configuration is read from the environment, optionally overlaid on the
YAML file given with --config.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				os.Setenv("CONFIG_FILE", configPath)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	cmd.AddCommand(runCmd(), childCmd(), tokenCmd())
	return cmd
}

// withApp loads configuration, builds the app and runs fn with a context
// canceled on SIGINT or SIGTERM
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseStart(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	start, err := models.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &start, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCmd() *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate summaries for every child",
		RunE: func(cmd *cobra.Command, args []string) error {
			periodStart, err := parseStart(start)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				result, err := a.Service.GenerateAll(ctx, periodStart)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if result.Failed > 0 || result.NotProcessed > 0 {
					return fmt.Errorf("%d of %d children failed, %d not processed", result.Failed, result.Total, result.NotProcessed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Period start date (YYYY-MM-DD); defaults to the 7 days ending today")
	return cmd
}

func childCmd() *cobra.Command {
	var (
		childID int64
		start   string
	)

	cmd := &cobra.Command{
		Use:   "child",
		Short: "Generate the summary for one child",
		RunE: func(cmd *cobra.Command, args []string) error {
			periodStart, err := parseStart(start)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				outcome := a.Service.GenerateSummary(ctx, childID, periodStart)
				if outcome.Kind == service.OutcomeError {
					return fmt.Errorf("%s: %s", outcome.ErrKind, outcome.Message)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "outcome: %s\n", outcome.Kind)
				return printJSON(cmd.OutOrStdout(), outcome.Summary)
			})
		},
	}
	cmd.Flags().Int64Var(&childID, "id", 0, "Child id")
	cmd.Flags().StringVar(&start, "start", "", "Period start date (YYYY-MM-DD); defaults to the 7 days ending today")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with API_TOKEN_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := security.IssueToken(cfg.APITokenSecret, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime; 0 for no expiry")
	return cmd
}
