// Package cmd defines and implements the CLI commands for the doaj-reviewer
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/config"
	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App carries the services shared by all subcommands.
type App struct {
	Config config.Config
	Logger *zap.Logger
	RunID  string
}

// Close flushes buffered log entries.
func (a *App) Close() {
	if a != nil && a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

func newApp() (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	return &App{
		Config: cfg,
		Logger: logger.With(zap.String("run_id", runID.String())),
		RunID:  runID.String(),
	}, nil
}

func resolveApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey).(*App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doaj-reviewer",
		Short: "Audits journal-supplied URLs for editorial independence criteria.",
		Long: `doaj-reviewer fetches the pages a journal self-reports, extracts
evidence, and evaluates the insider-authorship (endogeny) criterion,
emitting a graded decision with a calibrated confidence score.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if app, ok := cmd.Context().Value(appKey).(*App); ok {
				app.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults + env)")

	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newEndogenyCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
