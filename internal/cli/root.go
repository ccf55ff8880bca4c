// Package cli implements spotlightctl, the admin command line for the
// Spotlight backend.
package cli

import (
	"context"
	"log/slog"

	"github.com/anonto42/spotlight/backend/internal/app"
	"github.com/anonto42/spotlight/backend/pkg/config"
	"github.com/anonto42/spotlight/backend/pkg/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for spotlightctl
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "spotlightctl",
		Short: "Administer the Spotlight backend",
		Long:  "Schema migration, development seed data and maintenance jobs for the Spotlight backend.",
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSweepStoriesCommand(opts))
	return cmd
}

// withApp loads configuration, connects and hands the wired backend to fn
func withApp(ctx context.Context, opts *RootOptions, fn func(*app.App) error) error {
	cfg := config.Load()
	env := cfg.Env
	if opts.Verbose {
		env = "development"
	}
	log := logger.Setup(env)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	slog.DebugContext(ctx, "backend connected")
	return fn(a)
}
