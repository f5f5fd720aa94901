// Package cli implements the racer command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/zeebo/racer"
	"github.com/zeebo/racer/internal/log"
)

func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	cmd.PersistentFlags().String("log_level", "warn", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log_format", "text", "Set the log format (text, logfmt, json)")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		flags := cc.Flags()

		var merr error

		logLevel, err := flags.GetString("log_level")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		logFormat, err := flags.GetString("log_format")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		if merr != nil {
			return fmt.Errorf("invalid argument: %w", merr)
		}

		h, err := log.CreateHandler(cc.ErrOrStderr(), logLevel, logFormat)
		if err != nil {
			return fmt.Errorf("failed creating log handler: %w", err)
		}
		logger := slog.New(h)
		slog.SetDefault(logger)

		return initRacer(logger)
	}

	cmd.AddCommand(NewStressCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// initRacer configures the racer package from the environment, logging to
// logger. The package is only configured once per process.
func initRacer(logger *slog.Logger) error {
	cfg, err := racer.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed reading environment: %w", err)
	}
	cfg.Logger = logger

	if err := racer.Init(cfg); err != nil && !errors.Is(err, racer.ErrAlreadyInitialized) {
		return fmt.Errorf("failed initializing racer: %w", err)
	}
	racer.SetLogger(logger)

	return nil
}

// Main runs the racer command with the process arguments and exits.
func Main() {
	cmd := NewRootCmd("racer", shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const (
	shortDesc = "Exercise the racer synchronization primitives."
	longDesc  = `Exercise the racer synchronization primitives.

The stress command runs each property of the primitives repeatedly under real
concurrency and reports any round that failed. Configuration is read from the
RACER_POOL_WIDTH and RACER_MAX_KEYS environment variables.
`
)
