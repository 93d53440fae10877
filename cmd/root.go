package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/itsmostafa/steptrace/internal/config"
	"github.com/itsmostafa/steptrace/internal/version"
)

var configPath string
var logLevel string

// cfg and logger are set up before any subcommand runs.
var cfg config.Config
var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "steptrace",
	Short: "Step-by-step execution traces for small Python-like programs",
	Long: `steptrace runs programs written in a small Python-like subset and records a
snapshot after every executed statement: the line, the live variables, the call
stack, list contents with highlighted elements, and a one-line explanation.

Programs that call input() stop at the call; give them values with -i or
continue them with "steptrace session".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("steptrace %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
