package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsindex/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:               "newsindex",
	Short:             "Fetch news articles and index them in Qdrant",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode logs a command failure and maps it to the process exit status.
func exitCode(err error) int {
	if logger == nil {
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		return 0
	}
	defer logger.Sync()

	if err != nil {
		logger.Error("command failed", zap.Error(err))
		return 1
	}
	return 0
}

func setup(*cobra.Command, []string) error {
	// =========
	// Config
	// =========
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	// =========
	// Logging
	// =========
	l, err := newLogger(cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l
	zap.ReplaceGlobals(logger)
	return nil
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
