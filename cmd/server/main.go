package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hongminglow/fraudpulse-be/internal/config"
	"github.com/hongminglow/fraudpulse-be/internal/scoring"
)

var Version = "dev"

func main() {
	loadLocalEnv()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fraudpulse",
		Short:         "FraudPulse - transaction fraud scoring service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initDBCmd())
	rootCmd.AddCommand(scoreCmd())
	return rootCmd
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found; relying on existing environment")
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return logger
}

// loadPipeline resolves the configured model path and loads it. override, when
// set, is taken relative to the working directory instead of the base dir.
func loadPipeline(cfg config.Config, override string) (*scoring.Pipeline, string, error) {
	path := scoring.ResolvePath(cfg.BaseDir, cfg.ModelPath)
	if override != "" {
		path = override
	}
	pipe, err := scoring.Load(path)
	if err != nil {
		return nil, path, err
	}
	return pipe, path, nil
}
