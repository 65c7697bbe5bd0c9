package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/maauso/video2text/internal/bootstrap"
	"github.com/maauso/video2text/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "video2text",
		Short: "Transcribe the audio track of a video file",
		Long: `video2text extracts the audio track of SOURCE_PATH into WAV_PATH, splits
long recordings into parts, sends fixed-length chunks to a speech-to-text
backend and writes the joined transcript to TEXT_PATH.

All settings are read from the environment. An optional .env file in the
working directory, or the file given with --env-file, is loaded first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), envFile)
		},
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before reading configuration")
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "video2text %s\n", version)
		},
	}
}

// loadEnvFile loads path, or ./.env when path is empty and the file exists.
// Variables already present in the environment win.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func runPipeline(ctx context.Context, stdout, stderr io.Writer, envFile string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	// Load configuration from environment
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLoggerTo(stdout)
	slog.SetDefault(logger)

	logger.Info("starting video2text",
		slog.String("version", version),
		slog.String("source", cfg.SourcePath),
		slog.String("stt_backend", cfg.STTBackend),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	progress := newProgressReporter(stderr, logger)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(ctx, cfg, logger, bootstrap.Options{
		Progress: progress.Report,
	})
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	run, runErr := deps.Runner.Run(ctx)
	progress.Finish()

	if run != nil {
		fmt.Fprintln(stdout, renderSummary(run))
	}
	return runErr
}
