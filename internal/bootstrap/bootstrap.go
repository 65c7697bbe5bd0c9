// Package bootstrap provides dependency initialization for video2text.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maauso/video2text/internal/audio"
	"github.com/maauso/video2text/internal/config"
	"github.com/maauso/video2text/internal/media"
	"github.com/maauso/video2text/internal/pipeline"
	"github.com/maauso/video2text/internal/storage"
	"github.com/maauso/video2text/internal/stt"
	"github.com/maauso/video2text/internal/transcribe"
)

// Dependencies holds all initialized dependencies for a run.
type Dependencies struct {
	Runner     *pipeline.Runner
	Recognizer stt.Recognizer
	Storage    storage.Storage
}

// Options carries the hooks the command line layer plugs in.
type Options struct {
	// Progress receives per-chunk progress. Optional.
	Progress transcribe.ProgressFunc
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Dependencies, error) {
	// Initialize storage
	store, publisher, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize speech recognizer
	recognizer, err := NewRecognizer(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("speech recognizer configured",
		slog.String("backend", recognizer.Name()),
		slog.String("language", cfg.STTLanguage),
	)

	// Initialize extractor and splitter
	extractor := media.NewFFmpegExtractor(cfg.FFmpegPath,
		media.WithFFprobePath(cfg.FFprobePath),
		media.WithSampleRate(cfg.AudioSampleRate),
		media.WithChannels(cfg.AudioChannels),
	)
	splitter := audio.NewWAVSplitter(logger)

	pc := cfg.Pipeline()
	transcriber := transcribe.New(recognizer, store,
		transcribe.WithChunkLength(pc.ChunkLength),
		transcribe.WithLogger(logger),
		transcribe.WithProgress(opts.Progress),
	)

	runnerOpts := []pipeline.RunnerOption{pipeline.WithRunnerLogger(logger)}
	if publisher != nil {
		runnerOpts = append(runnerOpts, pipeline.WithPublisher(publisher))
	}

	runner := pipeline.NewRunner(
		pipeline.Config{
			SourcePath: pc.SourcePath,
			WavPath:    pc.WavPath,
			TextPath:   pc.TextPath,
			Split: audio.SplitOpts{
				SegmentLength:  pc.SegmentLength,
				SplitThreshold: pc.SplitThreshold,
			},
		},
		extractor,
		splitter,
		transcriber,
		runnerOpts...,
	)

	return &Dependencies{
		Runner:     runner,
		Recognizer: recognizer,
		Storage:    store,
	}, nil
}

// NewRecognizer creates the speech recognizer selected by STT_BACKEND.
func NewRecognizer(cfg *config.Config, logger *slog.Logger) (stt.Recognizer, error) {
	httpClient := &http.Client{
		Timeout:   cfg.STTTimeout(),
		Transport: stt.NewLoggingTransport(http.DefaultTransport, logger),
	}

	switch cfg.STTBackend {
	case stt.BackendOpenAI:
		return stt.NewOpenAIClient(cfg.STTAPIKey,
			stt.WithOpenAIBaseURL(cfg.STTBaseURL),
			stt.WithOpenAIModel(cfg.STTModel),
			stt.WithOpenAILanguage(cfg.STTLanguage),
			stt.WithOpenAIHTTPClient(httpClient),
			stt.WithOpenAIMaxRetries(cfg.STTMaxRetries),
		), nil
	case stt.BackendWhisperCPP:
		return stt.NewWhisperCPPClient(cfg.STTBaseURL,
			stt.WithWhisperCPPAPIKey(cfg.STTAPIKey),
			stt.WithWhisperCPPLanguage(cfg.STTLanguage),
			stt.WithWhisperCPPHTTPClient(httpClient),
			stt.WithWhisperCPPMaxRetries(cfg.STTMaxRetries),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown STT_BACKEND %q", config.ErrInvalidValue, cfg.STTBackend)
	}
}

// initStorage creates the appropriate storage backend based on configuration.
// The publisher is nil unless S3 is configured.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, pipeline.Publisher, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.S3Prefix,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, s3Cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, s3Store, nil
	}

	logger.Info("local storage configured")
	return storage.NewLocalStorage(), nil, nil
}
