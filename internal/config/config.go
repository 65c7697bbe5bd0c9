// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/video2text/internal/audio"
)

// Static errors for configuration validation.
var (
	// ErrSourcePathRequired is returned when SOURCE_PATH is not set.
	ErrSourcePathRequired = errors.New("config: SOURCE_PATH is required")
	// ErrWavPathRequired is returned when WAV_PATH is not set.
	ErrWavPathRequired = errors.New("config: WAV_PATH is required")
	// ErrTextPathRequired is returned when TEXT_PATH is not set.
	ErrTextPathRequired = errors.New("config: TEXT_PATH is required")
	// ErrInvalidValue is returned when a setting is out of range.
	ErrInvalidValue = errors.New("config: invalid value")
	// ErrInvalidWavPath is returned when WAV_PATH looks like a segment file,
	// which would make the waveform eligible for cleanup.
	ErrInvalidWavPath = errors.New("config: WAV_PATH must not end in _part<N>")
	// ErrPathConflict is returned when two paths point at the same file.
	ErrPathConflict = errors.New("config: SOURCE_PATH, WAV_PATH and TEXT_PATH must differ")
	// ErrAPIKeyRequired is returned when the openai backend targets the
	// public API without a key.
	ErrAPIKeyRequired = errors.New("config: STT_API_KEY is required for the openai backend")
)

// Config holds all configuration for the application.
type Config struct {
	// Paths
	SourcePath string `env:"SOURCE_PATH, required" json:"source_path" validate:"required"`
	WavPath    string `env:"WAV_PATH, required" json:"wav_path" validate:"required"`
	TextPath   string `env:"TEXT_PATH, required" json:"text_path" validate:"required"`

	// Segmentation settings
	SegmentLengthMs  int `env:"SEGMENT_LENGTH_MS, default=300000" json:"segment_length_ms" validate:"min=1"`
	SplitThresholdMs int `env:"SPLIT_THRESHOLD_MS, default=600000" json:"split_threshold_ms" validate:"min=1"`
	ChunkMs          int `env:"CHUNK_MS, default=10000" json:"chunk_ms" validate:"min=1"`

	// Extraction settings
	FFmpegPath      string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath     string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`
	AudioSampleRate int    `env:"AUDIO_SAMPLE_RATE, default=0" json:"audio_sample_rate" validate:"min=0,max=384000"`
	AudioChannels   int    `env:"AUDIO_CHANNELS, default=0" json:"audio_channels" validate:"min=0,max=8"`

	// Speech recognition settings
	STTBackend    string `env:"STT_BACKEND, default=openai" json:"stt_backend" validate:"oneof=openai whispercpp"`
	STTBaseURL    string `env:"STT_BASE_URL" json:"stt_base_url,omitempty" validate:"omitempty,url"`
	STTAPIKey     string `env:"STT_API_KEY" json:"-"` // Masked in JSON
	STTModel      string `env:"STT_MODEL, default=whisper-1" json:"stt_model"`
	STTLanguage   string `env:"STT_LANGUAGE, default=en" json:"stt_language"`
	STTTimeoutSec int    `env:"STT_TIMEOUT_SEC, default=60" json:"stt_timeout_sec" validate:"min=1"`
	STTMaxRetries int    `env:"STT_MAX_RETRIES, default=3" json:"stt_max_retries" validate:"min=0,max=10"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// PipelineConfig is the explicit per-run stage configuration.
type PipelineConfig struct {
	SourcePath     string
	WavPath        string
	TextPath       string
	SegmentLength  time.Duration
	SplitThreshold time.Duration
	ChunkLength    time.Duration
}

// Pipeline returns the stage configuration derived from c.
func (c *Config) Pipeline() PipelineConfig {
	return PipelineConfig{
		SourcePath:     c.SourcePath,
		WavPath:        c.WavPath,
		TextPath:       c.TextPath,
		SegmentLength:  time.Duration(c.SegmentLengthMs) * time.Millisecond,
		SplitThreshold: time.Duration(c.SplitThresholdMs) * time.Millisecond,
		ChunkLength:    time.Duration(c.ChunkMs) * time.Millisecond,
	}
}

// STTTimeout returns the per-request recognition timeout.
func (c *Config) STTTimeout() time.Duration {
	return time.Duration(c.STTTimeoutSec) * time.Second
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(ctx, cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		switch msg := err.Error(); {
		case strings.Contains(msg, "SOURCE_PATH"):
			return nil, ErrSourcePathRequired
		case strings.Contains(msg, "WAV_PATH"):
			return nil, ErrWavPathRequired
		case strings.Contains(msg, "TEXT_PATH"):
			return nil, ErrTextPathRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and the relationships between paths.
func (c *Config) Validate() error {
	switch {
	case c.SourcePath == "":
		return ErrSourcePathRequired
	case c.WavPath == "":
		return ErrWavPathRequired
	case c.TextPath == "":
		return ErrTextPathRequired
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidValue, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	if audio.IsSegmentPath(c.WavPath) {
		return ErrInvalidWavPath
	}

	src, wav, text := filepath.Clean(c.SourcePath), filepath.Clean(c.WavPath), filepath.Clean(c.TextPath)
	if src == wav || src == text || wav == text {
		return ErrPathConflict
	}

	if c.STTBackend == "openai" && c.STTBaseURL == "" && c.STTAPIKey == "" {
		return ErrAPIKeyRequired
	}
	return nil
}

// NewLogger creates a structured logger writing to stdout.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo creates a structured logger writing to w.
func (c *Config) NewLoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{SourcePath: %s, WavPath: %s, TextPath: %s, SegmentLengthMs: %d, SplitThresholdMs: %d, ChunkMs: %d, STTBackend: %s, STTBaseURL: %s, STTAPIKey: %s, STTModel: %s, STTLanguage: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.SourcePath,
		c.WavPath,
		c.TextPath,
		c.SegmentLengthMs,
		c.SplitThresholdMs,
		c.ChunkMs,
		c.STTBackend,
		c.STTBaseURL,
		mask(c.STTAPIKey),
		c.STTModel,
		c.STTLanguage,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
