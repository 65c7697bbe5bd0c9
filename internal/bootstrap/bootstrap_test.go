package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/video2text/internal/config"
	"github.com/maauso/video2text/internal/storage"
	"github.com/maauso/video2text/internal/stt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		SourcePath:       filepath.Join(dir, "in.mp4"),
		WavPath:          filepath.Join(dir, "out.wav"),
		TextPath:         filepath.Join(dir, "out.txt"),
		SegmentLengthMs:  300000,
		SplitThresholdMs: 600000,
		ChunkMs:          10000,
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		STTBackend:       stt.BackendOpenAI,
		STTAPIKey:        "sk-test",
		STTModel:         "whisper-1",
		STTLanguage:      "en",
		STTTimeoutSec:    60,
		STTMaxRetries:    3,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRecognizer(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{stt.BackendOpenAI, stt.BackendOpenAI},
		{stt.BackendWhisperCPP, stt.BackendWhisperCPP},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.STTBackend = tt.backend

			rec, err := NewRecognizer(cfg, discardLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Name())
		})
	}
}

func TestNewRecognizer_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.STTBackend = "vosk"

	_, err := NewRecognizer(cfg, discardLogger())
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestNewDependencies_LocalStorage(t *testing.T) {
	cfg := testConfig(t)

	deps, err := NewDependencies(context.Background(), cfg, discardLogger(), Options{})
	require.NoError(t, err)

	assert.NotNil(t, deps.Runner)
	assert.IsType(t, &storage.LocalStorage{}, deps.Storage)
	assert.Equal(t, stt.BackendOpenAI, deps.Recognizer.Name())
}

func TestNewDependencies_S3Storage(t *testing.T) {
	cfg := testConfig(t)
	cfg.S3Bucket = "test-bucket"
	cfg.S3Region = "us-east-1"
	cfg.S3Endpoint = "http://127.0.0.1:9000"
	cfg.AWSAccessKeyID = "test"
	cfg.AWSSecretAccessKey = "test"

	deps, err := NewDependencies(context.Background(), cfg, discardLogger(), Options{})
	require.NoError(t, err)

	assert.IsType(t, &storage.S3Storage{}, deps.Storage)
}
