// Package transcribe turns an ordered list of waveform files into a single
// transcript by feeding fixed-length chunks to a speech recognizer.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maauso/video2text/internal/audio"
	"github.com/maauso/video2text/internal/stt"
)

// DefaultChunkLength is the length of each recognition request.
const DefaultChunkLength = 10 * time.Second

// Static errors for transcription.
var (
	// ErrReadAudio is returned when a waveform file cannot be opened or read.
	ErrReadAudio = errors.New("transcribe: read waveform failed")
	// ErrWriteTranscript is returned when the transcript cannot be written.
	ErrWriteTranscript = errors.New("transcribe: write transcript failed")
)

// Store is the subset of storage the Transcriber needs.
type Store interface {
	WriteText(ctx context.Context, path, text string) error
	CleanupTemp(ctx context.Context, paths []string) error
}

// ProgressFunc receives elapsed and total milliseconds of the file being
// transcribed after every chunk.
type ProgressFunc func(path string, doneMs, totalMs int64)

// Transcriber reads waveform files chunk by chunk and accumulates the
// recognized text.
type Transcriber struct {
	recognizer  stt.Recognizer
	store       Store
	logger      *slog.Logger
	chunkLength time.Duration
	progress    ProgressFunc
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithChunkLength sets the recognition chunk length. Values under one
// millisecond are ignored.
func WithChunkLength(d time.Duration) Option {
	return func(t *Transcriber) {
		if d >= time.Millisecond {
			t.chunkLength = d
		}
	}
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(t *Transcriber) {
		t.progress = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcriber) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Transcriber.
func New(recognizer stt.Recognizer, store Store, opts ...Option) *Transcriber {
	t := &Transcriber{
		recognizer:  recognizer,
		store:       store,
		logger:      slog.Default(),
		chunkLength: DefaultChunkLength,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe processes wavPaths in order, writes the accumulated transcript
// to textPath and then removes every input that is a segment file.
//
// Recognition failures skip the chunk and are recorded in the result; they
// never fail the call. Read and write failures do.
func (t *Transcriber) Transcribe(ctx context.Context, wavPaths []string, textPath string) (*Result, error) {
	res := &Result{TextPath: textPath, Files: len(wavPaths)}

	for i, path := range wavPaths {
		t.logger.Info("transcribing file",
			slog.String("path", path),
			slog.Int("file", i+1),
			slog.Int("files", len(wavPaths)),
		)

		if err := t.transcribeFile(ctx, path, res); err != nil {
			return res, err
		}
	}

	res.Transcript = Accumulate(res.Chunks)
	if err := t.store.WriteText(ctx, textPath, res.Transcript); err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrWriteTranscript, textPath, err)
	}
	t.logger.Info("transcript written",
		slog.String("path", textPath),
		slog.Int("recognized", res.Recognized()),
		slog.Int("skipped", res.Skipped()),
	)

	res.Removed = t.cleanup(ctx, wavPaths)
	return res, nil
}

// transcribeFile issues ceil(duration/chunk) reads from the start of path.
// A short or empty final read is still sent to the recognizer.
func (t *Transcriber) transcribeFile(ctx context.Context, path string, res *Result) error {
	reader, err := audio.OpenChunks(path, t.chunkLength)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadAudio, path, err)
	}
	defer func() { _ = reader.Close() }()

	totalMs := reader.Info().DurationMs()
	res.AudioMs += totalMs
	chunkMs := t.chunkLength.Milliseconds()
	count := chunkCount(totalMs, chunkMs)

	for i := int64(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transcription cancelled: %w", err)
		}

		chunk, err := reader.Next()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReadAudio, path, err)
		}

		result := ChunkResult{
			Path:    path,
			Index:   chunk.Index,
			StartMs: chunk.Start.Milliseconds(),
			EndMs:   (chunk.Start + chunk.Length).Milliseconds(),
		}

		text, err := t.recognizer.Recognize(ctx, chunk.WAV)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("transcription cancelled: %w", ctx.Err())
			}
			result.Err = t.skip(path, result, err)
		} else {
			result.Text = text
		}
		res.Chunks = append(res.Chunks, result)

		if t.progress != nil {
			t.progress(path, min((i+1)*chunkMs, totalMs), totalMs)
		}
	}
	return nil
}

// skip logs a chunk-level recognition failure and normalizes it to one of
// the stt sentinels.
func (t *Transcriber) skip(path string, result ChunkResult, err error) error {
	attrs := []any{
		slog.String("path", path),
		slog.Int("chunk", result.Index),
		slog.Int64("start_ms", result.StartMs),
	}

	switch {
	case errors.Is(err, stt.ErrUnknownValue):
		t.logger.Warn("detected unrecognizable speech", attrs...)
	case errors.Is(err, stt.ErrRequest):
		t.logger.Warn("recognition request failed", append(attrs, slog.String("error", err.Error()))...)
	default:
		err = fmt.Errorf("%w: %w", stt.ErrRequest, err)
		t.logger.Warn("recognition request failed", append(attrs, slog.String("error", err.Error()))...)
	}
	return err
}

// cleanup removes inputs that carry the segment tag and returns the ones
// that are gone. Failures are logged and otherwise ignored.
func (t *Transcriber) cleanup(ctx context.Context, wavPaths []string) []string {
	var removed []string
	for _, p := range wavPaths {
		if !audio.IsSegmentPath(p) {
			continue
		}
		if err := t.store.CleanupTemp(ctx, []string{p}); err != nil {
			t.logger.Warn("failed to delete segment file",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
			continue
		}
		t.logger.Debug("deleted segment file", slog.String("path", p))
		removed = append(removed, p)
	}
	return removed
}

// Accumulate joins the text of successful chunks in order, each followed by
// a single space. Skipped chunks contribute nothing.
func Accumulate(chunks []ChunkResult) string {
	var b strings.Builder
	for _, c := range chunks {
		if !c.OK() {
			continue
		}
		b.WriteString(c.Text)
		b.WriteByte(' ')
	}
	return b.String()
}

// chunkCount returns ceil(totalMs/chunkMs).
func chunkCount(totalMs, chunkMs int64) int64 {
	if totalMs <= 0 || chunkMs <= 0 {
		return 0
	}
	return (totalMs + chunkMs - 1) / chunkMs
}
