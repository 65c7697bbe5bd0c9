package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	goaudio "github.com/go-audio/audio"
)

// WAVSplitter implements Splitter by decoding the PCM stream with go-audio
// and writing each segment through the WAV encoder. Segments are cut on
// sample-frame boundaries, so concatenating them reproduces the input.
type WAVSplitter struct {
	logger *slog.Logger
}

// NewWAVSplitter creates a new WAVSplitter.
func NewWAVSplitter(logger *slog.Logger) *WAVSplitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WAVSplitter{logger: logger}
}

// Split implements Splitter.Split.
func (s *WAVSplitter) Split(ctx context.Context, inputWav string, opts SplitOpts) ([]string, error) {
	if opts.SegmentLength <= 0 || opts.SplitThreshold <= 0 {
		return nil, fmt.Errorf("%w: segment=%s threshold=%s", ErrInvalidLength, opts.SegmentLength, opts.SplitThreshold)
	}

	f, err := os.Open(inputWav) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec, info, err := openDecoder(f)
	if err != nil {
		return nil, err
	}

	if !info.longerThan(opts.SplitThreshold) {
		s.logger.Info("audio within split threshold, no split needed",
			slog.String("path", inputWav),
			slog.Duration("duration", info.Duration()),
			slog.Duration("threshold", opts.SplitThreshold),
		)
		return []string{inputWav}, nil
	}

	segFrames := info.framesFor(opts.SegmentLength)
	if segFrames <= 0 {
		return nil, fmt.Errorf("%w: segment shorter than one sample", ErrInvalidLength)
	}
	count := int((info.Frames + segFrames - 1) / segFrames)

	s.logger.Info("audio exceeds split threshold, splitting",
		slog.String("path", inputWav),
		slog.Duration("duration", info.Duration()),
		slog.Int("segments", count),
	)

	paths := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("split cancelled: %w", err)
		}

		buf, err := readFrames(dec, info, segFrames)
		if err != nil {
			return nil, fmt.Errorf("read segment %d: %w", i, err)
		}

		out := PartPath(inputWav, i)
		if err := writeWAV(out, info, buf); err != nil {
			// Segments already written stay on disk.
			return nil, fmt.Errorf("%w: segment %d: %w", ErrWrite, i, err)
		}
		paths = append(paths, out)

		s.logger.Info("exported segment",
			slog.String("path", out),
			slog.Int("part", i),
			slog.Int("of", count),
		)
	}

	return paths, nil
}

// writeWAV creates (or truncates) path and encodes buf into it.
func writeWAV(path string, info Info, buf *goaudio.IntBuffer) error {
	f, err := os.Create(path) // #nosec G304 - path is derived from the input path
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := encodeTo(f, info, buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// Verify interface implementation at compile time.
var _ Splitter = (*WAVSplitter)(nil)
