package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Static errors for media operations.
var (
	// ErrMediaOpen is returned when the source container cannot be opened
	// or carries no audio track.
	ErrMediaOpen = errors.New("media: cannot open source")
	// ErrNoAudioTrack is returned when the container has no audio stream.
	ErrNoAudioTrack = errors.New("media: no audio track")
	// ErrWrite is returned when the extracted audio cannot be written.
	ErrWrite = errors.New("media: write failed")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// FFmpegExtractor implements Extractor using the ffmpeg and ffprobe CLIs.
type FFmpegExtractor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
	sampleRate  int
	channels    int
}

// ExtractorOption configures an FFmpegExtractor.
type ExtractorOption func(*FFmpegExtractor)

// WithFFprobePath sets the ffprobe binary.
func WithFFprobePath(path string) ExtractorOption {
	return func(e *FFmpegExtractor) {
		if path != "" {
			e.ffprobePath = path
		}
	}
}

// WithSampleRate resamples the extracted audio. Zero keeps the source rate.
func WithSampleRate(hz int) ExtractorOption {
	return func(e *FFmpegExtractor) {
		e.sampleRate = hz
	}
}

// WithChannels remixes the extracted audio to n channels. Zero keeps the
// source layout.
func WithChannels(n int) ExtractorOption {
	return func(e *FFmpegExtractor) {
		e.channels = n
	}
}

// NewFFmpegExtractor creates a new FFmpegExtractor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegExtractor(ffmpegPath string, opts ...ExtractorOption) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	e := &FFmpegExtractor{ffmpegPath: ffmpegPath, ffprobePath: "ffprobe"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAudio implements Extractor.ExtractAudio.
func (e *FFmpegExtractor) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	probe, err := Inspect(ctx, e.ffprobePath, videoPath)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("%w: %s: %w", ErrMediaOpen, videoPath, err)
	}
	if probe.AudioStreamCount() == 0 {
		return fmt.Errorf("%w: %s: %w", ErrMediaOpen, videoPath, ErrNoAudioTrack)
	}

	if dir := filepath.Dir(wavPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: create output directory: %w", ErrWrite, err)
		}
	}

	args := []string{
		"-y",            // Overwrite output file without asking
		"-i", videoPath, // Input container
		"-vn",           // Drop video
		"-map", "0:a:0", // First audio track only
		"-acodec", "pcm_s16le", // Uncompressed 16-bit PCM
	}
	if e.sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(e.sampleRate))
	}
	if e.channels > 0 {
		args = append(args, "-ac", strconv.Itoa(e.channels))
	}
	args = append(args, "-f", "wav", wavPath)

	if err := e.runFFmpeg(ctx, args); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrWrite, wavPath, err)
	}

	return nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (e *FFmpegExtractor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Extractor = (*FFmpegExtractor)(nil)
