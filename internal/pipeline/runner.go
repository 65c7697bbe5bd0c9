package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/maauso/video2text/internal/audio"
	"github.com/maauso/video2text/internal/media"
	"github.com/maauso/video2text/internal/transcribe"
)

// ErrPublish is returned when the transcript cannot be uploaded.
var ErrPublish = errors.New("pipeline: publish transcript failed")

// Transcriber turns waveform files into a transcript file.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPaths []string, textPath string) (*transcribe.Result, error)
}

// Publisher uploads the finished transcript.
type Publisher interface {
	ObjectKey(name string) string
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}

// Config holds the per-run inputs.
type Config struct {
	SourcePath string
	WavPath    string
	TextPath   string
	Split      audio.SplitOpts
}

// Runner drives one video through the three stages in order.
//
// Dependencies:
//   - media.Extractor: audio track extraction
//   - audio.Splitter: segmentation of long waveforms
//   - Transcriber: chunked recognition and transcript output
//   - Publisher: optional transcript upload
type Runner struct {
	cfg         Config
	extractor   media.Extractor
	splitter    audio.Splitter
	transcriber Transcriber
	publisher   Publisher
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPublisher uploads the transcript after it is written.
func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) {
		r.publisher = p
	}
}

// WithRunnerLogger sets the logger. Defaults to slog.Default().
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, extractor media.Extractor, splitter audio.Splitter, transcriber Transcriber, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:         cfg,
		extractor:   extractor,
		splitter:    splitter,
		transcriber: transcriber,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline once. The returned Run is never nil; on error
// it is in FAILED state and carries the error message.
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	run := NewRun(r.cfg.SourcePath, r.cfg.WavPath, r.cfg.TextPath)
	logger := r.logger.With(slog.String("run_id", run.ID))

	logger.Info("starting run",
		slog.String("source", run.SourcePath),
		slog.String("wav", run.WavPath),
		slog.String("text", run.TextPath),
	)

	// Step 1: extract the audio track
	if err := run.TransitionTo(StatusExtracting); err != nil {
		return run, err
	}
	logger.Info("step 1/3: extracting audio")
	if err := r.extractor.ExtractAudio(ctx, r.cfg.SourcePath, r.cfg.WavPath); err != nil {
		return r.fail(logger, run, fmt.Errorf("extract audio: %w", err))
	}
	logger.Info("extracted audio", slog.String("wav", r.cfg.WavPath))

	// Step 2: split long recordings
	if err := run.TransitionTo(StatusSegmenting); err != nil {
		return run, err
	}
	logger.Info("step 2/3: checking length and splitting if necessary")
	segments, err := r.splitter.Split(ctx, r.cfg.WavPath, r.cfg.Split)
	if err != nil {
		return r.fail(logger, run, fmt.Errorf("split audio: %w", err))
	}
	run.SetSegments(segments)
	logger.Info("segmentation done",
		slog.Int("segments", len(segments)),
		slog.Bool("split", run.Split),
	)

	// Step 3: transcribe
	if err := run.TransitionTo(StatusTranscribing); err != nil {
		return run, err
	}
	logger.Info("step 3/3: converting audio to text")
	res, err := r.transcriber.Transcribe(ctx, segments, r.cfg.TextPath)
	if res != nil {
		run.SetCounters(res.AudioMs, len(res.Chunks), res.Recognized(), res.Unrecognized(), res.RequestFailures())
	}
	if err != nil {
		return r.fail(logger, run, fmt.Errorf("transcribe: %w", err))
	}

	if r.publisher != nil {
		if err := run.TransitionTo(StatusPublishing); err != nil {
			return run, err
		}
		url, err := r.publish(ctx, run)
		if err != nil {
			return r.fail(logger, run, err)
		}
		run.SetTranscriptURL(url)
		logger.Info("transcript published", slog.String("url", url))
	}

	if err := run.Complete(); err != nil {
		return run, err
	}
	logger.Info("run completed",
		slog.String("text", r.cfg.TextPath),
		slog.Duration("elapsed", run.Duration()),
	)
	return run, nil
}

// publish uploads the transcript under <run id>/<file name>.
func (r *Runner) publish(ctx context.Context, run *Run) (string, error) {
	f, err := os.Open(r.cfg.TextPath) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}
	defer func() { _ = f.Close() }()

	key := r.publisher.ObjectKey(path.Join(run.ID, filepath.Base(r.cfg.TextPath)))
	url, err := r.publisher.UploadToS3(ctx, key, f)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return url, nil
}

func (r *Runner) fail(logger *slog.Logger, run *Run, err error) (*Run, error) {
	logger.Error("run failed",
		slog.String("stage", string(run.GetStatus())),
		slog.String("error", err.Error()),
	)
	_ = run.Fail(err.Error())
	return run, err
}
