// Package pipeline provides the Run aggregate and the Runner that drives a
// video through extraction, segmentation and transcription.
package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current stage of a Run.
type Status string

const (
	// StatusPending indicates the run has been created but not started.
	StatusPending Status = "PENDING"
	// StatusExtracting indicates the audio track is being extracted.
	StatusExtracting Status = "EXTRACTING"
	// StatusSegmenting indicates the waveform is being split.
	StatusSegmenting Status = "SEGMENTING"
	// StatusTranscribing indicates chunks are being sent to the recognizer.
	StatusTranscribing Status = "TRANSCRIBING"
	// StatusPublishing indicates the transcript is being uploaded.
	StatusPublishing Status = "PUBLISHING"
	// StatusCompleted indicates the transcript was written.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates a stage ended the run with an error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:      {StatusExtracting, StatusFailed},
	StatusExtracting:   {StatusSegmenting, StatusFailed},
	StatusSegmenting:   {StatusTranscribing, StatusFailed},
	StatusTranscribing: {StatusPublishing, StatusCompleted, StatusFailed},
	StatusPublishing:   {StatusCompleted, StatusFailed},
	StatusCompleted:    {},
	StatusFailed:       {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Run is one pass of the pipeline over a single source video.
type Run struct {
	mu sync.RWMutex

	// ID is the unique identifier for this run.
	ID string
	// Status is the current stage.
	Status Status
	// Error contains the error message if the run failed.
	Error string
	// SourcePath is the input video.
	SourcePath string
	// WavPath is the extracted waveform. It is never deleted.
	WavPath string
	// TextPath is the transcript destination.
	TextPath string
	// Segments are the waveform files handed to the transcriber, in order.
	Segments []string
	// Split is true when Segments are temporary part files.
	Split bool
	// AudioMs is the total duration transcribed.
	AudioMs int64
	// Chunks is the number of recognition requests issued.
	Chunks int
	// Recognized is the number of chunks that produced text.
	Recognized int
	// Unrecognized is the number of chunks with no intelligible speech.
	Unrecognized int
	// RequestFailures is the number of chunks whose request failed.
	RequestFailures int
	// TranscriptURL is the S3 URL if the transcript was published.
	TranscriptURL string
	// CreatedAt is when the run was created.
	CreatedAt time.Time
	// UpdatedAt is when the run was last updated.
	UpdatedAt time.Time
	// StartedAt is when extraction started.
	StartedAt time.Time
	// CompletedAt is when the run reached a terminal state.
	CompletedAt time.Time
}

// NewRun creates a new Run with a generated ID and initial PENDING status.
func NewRun(sourcePath, wavPath, textPath string) *Run {
	return NewRunWithID(uuid.NewString(), sourcePath, wavPath, textPath)
}

// NewRunWithID creates a new Run with the specified ID.
// Useful for testing or when ID needs to be externally generated.
func NewRunWithID(runID, sourcePath, wavPath, textPath string) *Run {
	now := time.Now()
	return &Run{
		ID:         runID,
		Status:     StatusPending,
		SourcePath: sourcePath,
		WavPath:    wavPath,
		TextPath:   textPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TransitionTo attempts to change the run status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (r *Run) TransitionTo(status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !canTransition(r.Status, status) {
		return ErrInvalidTransition
	}

	r.Status = status
	r.UpdatedAt = time.Now()

	switch status {
	case StatusExtracting:
		r.StartedAt = r.UpdatedAt
	case StatusCompleted, StatusFailed:
		r.CompletedAt = r.UpdatedAt
	}

	return nil
}

// Complete transitions the run to COMPLETED state.
func (r *Run) Complete() error {
	return r.TransitionTo(StatusCompleted)
}

// Fail transitions the run to FAILED state with an error message.
func (r *Run) Fail(errMsg string) error {
	r.mu.Lock()
	r.Error = errMsg
	r.mu.Unlock()
	return r.TransitionTo(StatusFailed)
}

// GetStatus returns the current run status (thread-safe).
func (r *Run) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// SetSegments records the waveform files produced by the segmenter.
func (r *Run) SetSegments(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Segments = append([]string(nil), paths...)
	r.Split = len(paths) > 1 || (len(paths) == 1 && paths[0] != r.WavPath)
	r.UpdatedAt = time.Now()
}

// SetCounters records the transcription outcome.
func (r *Run) SetCounters(audioMs int64, chunks, recognized, unrecognized, requestFailures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AudioMs = audioMs
	r.Chunks = chunks
	r.Recognized = recognized
	r.Unrecognized = unrecognized
	r.RequestFailures = requestFailures
	r.UpdatedAt = time.Now()
}

// SetTranscriptURL records where the transcript was published.
func (r *Run) SetTranscriptURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TranscriptURL = url
	r.UpdatedAt = time.Now()
}

// Duration returns the wall time between start and completion, or zero
// if the run has not finished.
func (r *Run) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// IsTerminal returns true if the run is in a terminal state.
func (r *Run) IsTerminal() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Clone creates a deep copy of the run for safe reads.
func (r *Run) Clone() *Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &Run{
		ID:              r.ID,
		Status:          r.Status,
		Error:           r.Error,
		SourcePath:      r.SourcePath,
		WavPath:         r.WavPath,
		TextPath:        r.TextPath,
		Segments:        append([]string(nil), r.Segments...),
		Split:           r.Split,
		AudioMs:         r.AudioMs,
		Chunks:          r.Chunks,
		Recognized:      r.Recognized,
		Unrecognized:    r.Unrecognized,
		RequestFailures: r.RequestFailures,
		TranscriptURL:   r.TranscriptURL,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
	}
}
