package transcribe

import (
	"errors"

	"github.com/maauso/video2text/internal/stt"
)

// ChunkResult is the outcome of one recognition request.
type ChunkResult struct {
	Path    string
	Index   int
	StartMs int64
	EndMs   int64
	Text    string
	// Err is nil on success and otherwise wraps stt.ErrRequest or
	// stt.ErrUnknownValue.
	Err error
}

// OK reports whether the chunk was recognized.
func (c ChunkResult) OK() bool {
	return c.Err == nil
}

// Result summarizes a Transcribe call.
type Result struct {
	TextPath   string
	Transcript string
	Files      int
	AudioMs    int64
	Chunks     []ChunkResult
	// Removed lists the segment files deleted after the transcript was
	// written.
	Removed []string
}

// Recognized returns the number of chunks that produced text.
func (r *Result) Recognized() int {
	n := 0
	for _, c := range r.Chunks {
		if c.OK() {
			n++
		}
	}
	return n
}

// Skipped returns the number of chunks that contributed no text.
func (r *Result) Skipped() int {
	return len(r.Chunks) - r.Recognized()
}

// RequestFailures returns the number of chunks skipped because the
// recognizer could not be reached or rejected the request.
func (r *Result) RequestFailures() int {
	return r.count(stt.ErrRequest)
}

// Unrecognized returns the number of chunks in which no speech was found.
func (r *Result) Unrecognized() int {
	return r.count(stt.ErrUnknownValue)
}

func (r *Result) count(target error) int {
	n := 0
	for _, c := range r.Chunks {
		if c.Err != nil && errors.Is(c.Err, target) {
			n++
		}
	}
	return n
}
