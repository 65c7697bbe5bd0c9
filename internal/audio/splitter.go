// Package audio provides interfaces and implementations for audio processing.
package audio

import (
	"context"
	"time"
)

// SplitOpts configures the behavior of audio splitting.
type SplitOpts struct {
	// SegmentLength is the duration of each segment written when the input
	// is split. The final segment may be shorter.
	// Default: 5 minutes.
	SegmentLength time.Duration

	// SplitThreshold is the duration above which the input is split.
	// Inputs at or below the threshold are returned unchanged.
	// It is independent of SegmentLength.
	// Default: 10 minutes.
	SplitThreshold time.Duration
}

// DefaultSplitOpts returns the default options for audio splitting.
func DefaultSplitOpts() SplitOpts {
	return SplitOpts{
		SegmentLength:  5 * time.Minute,
		SplitThreshold: 10 * time.Minute,
	}
}

// Splitter defines the interface for splitting waveform files into
// fixed-length segments.
type Splitter interface {
	// Split returns the ordered waveform paths covering inputWav.
	//
	// If the audio is shorter than or equal to SplitThreshold, it returns
	// a single-element slice holding inputWav itself and writes nothing.
	// Otherwise it writes consecutive segments next to inputWav, named with
	// PartPath, and returns their paths in chronological order. The caller
	// is responsible for removing the segment files.
	Split(ctx context.Context, inputWav string, opts SplitOpts) ([]string, error)
}
