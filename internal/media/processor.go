// Package media provides audio extraction from video containers.
package media

import "context"

// Extractor defines the interface for pulling the audio track out of a
// video container.
// Implementations should use ffmpeg or similar tools for media manipulation.
type Extractor interface {
	// ExtractAudio opens the container at videoPath and writes its first
	// audio track to wavPath as uncompressed 16-bit PCM WAV, overwriting
	// any existing file.
	//
	// Returns an error wrapping ErrMediaOpen if the container cannot be
	// opened or has no audio track, and one wrapping ErrWrite if the
	// destination cannot be written.
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
}
