// Package stt provides speech-to-text backends that turn a short WAV chunk
// into recognized text.
package stt

import (
	"context"
	"errors"
)

// Static errors shared by every backend. Callers match them with errors.Is
// to decide whether a chunk is skipped.
var (
	// ErrRequest is returned when the backend cannot be reached or rejects
	// the request (network, auth, quota, server error).
	ErrRequest = errors.New("stt: recognition request failed")
	// ErrUnknownValue is returned when the backend answered but found no
	// intelligible speech in the chunk.
	ErrUnknownValue = errors.New("stt: speech not recognized")
)

// Recognizer defines the interface for speech recognition backends.
type Recognizer interface {
	// Recognize sends one WAV-encoded chunk and returns the recognized text.
	// Errors wrap either ErrRequest or ErrUnknownValue.
	Recognize(ctx context.Context, wav []byte) (string, error)

	// Name identifies the backend in logs.
	Name() string
}

// Backend names selectable through configuration.
const (
	BackendOpenAI     = "openai"
	BackendWhisperCPP = "whispercpp"
)
