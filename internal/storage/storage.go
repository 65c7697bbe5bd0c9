// Package storage provides transcript persistence and temporary file
// cleanup. It defines the Storage interface (port) and implementations for
// local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for transcript output and temporary file
// handling. Implementations write the transcript locally and optionally
// publish it to S3.
type Storage interface {
	// WriteText writes text to path as UTF-8, creating parent directories
	// and truncating any existing file.
	WriteText(ctx context.Context, path, text string) error

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// UploadToS3 uploads data under key and returns the object URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
