package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// LocalStorage implements the Storage interface using local disk.
// It does not support S3 operations unless wrapped with S3Storage.
type LocalStorage struct {
	fileMode os.FileMode
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{fileMode: 0o644}
}

// WriteText writes text to path, creating the parent directory if needed.
func (s *LocalStorage) WriteText(ctx context.Context, path, text string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	// #nosec G306 - transcripts are meant to be readable by other tools
	if err := os.WriteFile(path, []byte(text), s.fileMode); err != nil {
		return fmt.Errorf("write text file: %w", err)
	}
	return nil
}

// CleanupTemp removes the specified temporary files.
// It continues cleanup even if some files fail to delete and returns
// every failure joined together. Files that are already gone are ignored.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp file %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// UploadToS3 is not supported by LocalStorage and returns ErrS3NotConfigured.
func (s *LocalStorage) UploadToS3(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}

// Verify interface implementation at compile time.
var _ Storage = (*LocalStorage)(nil)
