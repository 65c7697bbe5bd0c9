package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage_WriteText(t *testing.T) {
	storage := NewLocalStorage()
	ctx := context.Background()

	t.Run("writes text and creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out", "output.txt")

		if err := storage.WriteText(ctx, path, "hello world "); err != nil {
			t.Fatalf("WriteText() error = %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		if string(content) != "hello world " {
			t.Errorf("got %q, want %q", string(content), "hello world ")
		}
	})

	t.Run("truncates existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "output.txt")
		if err := os.WriteFile(path, []byte("a much longer previous transcript"), 0o600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		if err := storage.WriteText(ctx, path, "short"); err != nil {
			t.Fatalf("WriteText() error = %v", err)
		}

		content, _ := os.ReadFile(path)
		if string(content) != "short" {
			t.Errorf("got %q, want %q", string(content), "short")
		}
	})

	t.Run("writes utf-8 unchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "output.txt")
		text := "café naïve 日本語 "

		if err := storage.WriteText(ctx, path, text); err != nil {
			t.Fatalf("WriteText() error = %v", err)
		}

		content, _ := os.ReadFile(path)
		if !bytes.Equal(content, []byte(text)) {
			t.Errorf("got %q, want %q", string(content), text)
		}
	})

	t.Run("fails when target is a directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := storage.WriteText(ctx, dir, "text"); err == nil {
			t.Error("expected error writing onto a directory")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := storage.WriteText(ctx, filepath.Join(t.TempDir(), "x.txt"), "data")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_CleanupTemp(t *testing.T) {
	storage := NewLocalStorage()
	ctx := context.Background()

	t.Run("removes files", func(t *testing.T) {
		dir := t.TempDir()
		var paths []string
		for _, name := range []string{"a_part1.wav", "a_part2.wav", "a_part3.wav"} {
			p := filepath.Join(dir, name)
			if err := os.WriteFile(p, []byte("data"), 0o600); err != nil {
				t.Fatalf("failed to create file: %v", err)
			}
			paths = append(paths, p)
		}

		if err := storage.CleanupTemp(ctx, paths); err != nil {
			t.Fatalf("CleanupTemp() error = %v", err)
		}

		for _, p := range paths {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				t.Errorf("file %s still exists", p)
			}
		}
	})

	t.Run("ignores non-existent files", func(t *testing.T) {
		err := storage.CleanupTemp(ctx, []string{"/non/existent/file"})
		if err != nil {
			t.Errorf("CleanupTemp() should ignore non-existent files, got %v", err)
		}
	})

	t.Run("continues after a failure", func(t *testing.T) {
		dir := t.TempDir()

		// A non-empty directory cannot be removed with os.Remove.
		blocker := filepath.Join(dir, "blocker_part1.wav")
		if err := os.MkdirAll(filepath.Join(blocker, "child"), 0o750); err != nil {
			t.Fatalf("failed to create blocker: %v", err)
		}
		removable := filepath.Join(dir, "ok_part2.wav")
		if err := os.WriteFile(removable, []byte("data"), 0o600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		err := storage.CleanupTemp(ctx, []string{blocker, removable})
		if err == nil {
			t.Fatal("expected error for blocker directory")
		}
		if _, statErr := os.Stat(removable); !os.IsNotExist(statErr) {
			t.Error("file after the failing one should still be removed")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := storage.CleanupTemp(ctx, []string{"/some/path"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_UploadToS3(t *testing.T) {
	storage := NewLocalStorage()
	ctx := context.Background()

	_, err := storage.UploadToS3(ctx, "key", bytes.NewReader([]byte("data")))
	if !errors.Is(err, ErrS3NotConfigured) {
		t.Errorf("expected ErrS3NotConfigured, got %v", err)
	}
}
