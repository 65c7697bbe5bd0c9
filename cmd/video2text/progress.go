package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progressReporter draws one console bar per waveform file when out is a
// terminal and falls back to debug logs otherwise.
type progressReporter struct {
	out         io.Writer
	interactive bool
	logger      *slog.Logger

	bar  *progressbar.ProgressBar
	path string
}

func newProgressReporter(out io.Writer, logger *slog.Logger) *progressReporter {
	return &progressReporter{
		out:         out,
		interactive: isTerminal(out),
		logger:      logger,
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Report implements transcribe.ProgressFunc.
func (p *progressReporter) Report(path string, doneMs, totalMs int64) {
	if !p.interactive {
		p.logger.Debug("transcription progress",
			slog.String("path", path),
			slog.Int64("done_ms", doneMs),
			slog.Int64("total_ms", totalMs),
		)
		return
	}

	if p.bar == nil || p.path != path {
		p.Finish()
		p.path = path
		p.bar = progressbar.NewOptions64(totalMs,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("Transcribing "+filepath.Base(path)),
			progressbar.OptionSetItsString("ms"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(0),
		)
	}

	_ = p.bar.Set64(doneMs)
	if doneMs >= totalMs {
		p.Finish()
	}
}

// Finish closes the current bar, if any.
func (p *progressReporter) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.out)
	p.bar = nil
	p.path = ""
}
