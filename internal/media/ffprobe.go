package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult is the subset of ffprobe's JSON output the extractor needs.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes a single stream in the container.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// AudioStreamCount returns the number of audio streams discovered.
func (r ProbeResult) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration, or 0 when unavailable.
func (r ProbeResult) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil {
		return 0
	}
	return d
}

// Inspect runs ffprobe against path and decodes its JSON report.
func Inspect(ctx context.Context, binary, path string) (ProbeResult, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return ProbeResult{}, errors.New("ffprobe inspect: empty path")
	}

	// #nosec G204 - binary is set by the application, not user input
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, strings.TrimSpace(stderr.String()))
	}

	var result ProbeResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}
