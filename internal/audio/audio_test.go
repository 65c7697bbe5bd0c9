package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestWAV writes a 16-bit PCM WAV with a deterministic ramp signal.
func createTestWAV(t *testing.T, path string, sampleRate, channels int, frames int64) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	data := make([]int, int(frames)*channels)
	for i := range data {
		data[i] = i%2000 - 1000
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

// readSamples decodes every sample of a WAV file.
func readSamples(t *testing.T, path string) []int {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile(), "invalid wav: %s", path)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	return buf.Data
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPartPath(t *testing.T) {
	tests := []struct {
		in    string
		index int
		want  string
	}{
		{"/tmp/output_audio.wav", 1, "/tmp/output_audio_part1.wav"},
		{"/tmp/output_audio.wav", 12, "/tmp/output_audio_part12.wav"},
		{"rec.v2.wav", 3, "rec.v2_part3.wav"},
		{"noext", 2, "noext_part2"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, PartPath(tt.in, tt.index))
		})
	}
}

func TestIsSegmentPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/audio_part1.wav", true},
		{"/tmp/audio_part42.wav", true},
		{PartPath("/data/x.wav", 7), true},
		{"/tmp/audio.wav", false},
		{"/tmp/audio_part.wav", false},
		{"/tmp/audio_part0.wav", false},
		{"/tmp/_part1/audio.wav", false},
		{"/tmp/audio_party.wav", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSegmentPath(tt.path))
		})
	}
}

func TestProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.wav")
	createTestWAV(t, path, 8000, 2, 8000*3+4)

	info, err := Probe(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, info.SampleRate)
	assert.Equal(t, 2, info.NumChannels)
	assert.Equal(t, 16, info.BitDepth)
	assert.Equal(t, int64(8000*3+4), info.Frames)
	assert.Equal(t, int64(3000), info.DurationMs())
	assert.Equal(t, 3*time.Second+500*time.Microsecond, info.Duration())
}

func TestProbe_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a riff file at all"), 0o600))

	_, err := Probe(path)
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestProbe_MissingFile(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestDefaultSplitOpts(t *testing.T) {
	opts := DefaultSplitOpts()

	assert.Equal(t, 5*time.Minute, opts.SegmentLength)
	assert.Equal(t, 10*time.Minute, opts.SplitThreshold)
}

func TestWAVSplitter_ShortAudioIsNotSplit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "short.wav")
	createTestWAV(t, input, 1000, 1, 3*60*1000)

	paths, err := NewWAVSplitter(nil).Split(context.Background(), input, DefaultSplitOpts())
	require.NoError(t, err)

	assert.Equal(t, []string{input}, paths)
	assert.Equal(t, []string{"short.wav"}, dirEntries(t, dir))
}

func TestWAVSplitter_ThresholdBoundary(t *testing.T) {
	opts := SplitOpts{SegmentLength: 300 * time.Millisecond, SplitThreshold: 600 * time.Millisecond}

	t.Run("exactly at threshold is not split", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "exact.wav")
		createTestWAV(t, input, 8000, 1, 8000*600/1000)

		paths, err := NewWAVSplitter(nil).Split(context.Background(), input, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{input}, paths)
		assert.Len(t, dirEntries(t, dir), 1)
	})

	t.Run("one millisecond over threshold is split", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "over.wav")
		createTestWAV(t, input, 8000, 1, 8000*601/1000)

		paths, err := NewWAVSplitter(nil).Split(context.Background(), input, opts)
		require.NoError(t, err)
		require.Len(t, paths, 3)

		info, err := Probe(paths[0])
		require.NoError(t, err)
		assert.Equal(t, int64(300), info.DurationMs())

		last, err := Probe(paths[2])
		require.NoError(t, err)
		assert.Equal(t, int64(1), last.DurationMs())
	})
}

func TestWAVSplitter_TwentyTwoMinutes(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "output_audio.wav")
	createTestWAV(t, input, 1000, 1, 22*60*1000)

	paths, err := NewWAVSplitter(nil).Split(context.Background(), input, DefaultSplitOpts())
	require.NoError(t, err)
	require.Len(t, paths, 5)

	wantMs := []int64{300000, 300000, 300000, 300000, 120000}
	for i, p := range paths {
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("output_audio_part%d.wav", i+1)), p)
		assert.True(t, IsSegmentPath(p))

		info, err := Probe(p)
		require.NoError(t, err)
		assert.Equal(t, wantMs[i], info.DurationMs(), "segment %d", i+1)
	}

	_, err = os.Stat(input)
	assert.NoError(t, err, "original waveform must remain")
}

func TestWAVSplitter_SegmentCountHasNoOffByOne(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "exact_multiple.wav")
	// 900 ms is an exact multiple of the 300 ms segment length.
	createTestWAV(t, input, 8000, 1, 8000*900/1000)

	opts := SplitOpts{SegmentLength: 300 * time.Millisecond, SplitThreshold: 600 * time.Millisecond}
	paths, err := NewWAVSplitter(nil).Split(context.Background(), input, opts)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

func TestWAVSplitter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "stereo.wav")
	createTestWAV(t, input, 8000, 2, 8000*2+123)

	opts := SplitOpts{SegmentLength: 700 * time.Millisecond, SplitThreshold: time.Second}
	paths, err := NewWAVSplitter(nil).Split(context.Background(), input, opts)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	var joined []int
	var totalFrames int64
	for _, p := range paths {
		joined = append(joined, readSamples(t, p)...)
		info, err := Probe(p)
		require.NoError(t, err)
		totalFrames += info.Frames
	}

	original := readSamples(t, input)
	assert.Equal(t, original, joined)
	assert.Equal(t, int64(8000*2+123), totalFrames)
}

func TestWAVSplitter_WriteFailureKeepsEarlierSegments(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "long.wav")
	createTestWAV(t, input, 8000, 1, 8000)

	// A directory where the second segment should go makes its create fail.
	require.NoError(t, os.Mkdir(PartPath(input, 2), 0o750))

	opts := SplitOpts{SegmentLength: 400 * time.Millisecond, SplitThreshold: 500 * time.Millisecond}
	_, err := NewWAVSplitter(nil).Split(context.Background(), input, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)

	_, statErr := os.Stat(PartPath(input, 1))
	assert.NoError(t, statErr, "segments written before the failure are not rolled back")
}

func TestWAVSplitter_InvalidOpts(t *testing.T) {
	_, err := NewWAVSplitter(nil).Split(context.Background(), "unused.wav", SplitOpts{})
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestWAVSplitter_NonExistentFile(t *testing.T) {
	_, err := NewWAVSplitter(nil).Split(context.Background(), "/nonexistent/file.wav", DefaultSplitOpts())
	assert.Error(t, err)
}

func TestWAVSplitter_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cancel.wav")
	createTestWAV(t, input, 8000, 1, 8000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := SplitOpts{SegmentLength: 100 * time.Millisecond, SplitThreshold: 200 * time.Millisecond}
	_, err := NewWAVSplitter(nil).Split(ctx, input, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkReader_FixedReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.wav")
	createTestWAV(t, path, 1000, 1, 25*1000)

	r, err := OpenChunks(path, 10*time.Second)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, int64(25000), r.Info().DurationMs())

	wantStart := []time.Duration{0, 10 * time.Second, 20 * time.Second, 25 * time.Second}
	wantLen := []time.Duration{10 * time.Second, 10 * time.Second, 5 * time.Second, 0}
	var samples []int
	for i := range wantStart {
		c, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, wantStart[i], c.Start)
		assert.Equal(t, wantLen[i], c.Length)

		dec := wav.NewDecoder(bytes.NewReader(c.WAV))
		require.True(t, dec.IsValidFile(), "chunk %d payload must be a valid wav", i)
		buf, err := dec.FullPCMBuffer()
		require.NoError(t, err)
		samples = append(samples, buf.Data...)
	}

	assert.Equal(t, readSamples(t, path), samples)
}

func TestOpenChunks_InvalidLength(t *testing.T) {
	_, err := OpenChunks("unused.wav", 0)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestMemFile_SeekAndOverwrite(t *testing.T) {
	m := &memFile{}
	_, err := m.Write([]byte("hello world"))
	require.NoError(t, err)

	pos, err := m.Seek(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	_, err = m.Write([]byte("HELLO"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO world", string(m.Bytes()))

	_, err = m.Seek(-1, 0)
	assert.Error(t, err)
}
