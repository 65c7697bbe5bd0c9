package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Static errors for waveform operations.
var (
	// ErrInvalidWAV is returned when a file is not a readable PCM WAV file.
	ErrInvalidWAV = errors.New("audio: invalid WAV file")
	// ErrWrite is returned when a segment file cannot be written.
	ErrWrite = errors.New("audio: write failed")
	// ErrInvalidLength is returned when a segment or chunk length is not positive.
	ErrInvalidLength = errors.New("audio: length must be positive")
)

// RIFF format tags for uncompressed integer PCM.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Info describes the PCM layout and length of a WAV file.
type Info struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	// Frames is the number of sample frames (one sample per channel).
	Frames int64
}

// Duration returns the exact duration of the audio.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 {
		return 0
	}
	return time.Duration(i.Frames) * time.Second / time.Duration(i.SampleRate)
}

// DurationMs returns the duration in whole milliseconds.
func (i Info) DurationMs() int64 {
	if i.SampleRate <= 0 {
		return 0
	}
	return i.Frames * 1000 / int64(i.SampleRate)
}

// framesFor converts a duration to a frame count at the file's sample rate.
func (i Info) framesFor(d time.Duration) int64 {
	return int64(d) * int64(i.SampleRate) / int64(time.Second)
}

// longerThan reports whether the audio is strictly longer than d,
// compared at sample precision.
func (i Info) longerThan(d time.Duration) bool {
	return i.Frames*int64(time.Second) > int64(d)*int64(i.SampleRate)
}

// Probe reads the header of a WAV file and returns its layout and length.
func Probe(path string) (Info, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return Info{}, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, info, err := openDecoder(f)
	return info, err
}

// openDecoder validates the WAV header and positions the decoder at the
// start of the PCM data.
func openDecoder(r io.ReadSeeker) (*wav.Decoder, Info, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, Info{}, ErrInvalidWAV
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, Info{}, fmt.Errorf("%w: unsupported format tag %d", ErrInvalidWAV, dec.WavAudioFormat)
	}

	bytesPerFrame := int64(dec.NumChans) * int64(dec.BitDepth/8)
	if bytesPerFrame == 0 || dec.SampleRate == 0 {
		return nil, Info{}, fmt.Errorf("%w: empty format chunk", ErrInvalidWAV)
	}

	info := Info{
		SampleRate:  int(dec.SampleRate),
		NumChannels: int(dec.NumChans),
		BitDepth:    int(dec.BitDepth),
		Frames:      int64(dec.PCMSize) / bytesPerFrame,
	}
	return dec, info, nil
}

// readFrames reads up to frames sample frames from dec into a new buffer.
// A short buffer means the PCM data is exhausted.
func readFrames(dec *wav.Decoder, info Info, frames int64) (*goaudio.IntBuffer, error) {
	want := int(frames) * info.NumChannels
	out := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: info.NumChannels, SampleRate: info.SampleRate},
		Data:           make([]int, 0, want),
		SourceBitDepth: info.BitDepth,
	}

	// Decoder reads may come back short, so keep pulling until the
	// request is filled or the data chunk is drained.
	step := &goaudio.IntBuffer{Data: make([]int, min(want, readBlockSamples))}
	for len(out.Data) < want {
		remaining := want - len(out.Data)
		if remaining < len(step.Data) {
			step.Data = step.Data[:remaining]
		}
		n, err := dec.PCMBuffer(step)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode pcm: %w", err)
		}
		if n == 0 {
			break
		}
		out.Data = append(out.Data, step.Data[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
	}

	// Drop a trailing partial frame so every buffer is frame-aligned.
	out.Data = out.Data[:len(out.Data)-len(out.Data)%info.NumChannels]
	return out, nil
}

// readBlockSamples bounds a single decoder read.
const readBlockSamples = 64 * 1024

// encodeTo writes buf as a PCM WAV stream with the layout of info.
// The header is always written, even for an empty buffer.
func encodeTo(w io.WriteSeeker, info Info, buf *goaudio.IntBuffer) error {
	enc := wav.NewEncoder(w, info.SampleRate, info.BitDepth, info.NumChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// memFile is an in-memory io.WriteSeeker. The WAV encoder seeks back to
// patch chunk sizes, so a plain bytes.Buffer is not enough.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("memfile: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("memfile: negative position %d", abs)
	}
	m.pos = int(abs)
	return abs, nil
}

// Bytes returns the written contents.
func (m *memFile) Bytes() []byte {
	return m.buf
}
