package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Chunk is one fixed-length read from a waveform, re-encoded as a
// standalone WAV payload.
type Chunk struct {
	// Index is the zero-based position of the chunk within its file.
	Index int
	// Start is the offset of the first frame from the start of the file.
	Start time.Duration
	// Length is the duration actually read. It is shorter than the
	// requested length for the final chunk.
	Length time.Duration
	// WAV holds the encoded chunk, header included.
	WAV []byte
}

// ChunkReader reads a WAV file sequentially in fixed-length chunks.
type ChunkReader struct {
	f      *os.File
	dec    *wav.Decoder
	info   Info
	frames int64
	pos    int64
	index  int
}

// OpenChunks opens path for sequential chunked reading. The caller must
// Close the returned reader.
func OpenChunks(path string, length time.Duration) (*ChunkReader, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: chunk=%s", ErrInvalidLength, length)
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	dec, info, err := openDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	frames := info.framesFor(length)
	if frames <= 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: chunk shorter than one sample", ErrInvalidLength)
	}

	return &ChunkReader{f: f, dec: dec, info: info, frames: frames}, nil
}

// Info returns the layout and length of the underlying file.
func (r *ChunkReader) Info() Info {
	return r.info
}

// Next reads the next chunk. Reads past the end of the data return an
// empty chunk rather than an error, so callers may issue a fixed number
// of reads regardless of the remaining duration.
func (r *ChunkReader) Next() (Chunk, error) {
	buf, err := readFrames(r.dec, r.info, r.frames)
	if err != nil {
		return Chunk{}, fmt.Errorf("read chunk %d: %w", r.index, err)
	}

	mf := &memFile{}
	if err := encodeTo(mf, r.info, buf); err != nil {
		return Chunk{}, fmt.Errorf("encode chunk %d: %w", r.index, err)
	}

	read := int64(buf.NumFrames())
	rate := time.Duration(r.info.SampleRate)
	chunk := Chunk{
		Index:  r.index,
		Start:  time.Duration(r.pos) * time.Second / rate,
		Length: time.Duration(read) * time.Second / rate,
		WAV:    mf.Bytes(),
	}
	r.pos += read
	r.index++
	return chunk, nil
}

// Close releases the underlying file.
func (r *ChunkReader) Close() error {
	return r.f.Close()
}
