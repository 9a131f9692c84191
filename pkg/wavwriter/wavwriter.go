// Package wavwriter records an extracted sample channel to a 16-bit
// PCM WAV file. The 12-bit ADC values are stored unscaled, so a
// recording can be played back through the raw file source without any
// level conversion.
package wavwriter

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Writer streams int16 sample chunks into a mono WAV file.
// It is not safe for concurrent use.
type Writer struct {
	f       *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	samples uint64
}

// New creates the output file. sampleRate is written to the header as
// given, the capture rate is well above audio rates but the format
// carries it fine.
func New(path string, sampleRate int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	return &Writer{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// WriteSamples appends one chunk to the recording.
func (w *Writer) WriteSamples(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	w.samples += uint64(len(samples))
	return nil
}

// Samples returns the number of samples written so far.
func (w *Writer) Samples() uint64 {
	return w.samples
}

// Close finalizes the WAV header and closes the file.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("finalize wav file: %w", err)
	}
	return w.f.Close()
}
