package wavwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	w, err := New(path, 40000000)
	require.NoError(t, err)

	require.NoError(t, w.WriteSamples([]int16{-560, 0, 105, 1400}))
	require.NoError(t, w.WriteSamples([]int16{2047, -2048}))
	assert.Equal(t, uint64(6), w.Samples())
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint32(40000000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, []int{-560, 0, 105, 1400, 2047, -2048}, buf.Data)
}

func TestEmptyChunkIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	w, err := New(path, 40000000)
	require.NoError(t, err)
	require.NoError(t, w.WriteSamples(nil))
	assert.Zero(t, w.Samples())
	require.NoError(t, w.Close())
}

func TestCreateFailure(t *testing.T) {
	_, err := New("/nonexistent/dir/capture.wav", 40000000)
	assert.Error(t, err)
}
