package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbsd/pkg/cvbs"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func int16LE(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(Config{Type: "usb"})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestSimulatorSourceFillsChunks(t *testing.T) {
	src, err := New(Config{Type: "simulator", Format: cvbs.FormatPAL})
	require.NoError(t, err)
	defer src.Close()

	buf := make([]int16, 4096)
	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	// A sync pulse is present somewhere in the first chunk.
	var min int16
	for _, s := range buf {
		if s < min {
			min = s
		}
	}
	assert.Less(t, min, int16(-400))
}

func TestSimulatorSourceRejectsUnknownPattern(t *testing.T) {
	_, err := New(Config{Type: "simulator", Pattern: "checker"})
	assert.ErrorIs(t, err, ErrUnknownPattern)
}

func TestRawFilePlayback(t *testing.T) {
	path := writeTempFile(t, int16LE(-560, 0, 105, 1400))

	src, err := New(Config{Type: "raw", Path: path})
	require.NoError(t, err)
	defer src.Close()

	buf := make([]int16, 4)
	n, err := src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	assert.Equal(t, []int16{-560, 0, 105, 1400}, buf)

	_, err = src.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRawFileLoops(t *testing.T) {
	path := writeTempFile(t, int16LE(1, 2))

	src, err := New(Config{Type: "raw", Path: path, Loop: true})
	require.NoError(t, err)
	defer src.Close()

	buf := make([]int16, 6)
	n, err := src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	assert.Equal(t, []int16{1, 2, 1, 2, 1, 2}, buf)
}

func TestRawFileMissing(t *testing.T) {
	_, err := New(Config{Type: "raw", Path: "/nonexistent/capture.s16"})
	assert.Error(t, err)
}

func TestPackedFileExtractsChannel(t *testing.T) {
	// Two words: channel a = 2048, 0 (clipped); channel b = 2148, 2248.
	words := []byte{
		0x00, 0x08, 0x64, 0x08,
		0x00, 0x00, 0xc8, 0x08,
	}
	path := writeTempFile(t, words)

	src, err := New(Config{Type: "misrc", Path: path, Channel: "b"})
	require.NoError(t, err)
	defer src.Close()

	buf := make([]int16, 2)
	n, err := src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, []int16{100, 200}, buf)

	stats, ok := src.(interface{ ClipStats() (uint64, int16) })
	require.True(t, ok)
	clipped, peak := stats.ClipStats()
	assert.Zero(t, clipped)
	assert.Equal(t, int16(200), peak)
}

func TestPackedFileRejectsUnknownChannel(t *testing.T) {
	path := writeTempFile(t, nil)
	_, err := New(Config{Type: "misrc", Path: path, Channel: "c"})
	assert.ErrorIs(t, err, ErrUnknownChannel)
}
