package cvbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeTrackerFindsTransitions(t *testing.T) {
	var e edgeTracker

	falling, rising := e.update(100, 0)
	assert.False(t, falling)
	assert.False(t, rising)

	falling, _ = e.update(-200, 0)
	assert.True(t, falling)

	_, rising = e.update(100, 0)
	assert.True(t, rising)

	// No transition while staying on one side.
	falling, rising = e.update(150, 0)
	assert.False(t, falling)
	assert.False(t, rising)
}

func TestVsyncDetectorRecognizesPulseTrain(t *testing.T) {
	var v vsyncDetector

	pos := uint64(0)
	assert.False(t, v.fallingEdge(pos))

	// Half-line spaced edges enter the region after six intervals.
	for i := 0; i < 8; i++ {
		pos += 1280
		assert.False(t, v.fallingEdge(pos))
	}
	assert.True(t, v.inRegion())

	// First full-line interval ends the region.
	pos += 2560
	assert.True(t, v.fallingEdge(pos))
	assert.False(t, v.inRegion())
}

func TestVsyncDetectorIgnoresIsolatedHalfLines(t *testing.T) {
	var v vsyncDetector

	pos := uint64(0)
	v.fallingEdge(pos)

	// Alternating half- and full-line intervals never accumulate six
	// consecutive half-line hits.
	for i := 0; i < 20; i++ {
		pos += 1280
		assert.False(t, v.fallingEdge(pos))
		pos += 2560
		assert.False(t, v.fallingEdge(pos))
	}
	assert.False(t, v.inRegion())
}

func TestVsyncDetectorResetsOnOddInterval(t *testing.T) {
	var v vsyncDetector

	pos := uint64(0)
	v.fallingEdge(pos)
	for i := 0; i < 6; i++ {
		pos += 1280
		v.fallingEdge(pos)
	}
	assert.True(t, v.inRegion())

	// A glitch interval drops the region without completing it.
	pos += 137
	assert.False(t, v.fallingEdge(pos))
	assert.False(t, v.inRegion())
}

func TestHsyncDetectorAcceptsNominalPulse(t *testing.T) {
	var h hsyncDetector

	h.fallingEdge(1000, 42.5)
	phase, ok := h.risingEdge(1188)

	assert.True(t, ok)
	assert.Equal(t, 42.5, phase)
}

func TestHsyncDetectorRejectsOutOfWindowWidths(t *testing.T) {
	var h hsyncDetector

	// Equalizing pulse, too narrow.
	h.fallingEdge(1000, 1)
	_, ok := h.risingEdge(1092)
	assert.False(t, ok)

	// Serration pulse, too wide.
	h.fallingEdge(5000, 2)
	_, ok = h.risingEdge(5000 + 1092)
	assert.False(t, ok)

	// Rising edge without a pulse start.
	_, ok = h.risingEdge(9000)
	assert.False(t, ok)
}
