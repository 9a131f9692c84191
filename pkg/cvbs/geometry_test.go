package cvbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryOf(t *testing.T) {
	pal := GeometryOf(FormatPAL)
	assert.Equal(t, 625, pal.TotalLines)
	assert.Equal(t, 312, pal.FieldLines)
	assert.Equal(t, 288, pal.FieldHeight)
	assert.Equal(t, 576, pal.FrameHeight)
	assert.Equal(t, 2560.0, pal.LinePeriod)

	ntsc := GeometryOf(FormatNTSC)
	assert.Equal(t, 525, ntsc.TotalLines)
	assert.Equal(t, 262, ntsc.FieldLines)
	assert.Equal(t, 243, ntsc.FieldHeight)
	assert.Equal(t, 486, ntsc.FrameHeight)
	assert.Equal(t, 2540.0, ntsc.LinePeriod)

	// SECAM and unselected formats decode with PAL luma timing.
	assert.Equal(t, pal, GeometryOf(FormatSECAM))
	assert.Equal(t, pal, GeometryOf(FormatUnknown))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"pal":    FormatPAL,
		"PAL":    FormatPAL,
		" ntsc ": FormatNTSC,
		"Secam":  FormatSECAM,
	} {
		got, ok := ParseFormat(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseFormat("cvbs")
	assert.False(t, ok)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "PAL", FormatPAL.String())
	assert.Equal(t, "NTSC", FormatNTSC.String())
	assert.Equal(t, "SECAM", FormatSECAM.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
