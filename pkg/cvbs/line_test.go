package cvbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLevels() Levels {
	var e levelEstimator
	e.accumulate(-560)
	e.accumulate(1400)
	e.commit()
	return e.levels
}

func TestDecodeLineNormalizesLuma(t *testing.T) {
	lv := testLevels()

	// Left half black, right half white.
	samples := make([]int16, 2560)
	for i := backPorchSamples; i < len(samples); i++ {
		if i < backPorchSamples+activeVideoSamples/2 {
			samples[i] = 105
		} else {
			samples[i] = 1400
		}
	}

	row := make([]byte, FrameWidth)
	require.True(t, decodeLine(samples, lv, row))

	assert.Less(t, int(row[50]), 30)
	assert.Less(t, int(row[FrameWidth/2-20]), 30)
	assert.Equal(t, byte(255), row[FrameWidth/2+20])
	assert.Equal(t, byte(255), row[FrameWidth-10])
}

func TestDecodeLineClampsOutOfRange(t *testing.T) {
	lv := testLevels()

	samples := make([]int16, 2560)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = -2048
		} else {
			samples[i] = 2047
		}
	}
	// Alternating rails average near zero, below black: clamps to 0.
	row := make([]byte, FrameWidth)
	require.True(t, decodeLine(samples, lv, row))
	for _, px := range row {
		assert.Zero(t, px)
	}
}

func TestDecodeLineRejectsShortBuffer(t *testing.T) {
	lv := testLevels()
	row := make([]byte, FrameWidth)

	assert.False(t, decodeLine(make([]int16, 500), lv, row))
	assert.False(t, decodeLine(nil, lv, row))
}

func TestDecodeLineAveragesChroma(t *testing.T) {
	lv := testLevels()

	// Mid-gray with a strong alternating component riding on it. The
	// 11-tap box average should keep the output nearly flat.
	samples := make([]int16, 2560)
	for i := backPorchSamples; i < len(samples); i++ {
		v := int16(700)
		if i%2 == 0 {
			v += 400
		} else {
			v -= 400
		}
		samples[i] = v
	}

	row := make([]byte, FrameWidth)
	require.True(t, decodeLine(samples, lv, row))

	for px := 10; px < FrameWidth-10; px++ {
		assert.InDelta(t, row[FrameWidth/2], row[px], 12, "pixel %d", px)
	}
}
