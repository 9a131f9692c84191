// Package simulator produces a synthetic composite video sample stream
// with correct sync structure. It is used as a signal source when no
// capture hardware is attached and as a known-good input in tests.
package simulator

import (
	"math/rand"

	"cvbsd/pkg/cvbs"
)

// Pattern selects the picture content of the generated signal.
type Pattern int

const (
	// PatternBars is a 7-bar 75 percent color bar test pattern
	// (luma only).
	PatternBars Pattern = iota
	// PatternRamp is a horizontal black-to-white luminance ramp.
	PatternRamp
	// PatternFlat is a uniform mid-gray field.
	PatternFlat
)

// Signal levels in 12-bit ADC units. Sync tips sit below blanking,
// picture content between black and white.
const (
	syncLevel  = -560
	blankLevel = 0
	blackLevel = 105
	whiteLevel = 1400
)

// Pulse widths in samples at 40 MS/s.
const (
	hsyncWidth      = 188 // 4.7 us line sync
	eqWidth         = 92  // 2.35 us equalizing pulse
	serrationGap    = 188 // 4.7 us gap in a broad vsync pulse
	backPorchEnd    = 280
	activeWidth     = 2080
	equalizingLines = 3
	serrationLines  = 3
)

// Luma of the 75 percent color bars: white, yellow, cyan, green,
// magenta, red, blue.
var barLuma = [7]float64{0.75, 0.66, 0.53, 0.44, 0.31, 0.22, 0.09}

// Generator emits an endless interlaced frame sequence for one video
// format. It is not safe for concurrent use.
type Generator struct {
	format cvbs.Format
	geo    cvbs.Geometry
	period int

	pattern Pattern
	noise   int
	rng     *rand.Rand

	line int // frame line, 0-based
	pos  int // sample within line
}

// New creates a generator for the given format and pattern.
func New(format cvbs.Format, pattern Pattern) *Generator {
	geo := cvbs.GeometryOf(format)
	return &Generator{
		format:  format,
		geo:     geo,
		period:  int(geo.LinePeriod),
		pattern: pattern,
		rng:     rand.New(rand.NewSource(1)),
	}
}

// SetNoise adds uniform noise of the given peak amplitude (ADC units)
// to every sample. Zero disables noise.
func (g *Generator) SetNoise(amplitude int) {
	g.noise = amplitude
}

// Format returns the generated video format.
func (g *Generator) Format() cvbs.Format {
	return g.format
}

// Fill writes len(buf) samples of the running signal into buf.
func (g *Generator) Fill(buf []int16) {
	for i := range buf {
		buf[i] = g.next()
	}
}

// FieldSamples returns the number of samples in one field.
func (g *Generator) FieldSamples() int {
	return g.geo.FieldLines * g.period
}

func (g *Generator) next() int16 {
	v := g.level(g.line, g.pos)

	g.pos++
	if g.pos == g.period {
		g.pos = 0
		g.line++
		if g.line == g.geo.TotalLines {
			g.line = 0
		}
	}

	if g.noise > 0 {
		v += g.rng.Intn(2*g.noise+1) - g.noise
	}
	if v > 2047 {
		v = 2047
	} else if v < -2048 {
		v = -2048
	}
	return int16(v)
}

func (g *Generator) level(line, pos int) int {
	field := 0
	fieldLine := line
	if line >= g.geo.FieldLines {
		field = 1
		fieldLine = line - g.geo.FieldLines
	}

	half := g.period / 2

	switch {
	case fieldLine < equalizingLines,
		fieldLine >= equalizingLines+serrationLines &&
			fieldLine < 2*equalizingLines+serrationLines:
		// Equalizing pulses, two narrow pulses per line.
		if pos%half < eqWidth {
			return syncLevel
		}
		return blankLevel

	case fieldLine < equalizingLines+serrationLines:
		// Broad vertical sync pulses with a serration gap before each
		// half-line boundary.
		if pos%half < half-serrationGap {
			return syncLevel
		}
		return blankLevel
	}

	// Normal line: sync, back porch, then content.
	if pos < hsyncWidth {
		return syncLevel
	}
	if pos < backPorchEnd {
		return blankLevel
	}

	activeLine := fieldLine - g.geo.ActiveStart
	if activeLine < 0 || activeLine >= g.geo.FieldHeight {
		return blankLevel
	}

	x := pos - backPorchEnd
	if x >= activeWidth {
		return blankLevel
	}
	return g.luma(field, activeLine, x)
}

func (g *Generator) luma(field, line, x int) int {
	var y float64
	switch g.pattern {
	case PatternRamp:
		y = float64(x) / float64(activeWidth)
	case PatternFlat:
		y = 0.5
	default:
		y = barLuma[x*len(barLuma)/activeWidth]
	}
	return blackLevel + int(y*float64(whiteLevel-blackLevel))
}
