package cvbs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// runPLL drives the loop with perfectly regular sync edges at the given
// period and start offset, returning the number of line boundaries seen.
func runPLL(p *linePLL, signalPeriod, offset, samples int) (lines int) {
	for pos := 0; pos < samples; pos++ {
		if pos%signalPeriod == offset {
			p.syncEvent(p.phase, uint64(pos))
		}
		if p.advance() {
			lines++
		}
	}
	return lines
}

func TestPLLAcquiresLock(t *testing.T) {
	p := newLinePLL(2560)

	runPLL(&p, 2560, 700, 100*2560)

	assert.True(t, p.locked)
	assert.InDelta(t, 0, p.phaseError, pllLockWindow)
}

func TestPLLAcquiresFromAnyStartPhase(t *testing.T) {
	// Offsets beyond 0.4*period would be rejected as spurious if the
	// first event did not anchor.
	for _, offset := range []int{0, 500, 1100, 1300, 2000, 2559} {
		p := newLinePLL(2560)
		runPLL(&p, 2560, offset, 100*2560)
		assert.True(t, p.locked, "offset %d", offset)
	}
}

func TestPLLTracksFrequencyOffset(t *testing.T) {
	// Source runs 8 samples per line slow relative to nominal. The
	// integral term has to absorb the difference.
	p := newLinePLL(2560)

	lines := runPLL(&p, 2568, 100, 2000*2568)

	assert.True(t, p.locked)
	assert.InDelta(t, 2000, lines, 5)
	assert.InDelta(t, 8, p.freqAdjust, 3)
}

func TestPLLFreeRunsThroughDroppedSyncs(t *testing.T) {
	const period = 2560
	p := newLinePLL(period)

	lines := runPLL(&p, period, 100, 100*period)
	require.True(t, p.locked)

	// 20 lines with three consecutive sync pulses missing.
	dropped := map[int]bool{5: true, 6: true, 7: true}
	start := 100 * period
	for pos := start; pos < start+20*period; pos++ {
		if pos%period == 100 && !dropped[(pos-start)/period] {
			p.syncEvent(p.phase, uint64(pos))
		}
		if p.advance() {
			lines++
		}
	}

	assert.True(t, p.locked)
	assert.InDelta(t, 120, lines, 1)
}

func TestPLLSpuriousEdgeIgnoredWhenTracking(t *testing.T) {
	p := newLinePLL(2560)
	runPLL(&p, 2560, 100, 50*2560)
	require.True(t, p.locked)

	phase := p.phase
	adj := p.freqAdjust

	// An edge in the middle of a line, e.g. vsync bleed-through.
	p.syncEvent(1200, uint64(50*2560))

	assert.Equal(t, phase, p.phase)
	assert.Equal(t, adj, p.freqAdjust)
	assert.True(t, p.locked)
}

func TestPLLWatchdogReanchors(t *testing.T) {
	const period = 2560
	p := newLinePLL(period)
	runPLL(&p, period, 100, 50*period)
	require.True(t, p.locked)

	// Free-run ten line periods, then sync with a large phase error.
	pos := 50 * period
	for i := 0; i < 10*period; i++ {
		p.advance()
		pos++
	}
	phaseBefore := p.phase
	adjBefore := p.freqAdjust
	p.syncEvent(900, uint64(pos))

	// Re-anchored outright: the full error is stepped out of the phase
	// and the frequency estimate is left alone.
	assert.Equal(t, phaseBefore-900, p.phase)
	assert.Equal(t, adjBefore, p.freqAdjust)
	assert.Equal(t, uint64(pos), p.lastSyncSample)
}

func TestPLLResetClearsState(t *testing.T) {
	p := newLinePLL(2560)
	runPLL(&p, 2560, 700, 50*2560)

	p.reset(2540)

	assert.Zero(t, p.phase)
	assert.Zero(t, p.freqAdjust)
	assert.False(t, p.locked)
	assert.Equal(t, 2540.0, p.linePeriod)
}

func TestPLLInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const period = 2560.0
		p := newLinePLL(period)

		pos := uint64(0)
		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			gap := rapid.IntRange(1, 4*period).Draw(t, "gap")
			for j := 0; j < gap; j++ {
				p.advance()
				pos++
			}
			offset := rapid.Float64Range(0, period-1).Draw(t, "offset")
			p.syncEvent(offset, pos)

			if p.phaseIntegral > pllIntegralClamp ||
				p.phaseIntegral < -pllIntegralClamp {
				t.Fatalf("integral outside clamp: %v", p.phaseIntegral)
			}
			if math.IsNaN(p.phase) || math.IsInf(p.phase, 0) {
				t.Fatalf("phase not finite: %v", p.phase)
			}
			if p.phaseError > period/2 || p.phaseError < -period/2 {
				t.Fatalf("phase error not wrapped: %v", p.phaseError)
			}
		}
	})
}
