package cvbs

// PLL tuning. The proportional term pulls the phase toward each sync
// edge, the integral term absorbs slow frequency drift between the ADC
// clock and the source's line rate.
const (
	pllKp = 0.15
	pllKi = 0.005

	// pllIntegralClamp bounds the accumulated frequency correction.
	pllIntegralClamp = 50

	// pllSpuriousFraction rejects sync events whose phase error exceeds
	// this fraction of the line period, e.g. vsync region bleed-through.
	pllSpuriousFraction = 0.4

	// pllLockWindow is the phase error (in samples) under which a sync
	// event counts toward lock.
	pllLockWindow = 20.0

	pllLockAfter   = 10
	pllUnlockAfter = 5

	// pllWatchdogPeriods: if no valid sync has arrived for this many line
	// periods the next accepted sync re-anchors phase directly instead of
	// being filtered through the proportional gain, so long free-run
	// stretches cannot accumulate unbounded drift.
	pllWatchdogPeriods = 1.5
)

// linePLL is the decoder's central control loop. Phase advances by 1.0
// per sample and a line boundary fires whenever it passes the effective
// period; sync events only nudge phase and frequency. A missing sync
// pulse therefore produces a slightly-off but still-displayed line
// instead of a decode stall.
type linePLL struct {
	phase      float64
	linePeriod float64
	freqAdjust float64

	phaseError    float64
	phaseIntegral float64

	goodSyncCount int
	badSyncCount  int
	locked        bool

	lastSyncSample uint64
	everSynced     bool
}

func newLinePLL(period float64) linePLL {
	return linePLL{linePeriod: period}
}

// advance accounts for one input sample. It returns true when a line
// boundary fires; the fractional remainder of phase is retained so the
// boundary never snaps to an integer sample grid.
func (p *linePLL) advance() bool {
	p.phase++

	effective := p.linePeriod + p.freqAdjust
	if p.phase < effective {
		return false
	}

	p.phase -= effective
	return true
}

// syncEvent applies one valid horizontal sync observation. pos is the
// absolute sample position of the sync edge, phaseAtSync the PLL phase
// sampled there.
func (p *linePLL) syncEvent(phaseAtSync float64, pos uint64) {
	e := phaseAtSync
	if e > p.linePeriod/2 {
		e -= p.linePeriod
	}
	p.phaseError = e

	// The first sync ever, and the first after a long free-run stretch,
	// re-anchor phase outright: the proportional gain could never catch
	// up, and the spurious gate would otherwise reject every event from
	// an unlucky start phase forever.
	anchor := !p.everSynced ||
		float64(pos-p.lastSyncSample) > pllWatchdogPeriods*p.linePeriod

	if !anchor && (e > pllSpuriousFraction*p.linePeriod || e < -pllSpuriousFraction*p.linePeriod) {
		// Spurious: do not touch phase, frequency or lock tracking.
		return
	}

	p.lastSyncSample = pos
	p.everSynced = true

	if e < pllLockWindow && e > -pllLockWindow {
		p.goodSyncCount++
		p.badSyncCount = 0
		if p.goodSyncCount >= pllLockAfter {
			p.locked = true
		}
	} else {
		p.badSyncCount++
		p.goodSyncCount = 0
		if p.badSyncCount >= pllUnlockAfter {
			p.locked = false
		}
	}

	if anchor {
		// A step correction carries no frequency information, so the
		// integral term is left alone.
		p.phase -= e
		return
	}

	p.phase -= e * pllKp

	p.phaseIntegral += e * pllKi
	if p.phaseIntegral > pllIntegralClamp {
		p.phaseIntegral = pllIntegralClamp
	} else if p.phaseIntegral < -pllIntegralClamp {
		p.phaseIntegral = -pllIntegralClamp
	}
	p.freqAdjust = p.phaseIntegral
}

// reset clears all loop state. This is the only place phase returns to
// zero; field transitions deliberately let it free-run (see decoder).
func (p *linePLL) reset(period float64) {
	*p = linePLL{linePeriod: period}
}
