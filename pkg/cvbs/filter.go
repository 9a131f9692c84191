package cvbs

// filterAlpha is the single pole lowpass coefficient. Tuned so that
// chroma subcarrier noise is suppressed while sync edges stay sharp.
const filterAlpha = 0.08

// lowpass is a one pole IIR smoother: y[n] = a*x[n] + (1-a)*y[n-1].
type lowpass struct {
	y      float64
	primed bool
}

func (l *lowpass) filter(x float64) float64 {
	if !l.primed {
		l.y = x
		l.primed = true
		return x
	}

	l.y = filterAlpha*x + (1-filterAlpha)*l.y
	return l.y
}

// edgeTracker remembers whether the previous filtered sample was above
// the sync threshold. Both sync detectors share it to find transitions.
type edgeTracker struct {
	above  bool
	primed bool
}

// update feeds the next filtered sample and reports a falling edge
// (crossing from above to at/below threshold) or a rising edge.
func (e *edgeTracker) update(v, threshold float64) (falling, rising bool) {
	above := v > threshold

	if e.primed {
		falling = e.above && !above
		rising = !e.above && above
	}

	e.above = above
	e.primed = true
	return falling, rising
}
