package cvbs

// Horizontal sync pulse width acceptance window in samples. The nominal
// pulse is 4.7µs (188 samples at 40 MS/s); anything shorter is noise and
// anything longer is part of the vertical sync serrations.
const (
	hsyncMinWidth = 100
	hsyncMaxWidth = 280
)

type hsyncState int

const (
	hsyncIdle hsyncState = iota
	hsyncInPulse
)

// hsyncDetector measures the width of threshold crossings and reports
// pulses inside the acceptance window, together with the PLL phase at
// the moment the pulse started.
type hsyncDetector struct {
	state        hsyncState
	pulseStart   uint64
	phaseAtStart float64
}

// fallingEdge marks the start of a candidate sync pulse.
func (h *hsyncDetector) fallingEdge(pos uint64, pllPhase float64) {
	h.state = hsyncInPulse
	h.pulseStart = pos
	h.phaseAtStart = pllPhase
}

// risingEdge closes a candidate pulse. It returns the PLL phase sampled
// at the falling edge and ok=true only when the pulse width is inside
// the acceptance window. Rejected pulses are not errors.
func (h *hsyncDetector) risingEdge(pos uint64) (phase float64, ok bool) {
	if h.state != hsyncInPulse {
		return 0, false
	}
	h.state = hsyncIdle

	width := pos - h.pulseStart
	if width < hsyncMinWidth || width > hsyncMaxWidth {
		return 0, false
	}

	return h.phaseAtStart, true
}

func (h *hsyncDetector) reset() {
	*h = hsyncDetector{}
}
