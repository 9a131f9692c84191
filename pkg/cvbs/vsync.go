package cvbs

// Falling edge interval classification windows, in samples at SampleRate.
// Vertical sync is recognizable as a burst of half-line-rate pulses
// (equalizing and serration pulses) rather than a single pulse, which is
// the same structure a hardware sync separator keys on.
const (
	halfLineIntervalMin = 1000
	halfLineIntervalMax = 1600

	fullLineIntervalMin = 2200
	fullLineIntervalMax = 3000

	// halfLinesForVsync is the number of consecutive half-line spaced
	// edges needed before the detector accepts that it is inside the
	// vertical sync region.
	halfLinesForVsync = 6
)

type vsyncState int

const (
	vsyncIdle vsyncState = iota
	vsyncInRegion
)

// vsyncDetector classifies the spacing of falling edges to find the
// vertical sync pulse train and its end.
type vsyncDetector struct {
	state         vsyncState
	halfLineCount int
	lastEdgePos   uint64
	seenEdge      bool
}

// fallingEdge feeds the absolute sample position of a falling edge and
// reports true when a vertical sync region has just completed.
func (v *vsyncDetector) fallingEdge(pos uint64) bool {
	if !v.seenEdge {
		v.seenEdge = true
		v.lastEdgePos = pos
		return false
	}

	interval := pos - v.lastEdgePos
	v.lastEdgePos = pos

	switch {
	case interval >= halfLineIntervalMin && interval <= halfLineIntervalMax:
		v.halfLineCount++
		if v.halfLineCount >= halfLinesForVsync {
			v.state = vsyncInRegion
		}

	case interval >= fullLineIntervalMin && interval <= fullLineIntervalMax:
		if v.state == vsyncInRegion {
			// Back to full-line spacing: the pulse train is over.
			v.state = vsyncIdle
			v.halfLineCount = 0
			return true
		}
		v.halfLineCount = 0

	default:
		v.state = vsyncIdle
		v.halfLineCount = 0
	}

	return false
}

func (v *vsyncDetector) inRegion() bool {
	return v.state == vsyncInRegion
}

func (v *vsyncDetector) reset() {
	*v = vsyncDetector{}
}
