package cvbs

const (
	// levelAlpha is the cross field smoothing factor of the level estimator.
	levelAlpha = 0.1

	// levelStride selects every n-th filtered sample for min/max
	// accumulation, so high frequency noise does not bias the estimate.
	levelStride = 16

	// minSignalRange is the smallest usable sync-tip-to-white range in raw
	// ADC units. Below it the input is treated as disconnected.
	minSignalRange = 100

	thresholdFraction = 0.25
	blankingFraction  = 0.28
	blackFraction     = 0.32
)

// Levels are the learned signal levels in raw ADC units. Video levels are
// not known a priori (gain varies with the input path), so they are
// estimated online from per-field extremes.
type Levels struct {
	SyncTip   float64
	White     float64
	Threshold float64
	Blanking  float64
	Black     float64
}

// Range is the sync-tip-to-white span the derived levels are based on.
func (l Levels) Range() float64 {
	return l.White - l.SyncTip
}

// levelEstimator accumulates per-field signal extremes and commits them
// into smoothed levels once per field. Committing only at field
// boundaries keeps mid-field level shifts from causing visible shimmer.
type levelEstimator struct {
	fieldMin float64
	fieldMax float64
	seen     bool

	levels    Levels
	committed bool
}

// accumulate updates the running field extremes. The caller subsamples
// with levelStride.
func (e *levelEstimator) accumulate(v float64) {
	if !e.seen {
		e.fieldMin = v
		e.fieldMax = v
		e.seen = true
		return
	}

	if v < e.fieldMin {
		e.fieldMin = v
	}
	if v > e.fieldMax {
		e.fieldMax = v
	}
}

// commit folds the accumulated extremes into the smoothed levels and
// resets the accumulators for the next field. The first commit
// initializes the levels directly instead of blending.
func (e *levelEstimator) commit() {
	if !e.seen {
		return
	}

	if !e.committed {
		e.levels.SyncTip = e.fieldMin
		e.levels.White = e.fieldMax
		e.committed = true
	} else {
		e.levels.SyncTip = e.levels.SyncTip*(1-levelAlpha) + e.fieldMin*levelAlpha
		e.levels.White = e.levels.White*(1-levelAlpha) + e.fieldMax*levelAlpha
	}

	r := e.levels.White - e.levels.SyncTip
	if r < minSignalRange {
		r = minSignalRange
	}

	e.levels.Threshold = e.levels.SyncTip + r*thresholdFraction
	e.levels.Blanking = e.levels.SyncTip + r*blankingFraction
	e.levels.Black = e.levels.SyncTip + r*blackFraction

	e.seen = false
}

// valid reports whether derived levels exist and cover a usable range.
func (e *levelEstimator) valid() bool {
	return e.committed && e.levels.Range() >= minSignalRange
}

func (e *levelEstimator) reset() {
	*e = levelEstimator{}
}
