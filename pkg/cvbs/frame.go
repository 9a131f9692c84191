package cvbs

import "sync/atomic"

// frameAssembler buffers decoded rows per field, deinterlaces two fields
// into a full frame, and publishes it through a generation-guarded
// double buffer so a render thread can copy a complete, non-torn frame
// without locking the decode path.
type frameAssembler struct {
	geo Geometry

	// fields hold one field each: fieldHeight rows of FrameWidth pixels.
	// Buffers are allocated once at the maximum geometry and sliced per
	// format, so a format change never allocates.
	fields     [2][]byte
	fieldReady [2]bool

	frame   []byte
	display []byte

	// generation is incremented before and after every display buffer
	// update. Odd means a write is in progress; readers retry. It only
	// ever increases, so a reader can also use it to detect new frames.
	generation uint64
}

func newFrameAssembler(geo Geometry) *frameAssembler {
	a := &frameAssembler{
		frame:   make([]byte, FrameWidth*MaxFrameHeight),
		display: make([]byte, FrameWidth*MaxFrameHeight),
	}
	a.fields[0] = make([]byte, FrameWidth*MaxFrameHeight/2)
	a.fields[1] = make([]byte, FrameWidth*MaxFrameHeight/2)
	a.setGeometry(geo)
	return a
}

func (a *frameAssembler) setGeometry(geo Geometry) {
	a.geo = geo
}

// fieldRow returns the destination row for a decoded line, or nil when
// the field line index is outside the active field height.
func (a *frameAssembler) fieldRow(field, fieldLine int) []byte {
	if fieldLine < 0 || fieldLine >= a.geo.FieldHeight {
		return nil
	}
	off := fieldLine * FrameWidth
	return a.fields[field][off : off+FrameWidth]
}

// completeField marks a finished field and rebuilds the frame. A field
// that produced fewer than half the expected active lines is discarded:
// the published frame keeps its previous content. Ready flags persist
// once set, so after both fields have been seen once, weave remains the
// steady state.
//
// It returns true when the finished field was accepted.
func (a *frameAssembler) completeField(field, decodedLines int) bool {
	if decodedLines < a.geo.FieldHeight/2 {
		return false
	}

	a.fieldReady[field] = true
	a.deinterlace()
	a.publish()
	return true
}

// deinterlace assembles the frame from the field buffers: weave (direct
// interleave, full resolution) when both fields are ready, bob (linear
// interpolation of the missing rows) when only one is.
func (a *frameAssembler) deinterlace() {
	switch {
	case a.fieldReady[0] && a.fieldReady[1]:
		a.weave()
	case a.fieldReady[0]:
		a.bob(0)
	case a.fieldReady[1]:
		a.bob(1)
	}
}

func (a *frameAssembler) weave() {
	for fl := 0; fl < a.geo.FieldHeight; fl++ {
		src0 := a.fields[0][fl*FrameWidth : (fl+1)*FrameWidth]
		src1 := a.fields[1][fl*FrameWidth : (fl+1)*FrameWidth]
		copy(a.frameRow(fl*2), src0)
		copy(a.frameRow(fl*2+1), src1)
	}
}

// bob fills the frame from a single field. Present rows are copied to
// their interlace positions; each missing row is the rounded-down
// average of its two neighbours, except past the last present row,
// which is duplicated.
func (a *frameAssembler) bob(field int) {
	h := a.geo.FieldHeight

	for fl := 0; fl < h; fl++ {
		copy(a.frameRow(fl*2+field), a.fields[field][fl*FrameWidth:(fl+1)*FrameWidth])
	}

	for fl := 0; fl < h; fl++ {
		missing := fl*2 + (1 - field)

		var prev, next int
		if field == 0 {
			prev, next = fl, fl+1
		} else {
			prev, next = fl-1, fl
		}

		dst := a.frameRow(missing)
		switch {
		case prev < 0:
			copy(dst, a.fields[field][next*FrameWidth:(next+1)*FrameWidth])
		case next >= h:
			copy(dst, a.fields[field][prev*FrameWidth:(prev+1)*FrameWidth])
		default:
			pr := a.fields[field][prev*FrameWidth : (prev+1)*FrameWidth]
			nx := a.fields[field][next*FrameWidth : (next+1)*FrameWidth]
			for i := range dst {
				dst[i] = byte((int(pr[i]) + int(nx[i])) / 2)
			}
		}
	}
}

func (a *frameAssembler) frameRow(row int) []byte {
	off := row * FrameWidth
	return a.frame[off : off+FrameWidth]
}

// publish copies the working frame into the display buffer under an odd
// generation value.
func (a *frameAssembler) publish() {
	atomic.AddUint64(&a.generation, 1)
	copy(a.display, a.frame)
	atomic.AddUint64(&a.generation, 1)
}

// bothReady reports whether both fields have been captured at least once.
func (a *frameAssembler) bothReady() bool {
	return a.fieldReady[0] && a.fieldReady[1]
}

// snapshot copies the most recently published frame into dst and
// returns the frame generation. ok is false while no frame has been
// published yet. It is safe to call from a thread other than the
// decoder's; a torn read is detected via the generation counter and
// retried.
func (a *frameAssembler) snapshot(dst []byte) (gen uint64, ok bool) {
	for {
		g1 := atomic.LoadUint64(&a.generation)
		if g1 == 0 {
			return 0, false
		}
		if g1&1 == 1 {
			continue
		}

		copy(dst, a.display[:len(dst)])

		if atomic.LoadUint64(&a.generation) == g1 {
			return g1, true
		}
	}
}

func (a *frameAssembler) displayReady() bool {
	g := atomic.LoadUint64(&a.generation)
	return g >= 2
}

// reset clears all buffers and ready flags.
func (a *frameAssembler) reset() {
	atomic.AddUint64(&a.generation, 1)
	for i := range a.frame {
		a.frame[i] = 0
	}
	for i := range a.display {
		a.display[i] = 0
	}
	for i := range a.fields[0] {
		a.fields[0][i] = 0
		a.fields[1][i] = 0
	}
	a.fieldReady[0] = false
	a.fieldReady[1] = false
	atomic.StoreUint64(&a.generation, 0)
}
