package adc

// syncFramesNeeded is the number of consecutive in-order frame counters
// required before the stream is considered ordered.
const syncFramesNeeded = 4

// StreamSync tracks the 16-bit rolling frame counter of a streamed
// capture and reports whether the stream is arriving in order. Lock is
// acquired after four consecutive in-order frames; duplicates are
// counted and skipped, gaps are counted as missed frames.
type StreamSync struct {
	Missed     uint64
	Duplicates uint64

	last    uint16
	inOrder int
	seen    bool
	locked  bool
}

// Feed consumes the next frame counter value. It returns false when the
// frame should be discarded (a duplicate, or the stream is not yet
// known to be ordered).
func (s *StreamSync) Feed(counter uint16) bool {
	if !s.seen {
		s.seen = true
		s.last = counter
		s.inOrder = 1
		return false
	}

	delta := counter - s.last

	switch {
	case delta == 0:
		s.Duplicates++
		return false

	case delta == 1:
		s.last = counter
		if !s.locked {
			s.inOrder++
			if s.inOrder >= syncFramesNeeded {
				s.locked = true
			}
			return s.locked
		}
		return true

	default:
		// Counter jumped: delta-1 frames never arrived. The stream
		// itself is still usable, so lock is retained.
		s.Missed += uint64(delta) - 1
		s.last = counter
		if !s.locked {
			s.inOrder = 1
			return false
		}
		return true
	}
}

// Locked reports whether the counter sequence has been in order for
// long enough to trust the stream.
func (s *StreamSync) Locked() bool {
	return s.locked
}

// Reset returns the tracker to the searching state, keeping counters.
func (s *StreamSync) Reset() {
	s.seen = false
	s.locked = false
	s.inOrder = 0
}
