// Package adc unpacks raw 32-bit capture words into per-channel signed
// samples. Each word carries two 12-bit ADC channels in offset-binary
// form (channel A in bits 0-11, channel B in bits 16-27); the remaining
// nibbles are auxiliary data and ignored here.
package adc

// WordBytes is the size of one packed capture word on the wire.
const WordBytes = 4

const (
	channelMask = 0x0fff
	center      = 2048

	railLow  = 0
	railHigh = 4095
)

// Extractor converts packed capture words into centered int16 samples
// and keeps clip and peak statistics per channel. The zero value is
// ready to use.
type Extractor struct {
	ClippedA uint64
	ClippedB uint64
	PeakA    int16
	PeakB    int16
}

// Extract unpacks words into the a and b sample slices. It processes
// min(len(words), len(a), len(b)) words and returns that count.
// Samples are centered on zero: -2048 is the negative rail, 2047 the
// positive one.
func (e *Extractor) Extract(words []uint32, a, b []int16) int {
	n := len(words)
	if len(a) < n {
		n = len(a)
	}
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		w := words[i]

		ra := w & channelMask
		rb := (w >> 16) & channelMask

		if ra == railLow || ra == railHigh {
			e.ClippedA++
		}
		if rb == railLow || rb == railHigh {
			e.ClippedB++
		}

		sa := int16(int32(ra) - center)
		sb := int16(int32(rb) - center)
		a[i] = sa
		b[i] = sb

		if abs16(sa) > abs16(e.PeakA) {
			e.PeakA = sa
		}
		if abs16(sb) > abs16(e.PeakB) {
			e.PeakB = sb
		}
	}

	return n
}

// ResetStats clears the clip counters and peak values.
func (e *Extractor) ResetStats() {
	*e = Extractor{}
}

// DecodeWords reassembles little-endian capture words from a byte
// buffer. It returns the number of whole words decoded; trailing bytes
// that do not fill a word are ignored.
func DecodeWords(buf []byte, words []uint32) int {
	n := len(buf) / WordBytes
	if len(words) < n {
		n = len(words)
	}

	for i := 0; i < n; i++ {
		o := i * WordBytes
		words[i] = uint32(buf[o]) |
			uint32(buf[o+1])<<8 |
			uint32(buf[o+2])<<16 |
			uint32(buf[o+3])<<24
	}

	return n
}

func abs16(v int16) int16 {
	if v < 0 {
		if v == -32768 {
			return 32767
		}
		return -v
	}
	return v
}
