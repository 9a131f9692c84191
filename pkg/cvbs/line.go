package cvbs

const (
	// backPorchSamples skips the sync pulse, back porch and color burst
	// before active video (~7µs, a little more than the standard 5.7µs).
	backPorchSamples = 280

	// activeVideoSamples is the ~52µs active picture region.
	activeVideoSamples = 2080

	// boxRadius gives an 11-tap box filter per output pixel. The window
	// spans roughly one NTSC chroma subcarrier cycle, so averaging nulls
	// the chroma component out of the luma signal.
	boxRadius = 5
)

// decodeLine converts one line's worth of raw samples into a row of
// 8-bit luma pixels, normalized between the learned black and white
// levels. It returns false when the buffer is too short to hold any
// active video.
func decodeLine(samples []int16, lv Levels, row []byte) bool {
	active := len(samples) - backPorchSamples
	if active < len(row) {
		return false
	}
	if active > activeVideoSamples {
		active = activeVideoSamples
	}

	samplesPerPixel := float64(active) / float64(len(row))

	span := lv.White - lv.Black
	if span < 1 {
		span = 1
	}

	for px := range row {
		center := backPorchSamples + int(float64(px)*samplesPerPixel)

		lo := center - boxRadius
		if lo < backPorchSamples {
			lo = backPorchSamples
		}
		hi := center + boxRadius
		if hi > backPorchSamples+active-1 {
			hi = backPorchSamples + active - 1
		}

		var sum float64
		for i := lo; i <= hi; i++ {
			sum += float64(samples[i])
		}
		avg := sum / float64(hi-lo+1)

		norm := (avg - lv.Black) / span
		if norm < 0 {
			norm = 0
		} else if norm > 1 {
			norm = 1
		}

		row[px] = byte(norm * 255)
	}

	return true
}
