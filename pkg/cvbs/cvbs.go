// Package cvbs is a software-defined decoder for composite video
// (CVBS) carried in a raw ADC sample stream. There is no hardware sync
// separator: horizontal timing is recovered with a software PLL,
// vertical sync is classified from the pulse train structure, signal
// levels are learned online, and two interlaced fields are assembled
// into a displayable luma frame. Only luma is recovered; chroma is
// treated as interference and filtered out.
package cvbs

import "sync/atomic"

const (
	// MinChunkSize is the smallest sample count ProcessBuffer acts on;
	// shorter calls are a no-op.
	MinChunkSize = 100

	// lineBufCap holds comfortably more than the longest line the PLL
	// can produce, so the per-sample path never allocates.
	lineBufCap = 2*2560 + 64

	// fieldOverrunLines forces field completion when vertical sync has
	// been missing for this many lines past the nominal field length.
	fieldOverrunLines = 20
)

// Stats are the decoder's advisory counters. All values increase
// monotonically; none of them indicates a fatal condition.
type Stats struct {
	// FramesDecoded counts completed frames (both fields captured).
	FramesDecoded uint64
	// FieldsDecoded counts accepted fields.
	FieldsDecoded uint64
	// SyncErrors counts calls skipped because the signal range was too
	// small to operate, i.e. a likely disconnected input.
	SyncErrors uint64
	// FormatChanges counts SetFormat reconfigurations.
	FormatChanges uint64
}

// Decoder recovers video frames from one channel's sample stream.
//
// A Decoder is exclusively owned by the goroutine calling
// ProcessBuffer; it is not safe for concurrent callers. The only
// cross-goroutine surfaces are Frame, DisplayReady and Stats.
type Decoder struct {
	format Format
	geo    Geometry

	lp    lowpass
	edges edgeTracker
	est   levelEstimator
	vsync vsyncDetector
	hsync hsyncDetector
	pll   linePLL

	asm *frameAssembler

	// sampleIndex is the absolute position in the input stream. It is
	// never reset so the sync detectors' interval arithmetic stays
	// valid across resets.
	sampleIndex uint64

	currentField int
	currentLine  int
	decodedLines int

	lineBuf []int16

	lastCommitSample uint64

	framesDecoded uint64
	fieldsDecoded uint64
	syncErrors    uint64
	formatChanges uint64
}

// New creates a decoder for the given format. FormatUnknown and
// FormatSECAM fall back to PAL timing. All buffers are allocated here;
// the steady-state decode path never allocates.
func New(format Format) *Decoder {
	geo := GeometryOf(format)

	d := &Decoder{
		format:  format,
		geo:     geo,
		asm:     newFrameAssembler(geo),
		lineBuf: make([]int16, 0, lineBufCap),
		pll:     newLinePLL(geo.LinePeriod),
	}
	return d
}

// SetFormat selects the video system. Changing the format reconfigures
// the geometry and performs a full reset; selecting the current format
// is a no-op, so repeated selections are idempotent.
func (d *Decoder) SetFormat(f Format) {
	if f == d.format {
		return
	}

	d.format = f
	d.geo = GeometryOf(f)
	atomic.AddUint64(&d.formatChanges, 1)
	d.Reset()
}

// Reset clears frame buffers, sync state, learned levels and the PLL.
// This is the only path that returns PLL phase to zero: normal field
// transitions deliberately let the phase free-run through vertical
// blanking so lock is not re-acquired every field.
func (d *Decoder) Reset() {
	d.lp = lowpass{}
	d.edges = edgeTracker{}
	d.est.reset()
	d.vsync.reset()
	d.hsync.reset()
	d.pll.reset(d.geo.LinePeriod)

	d.asm.setGeometry(d.geo)
	d.asm.reset()

	d.currentField = 0
	d.currentLine = 0
	d.decodedLines = 0
	d.lineBuf = d.lineBuf[:0]
	d.lastCommitSample = d.sampleIndex
}

// ProcessBuffer consumes one chunk of raw samples. Sync tips are
// expected negative and white positive (12-bit ADC semantics, roughly
// ±2048). The call never blocks and never allocates; chunks shorter
// than MinChunkSize are ignored.
func (d *Decoder) ProcessBuffer(samples []int16) {
	if len(samples) < MinChunkSize {
		return
	}

	// A disconnected input shows up as a collapsed signal range. While
	// no usable levels are committed yet the only evidence is the chunk
	// itself, so skip dead chunks rather than learn garbage from them.
	// Once levels are learned the decoder coasts through momentary
	// dropouts on them; a persistent dropout collapses the learned
	// range at the next commit, which re-arms this gate.
	if !d.est.valid() {
		lo, hi := chunkExtremes(samples)
		if int(hi)-int(lo) < minSignalRange {
			atomic.AddUint64(&d.syncErrors, 1)
			return
		}
	}

	for _, s := range samples {
		d.processSample(s)
	}
}

func (d *Decoder) processSample(s int16) {
	pos := d.sampleIndex
	d.sampleIndex++

	f := d.lp.filter(float64(s))

	if pos%levelStride == 0 {
		d.est.accumulate(f)
	}

	// The line decoder works on raw samples; the lowpass is only for
	// the sync path.
	if len(d.lineBuf) < cap(d.lineBuf) {
		d.lineBuf = append(d.lineBuf, s)
	}

	fieldSamples := uint64(float64(d.geo.FieldLines) * d.geo.LinePeriod)

	if d.est.valid() {
		falling, rising := d.edges.update(f, d.est.levels.Threshold)
		if falling {
			if d.vsync.fallingEdge(pos) {
				d.vsyncComplete()
			}
			d.hsync.fallingEdge(pos, d.pll.phase)
		} else if rising {
			if phase, ok := d.hsync.risingEdge(pos); ok {
				d.pll.syncEvent(phase, pos)
			}
		}

		// Levels normally commit at vsync. If the signal has no usable
		// vertical sync, still refresh them at roughly field rate.
		if pos-d.lastCommitSample > 2*fieldSamples {
			d.est.commit()
			d.lastCommitSample = pos
		}
	} else if pos-d.lastCommitSample >= fieldSamples {
		// Bootstrap: no committed levels yet, so the detectors are
		// gated. Commit after a field's worth of accumulation to get
		// an initial threshold.
		d.est.commit()
		d.lastCommitSample = pos
	}

	if d.pll.advance() {
		d.lineBoundary()
	}
}

// lineBoundary fires when the PLL phase accumulator passes the
// effective line period. The buffered line is decoded if it falls in
// the active video range of the current field.
func (d *Decoder) lineBoundary() {
	line := d.currentLine
	d.currentLine++

	buf := d.lineBuf
	d.lineBuf = d.lineBuf[:0]

	if d.est.valid() && !d.vsync.inRegion() {
		if row := d.asm.fieldRow(d.currentField, line-d.geo.ActiveStart); row != nil {
			if decodeLine(buf, d.est.levels, row) {
				d.decodedLines++
			}
		}
	}

	// Way past the expected field length with no vsync: force the
	// field over so the display keeps moving on vsync-less input.
	if d.currentLine >= d.geo.FieldLines+fieldOverrunLines {
		d.finishField()
	}
}

func (d *Decoder) vsyncComplete() {
	d.est.commit()
	d.lastCommitSample = d.sampleIndex
	d.finishField()
}

// finishField hands the just-finished field to the assembler and starts
// the next one. PLL phase is intentionally not touched.
func (d *Decoder) finishField() {
	if d.asm.completeField(d.currentField, d.decodedLines) {
		atomic.AddUint64(&d.fieldsDecoded, 1)
		if d.currentField == 1 && d.asm.bothReady() {
			atomic.AddUint64(&d.framesDecoded, 1)
		}
	}

	d.currentField = 1 - d.currentField
	d.currentLine = 0
	d.decodedLines = 0
}

// Frame copies the most recently published frame into dst, which should
// hold FrameWidth*FrameHeight bytes for the configured format. The
// returned generation increases with every published frame; ok is false
// until a first frame exists. Safe to call from a render goroutine.
func (d *Decoder) Frame(dst []byte) (gen uint64, ok bool) {
	return d.asm.snapshot(dst)
}

// DisplayReady reports whether a decoded frame has been published.
func (d *Decoder) DisplayReady() bool {
	return d.asm.displayReady()
}

// Format returns the configured video system.
func (d *Decoder) Format() Format {
	return d.format
}

// Geometry returns the geometry constants of the configured format.
func (d *Decoder) Geometry() Geometry {
	return d.geo
}

// Locked reports whether the horizontal PLL is locked.
func (d *Decoder) Locked() bool {
	return d.pll.locked
}

// Levels returns the current learned signal levels; ok is false until
// the estimator has committed a usable range.
func (d *Decoder) Levels() (Levels, bool) {
	return d.est.levels, d.est.valid()
}

// Stats returns a snapshot of the advisory counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		FramesDecoded: atomic.LoadUint64(&d.framesDecoded),
		FieldsDecoded: atomic.LoadUint64(&d.fieldsDecoded),
		SyncErrors:    atomic.LoadUint64(&d.syncErrors),
		FormatChanges: atomic.LoadUint64(&d.formatChanges),
	}
}

// chunkExtremes scans every levelStride-th sample for min and max.
func chunkExtremes(samples []int16) (lo, hi int16) {
	lo, hi = samples[0], samples[0]
	for i := 0; i < len(samples); i += levelStride {
		s := samples[i]
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}
