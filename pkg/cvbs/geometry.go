package cvbs

import "strings"

// Format identifies the video system carried by the composite signal.
type Format int

const (
	// FormatUnknown is the state before a system has been selected.
	FormatUnknown Format = iota
	// FormatPAL is 625 lines / 50 fields.
	FormatPAL
	// FormatNTSC is 525 lines / 60 fields.
	FormatNTSC
	// FormatSECAM shares PAL line and field geometry for luma.
	FormatSECAM
)

func (f Format) String() string {
	switch f {
	case FormatPAL:
		return "PAL"
	case FormatNTSC:
		return "NTSC"
	case FormatSECAM:
		return "SECAM"
	}
	return "unknown"
}

// ParseFormat maps a configuration string to a Format. Matching is
// case-insensitive; unrecognized names return FormatUnknown and false.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pal":
		return FormatPAL, true
	case "ntsc":
		return FormatNTSC, true
	case "secam":
		return FormatSECAM, true
	}
	return FormatUnknown, false
}

const (
	// SampleRate is the nominal ADC sample rate the timing constants assume.
	SampleRate = 40_000_000

	// FrameWidth is the horizontal resolution of decoded frames.
	FrameWidth = 720
	// MaxFrameHeight is the tallest frame of any supported system (PAL/SECAM).
	MaxFrameHeight = 576
)

// Geometry holds the per-system line counts and timing constants.
// It is selected once on SetFormat and passed around by value, so no
// code path needs to branch on the format tag again.
type Geometry struct {
	// TotalLines is the full interlaced frame line count (525/625).
	TotalLines int
	// FieldLines is the nominal line count of one field (262/312).
	FieldLines int
	// ActiveStart is the first active video line within a field,
	// counted from vertical sync.
	ActiveStart int
	// FieldHeight is the number of decoded rows per field.
	FieldHeight int
	// FrameHeight is the full deinterlaced frame height.
	FrameHeight int
	// LinePeriod is the nominal number of samples per line at SampleRate.
	LinePeriod float64
}

// GeometryOf returns the geometry for a format. Unknown and SECAM both
// use PAL timing, matching the behaviour of the capture hardware path.
func GeometryOf(f Format) Geometry {
	if f == FormatNTSC {
		return Geometry{
			TotalLines:  525,
			FieldLines:  262,
			ActiveStart: 21,
			FieldHeight: 243,
			FrameHeight: 486,
			LinePeriod:  2540,
		}
	}

	return Geometry{
		TotalLines:  625,
		FieldLines:  312,
		ActiveStart: 23,
		FieldHeight: 288,
		FrameHeight: 576,
		LinePeriod:  2560,
	}
}
