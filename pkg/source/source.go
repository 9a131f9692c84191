// Package source delivers chunks of ADC samples to the decode loop.
// Three source kinds exist: playback of a raw single-channel capture
// file, playback of a packed two-channel capture file, and the signal
// simulator. All of them produce int16 chunks at the decoder's nominal
// sample rate.
package source

import (
	"errors"
	"fmt"
	"time"

	"cvbsd/pkg/cvbs"
	"cvbsd/pkg/simulator"
)

var (
	ErrUnknownType    = errors.New("unknown source type")
	ErrUnknownChannel = errors.New("unknown capture channel")
	ErrUnknownPattern = errors.New("unknown test pattern")
)

// Source produces sample chunks. Read fills buf and returns the number
// of samples written; io.EOF ends a non-looping file playback.
type Source interface {
	Read(buf []int16) (int, error)
	Close() error
}

// Config selects and parameterizes a source.
type Config struct {
	// Type is "simulator", "raw" or "misrc".
	Type string
	// Path of the capture file for the file-backed types.
	Path string
	// Channel selects "a" or "b" from a packed two-channel capture.
	Channel string
	// Pattern of the simulator: "bars", "ramp" or "flat".
	Pattern string
	// Noise is the simulator's peak noise amplitude in ADC units.
	Noise int
	// Loop restarts file playback at EOF.
	Loop bool
	// Pace throttles delivery to the nominal sample rate.
	Pace bool
	// Format steers the simulator's line and field geometry.
	Format cvbs.Format
}

// New creates the source described by cfg.
func New(cfg Config) (Source, error) {
	switch cfg.Type {
	case "simulator", "":
		return newSimSource(cfg)
	case "raw":
		return newRawFile(cfg)
	case "misrc":
		return newPackedFile(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
}

// pacer slows delivery down to real time against the nominal rate.
type pacer struct {
	start     time.Time
	delivered uint64
}

func (p *pacer) pace(n int) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.delivered += uint64(n)

	elapsed := float64(p.delivered) / cvbs.SampleRate
	due := p.start.Add(time.Duration(elapsed * float64(time.Second)))
	if d := time.Until(due); d > 0 {
		time.Sleep(d)
	}
}

type simSource struct {
	gen   *simulator.Generator
	paced bool
	pacer pacer
}

func newSimSource(cfg Config) (*simSource, error) {
	var pattern simulator.Pattern
	switch cfg.Pattern {
	case "bars", "":
		pattern = simulator.PatternBars
	case "ramp":
		pattern = simulator.PatternRamp
	case "flat":
		pattern = simulator.PatternFlat
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, cfg.Pattern)
	}

	gen := simulator.New(cfg.Format, pattern)
	gen.SetNoise(cfg.Noise)

	return &simSource{gen: gen, paced: cfg.Pace}, nil
}

func (s *simSource) Read(buf []int16) (int, error) {
	s.gen.Fill(buf)
	if s.paced {
		s.pacer.pace(len(buf))
	}
	return len(buf), nil
}

func (s *simSource) Close() error {
	return nil
}
