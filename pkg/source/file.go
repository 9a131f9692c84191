package source

import (
	"fmt"
	"io"
	"os"

	"cvbsd/pkg/adc"
)

// rawFile plays back a capture of one channel stored as little-endian
// int16 samples.
type rawFile struct {
	f     *os.File
	loop  bool
	paced bool
	pacer pacer

	bytes []byte
}

func newRawFile(cfg Config) (*rawFile, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	return &rawFile{f: f, loop: cfg.Loop, paced: cfg.Pace}, nil
}

func (r *rawFile) Read(buf []int16) (int, error) {
	want := len(buf) * 2
	if cap(r.bytes) < want {
		r.bytes = make([]byte, want)
	}
	raw := r.bytes[:want]

	n, err := r.fill(raw)
	samples := n / 2
	for i := 0; i < samples; i++ {
		buf[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}

	if r.paced && samples > 0 {
		r.pacer.pace(samples)
	}
	return samples, err
}

// fill reads until raw is full, rewinding at EOF when looping.
func (r *rawFile) fill(raw []byte) (int, error) {
	total := 0
	for total < len(raw) {
		n, err := r.f.Read(raw[total:])
		total += n
		if err == io.EOF {
			if !r.loop {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
			if _, err := r.f.Seek(0, io.SeekStart); err != nil {
				return total, fmt.Errorf("rewind capture file: %w", err)
			}
			continue
		}
		if err != nil {
			return total, fmt.Errorf("read capture file: %w", err)
		}
	}
	return total, nil
}

func (r *rawFile) Close() error {
	return r.f.Close()
}

// packedFile plays back a two-channel packed capture and extracts one
// of the channels.
type packedFile struct {
	f       *os.File
	loop    bool
	paced   bool
	pacer   pacer
	wantB   bool
	extract adc.Extractor

	bytes []byte
	words []uint32
	chanA []int16
	chanB []int16
}

func newPackedFile(cfg Config) (*packedFile, error) {
	wantB := false
	switch cfg.Channel {
	case "a", "":
	case "b":
		wantB = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, cfg.Channel)
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	return &packedFile{f: f, loop: cfg.Loop, paced: cfg.Pace, wantB: wantB}, nil
}

func (p *packedFile) Read(buf []int16) (int, error) {
	want := len(buf) * adc.WordBytes
	if cap(p.bytes) < want {
		p.bytes = make([]byte, want)
		p.words = make([]uint32, len(buf))
		p.chanA = make([]int16, len(buf))
		p.chanB = make([]int16, len(buf))
	}
	raw := p.bytes[:want]

	n, err := p.fillBytes(raw)
	decoded := adc.DecodeWords(raw[:n], p.words)
	extracted := p.extract.Extract(p.words[:decoded], p.chanA, p.chanB)

	if p.wantB {
		copy(buf, p.chanB[:extracted])
	} else {
		copy(buf, p.chanA[:extracted])
	}

	if p.paced && extracted > 0 {
		p.pacer.pace(extracted)
	}
	return extracted, err
}

func (p *packedFile) fillBytes(raw []byte) (int, error) {
	total := 0
	for total < len(raw) {
		n, err := p.f.Read(raw[total:])
		total += n
		if err == io.EOF {
			if !p.loop {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
			if _, err := p.f.Seek(0, io.SeekStart); err != nil {
				return total, fmt.Errorf("rewind capture file: %w", err)
			}
			continue
		}
		if err != nil {
			return total, fmt.Errorf("read capture file: %w", err)
		}
	}
	return total, nil
}

func (p *packedFile) Close() error {
	return p.f.Close()
}

// ClipStats reports the extraction statistics of a packed capture.
func (p *packedFile) ClipStats() (clipped uint64, peak int16) {
	if p.wantB {
		return p.extract.ClippedB, p.extract.PeakB
	}
	return p.extract.ClippedA, p.extract.PeakA
}
