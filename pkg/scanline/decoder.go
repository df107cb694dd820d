// Package scanline decodes raster scanlines into rows of canonical BGR
// pixels. Compressed scanlines use a leading vertical repeat byte and
// PackBits style run tokens whose units are whole pixels.
package scanline

import (
	"fmt"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
)

// Decoder expands one encoded scanline into a row of Width BGR pixels.
// repeat is the number of physical rows the line stands for. row is only
// meaningful when err is nil.
type Decoder interface {
	DecodeRow(line []byte, row []byte) (repeat int, err error)
}

// NewDecoder returns the decoder for the geometry's scanline encoding.
func NewDecoder(g page.Geometry) (Decoder, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	n, err := g.Normalizer()
	if err != nil {
		return nil, err
	}
	switch g.Encoding {
	case page.EncodingRaw:
		return &Raw{Width: g.Width, Normalizer: n}, nil
	default:
		return &RLE{Width: g.Width, Normalizer: n}, nil
	}
}

// RLE decodes run length encoded scanlines.
type RLE struct {
	Width      int
	Normalizer *pixel.Normalizer
}

// DecodeRow implements Decoder. The line must hold exactly one scanline.
func (d *RLE) DecodeRow(line []byte, row []byte) (int, error) {
	if len(row) != d.Width*pixel.Size {
		return 0, fmt.Errorf("scanline: row of %d bytes, want %d", len(row), d.Width*pixel.Size)
	}
	c := NewCursor(line)
	rep, err := c.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("vertical repeat: %w", err)
	}
	size := d.Normalizer.SampleSize()
	x := 0
	for x < d.Width {
		ctl, err := c.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("control at pixel %d: %w", x, err)
		}
		tok := ParseControl(ctl)
		if x+tok.Count > d.Width {
			return 0, fmt.Errorf("%w: %v at pixel %d overshoots width %d", ErrMalformed, tok, x, d.Width)
		}
		switch tok.Kind {
		case Repeat:
			sample, err := c.Next(size)
			if err != nil {
				return 0, fmt.Errorf("%v at pixel %d: %w", tok, x, err)
			}
			first := row[x*pixel.Size:]
			d.Normalizer.Normalize(sample, first)
			for i := 1; i < tok.Count; i++ {
				copy(row[(x+i)*pixel.Size:], first[:pixel.Size])
			}
		case Literal:
			for i := 0; i < tok.Count; i++ {
				sample, err := c.Next(size)
				if err != nil {
					return 0, fmt.Errorf("%v at pixel %d: %w", tok, x+i, err)
				}
				d.Normalizer.Normalize(sample, row[(x+i)*pixel.Size:])
			}
		}
		x += tok.Count
	}
	if c.Remaining() != 0 {
		return 0, fmt.Errorf("%w: %d trailing bytes after %d pixels", ErrMalformed, c.Remaining(), d.Width)
	}
	return int(rep) + 1, nil
}

// Raw decodes uncompressed scanlines. Bytes past the last pixel are line
// padding and are ignored.
type Raw struct {
	Width      int
	Normalizer *pixel.Normalizer
}

// DecodeRow implements Decoder. The repeat count is always 1.
func (d *Raw) DecodeRow(line []byte, row []byte) (int, error) {
	if len(row) != d.Width*pixel.Size {
		return 0, fmt.Errorf("scanline: row of %d bytes, want %d", len(row), d.Width*pixel.Size)
	}
	size := d.Normalizer.SampleSize()
	c := NewCursor(line)
	for x := 0; x < d.Width; x++ {
		sample, err := c.Next(size)
		if err != nil {
			return 0, fmt.Errorf("pixel %d: %w", x, err)
		}
		d.Normalizer.Normalize(sample, row[x*pixel.Size:])
	}
	return 1, nil
}
