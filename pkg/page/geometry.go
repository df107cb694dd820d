// Package page describes raster page geometry and accumulates decoded rows
// into a full page of canonical pixels.
package page

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
)

var (
	// ErrGeometryUnsupported is returned when a page header describes a
	// depth, color order or color space outside the supported profiles.
	ErrGeometryUnsupported = errors.New("page: unsupported geometry")

	// ErrRowCountMismatch is returned when the decoded rows do not add up
	// to the declared page height.
	ErrRowCountMismatch = errors.New("page: row count mismatch")
)

// Encoding selects how scanlines of a page are encoded.
type Encoding int

const (
	// EncodingRLE scanlines start with a vertical repeat byte followed by
	// run tokens.
	EncodingRLE Encoding = iota
	// EncodingRaw scanlines hold BytesPerLine bytes of plain samples.
	EncodingRaw
)

func (e Encoding) String() string {
	switch e {
	case EncodingRLE:
		return "rle"
	case EncodingRaw:
		return "raw"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// Geometry is the per-page description produced by the raster reader.
type Geometry struct {
	Width         int
	Height        int
	BitsPerSample int
	ColorOrder    pixel.ColorOrder
	ColorSpace    pixel.ColorSpace
	BytesPerLine  int

	Encoding Encoding
	// ByteOrder of 16-bit samples, nil means little endian
	ByteOrder binary.ByteOrder
	HorizDPI  int
	VertDPI   int
}

// Validate checks the geometry against the two supported profiles: 8 or
// 16 bits per sample, chunked order, gray or RGB.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: bad dimensions %dx%d", ErrGeometryUnsupported, g.Width, g.Height)
	}
	if size := g.bitmapSize(); size > math.MaxUint32 {
		return fmt.Errorf("%w: %dx%d page needs a %d byte bitmap", ErrGeometryUnsupported, g.Width, g.Height, size)
	}
	if g.BitsPerSample != 8 && g.BitsPerSample != 16 {
		return fmt.Errorf("%w: bad bits per sample %d", ErrGeometryUnsupported, g.BitsPerSample)
	}
	if g.ColorOrder != pixel.OrderChunked {
		return fmt.Errorf("%w: bad color order %v", ErrGeometryUnsupported, g.ColorOrder)
	}
	if g.ColorSpace.Channels() == 0 {
		return fmt.Errorf("%w: bad color space %v", ErrGeometryUnsupported, g.ColorSpace)
	}
	if g.Encoding != EncodingRLE && g.Encoding != EncodingRaw {
		return fmt.Errorf("%w: bad encoding %v", ErrGeometryUnsupported, g.Encoding)
	}
	if g.BytesPerLine != 0 && g.BytesPerLine < g.Width*g.BytesPerPixel() {
		return fmt.Errorf("%w: bytes per line %d below %d pixels of %d bytes",
			ErrGeometryUnsupported, g.BytesPerLine, g.Width, g.BytesPerPixel())
	}
	return nil
}

// bitmapSize is the largest file a page of this size turns into, a 24-bit
// bitmap or an 8-bit one with its palette. Dimensions beyond int32 report
// an unrepresentable size.
func (g Geometry) bitmapSize() uint64 {
	if g.Width > math.MaxInt32 || g.Height > math.MaxInt32 {
		return math.MaxUint64
	}
	w, h := uint64(g.Width), uint64(g.Height)
	rgb := 14 + 40 + ((w*3+3)&^3)*h
	gray := 14 + 40 + 1024 + ((w+3)&^3)*h
	return max(rgb, gray)
}

// Pixels is Width times Height.
func (g Geometry) Pixels() int64 {
	return int64(g.Width) * int64(g.Height)
}

// BytesPerPixel is the size of one source sample across all channels.
func (g Geometry) BytesPerPixel() int {
	return g.ColorSpace.Channels() * g.BitsPerSample / 8
}

// LineSize is BytesPerLine, or the packed row size when the header left it
// unset.
func (g Geometry) LineSize() int {
	if g.BytesPerLine > 0 {
		return g.BytesPerLine
	}
	return g.Width * g.BytesPerPixel()
}

// MaxEncodedLine is the largest number of bytes a single scanline can
// occupy in the source stream.
func (g Geometry) MaxEncodedLine() int {
	if g.Encoding == EncodingRaw {
		return g.LineSize()
	}
	// repeat byte, worst case one control byte per pixel
	return 1 + g.Width*(g.BytesPerPixel()+1)
}

// Normalizer returns the sample normalizer matching the geometry.
func (g Geometry) Normalizer() (*pixel.Normalizer, error) {
	n, err := pixel.NewNormalizer(g.BitsPerSample, g.ColorSpace, g.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryUnsupported, err)
	}
	return n, nil
}
