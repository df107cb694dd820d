// Package pixel holds the canonical 24-bit pixel representation shared by
// the scanline decoders and the bitmap writers, and the normalizer that
// converts raster samples into it.
package pixel

import "fmt"

// ColorSpace values as they appear in a CUPS page header.
type ColorSpace int

const (
	SpaceGray  ColorSpace = 0
	SpaceRGB   ColorSpace = 1
	SpaceBlack ColorSpace = 3
	SpaceCMYK  ColorSpace = 6
	SpaceSGray ColorSpace = 18
	SpaceSRGB  ColorSpace = 19
)

func (s ColorSpace) String() string {
	switch s {
	case SpaceGray:
		return "gray"
	case SpaceRGB:
		return "rgb"
	case SpaceBlack:
		return "black"
	case SpaceCMYK:
		return "cmyk"
	case SpaceSGray:
		return "sgray"
	case SpaceSRGB:
		return "srgb"
	default:
		return fmt.Sprintf("colorspace(%d)", int(s))
	}
}

// Channels returns the number of samples per pixel, or 0 when the color
// space can not be normalized.
func (s ColorSpace) Channels() int {
	switch s {
	case SpaceGray, SpaceSGray:
		return 1
	case SpaceRGB, SpaceSRGB:
		return 3
	default:
		return 0
	}
}

// IsGray reports whether the space carries a single luminance channel.
func (s ColorSpace) IsGray() bool {
	return s == SpaceGray || s == SpaceSGray
}

// ColorOrder values as they appear in a CUPS page header.
type ColorOrder int

const (
	OrderChunked ColorOrder = 0
	OrderBanded  ColorOrder = 1
	OrderPlanar  ColorOrder = 2
)

func (o ColorOrder) String() string {
	switch o {
	case OrderChunked:
		return "chunked"
	case OrderBanded:
		return "banded"
	case OrderPlanar:
		return "planar"
	default:
		return fmt.Sprintf("colororder(%d)", int(o))
	}
}

// Size is the number of bytes a BGR pixel occupies in a buffer.
const Size = 3

// BGR is a canonical pixel. Buffers store it as the three bytes B, G, R.
type BGR struct {
	B, G, R uint8
}

// RGB builds a pixel from red, green and blue values.
func RGB(r, g, b uint8) BGR {
	return BGR{B: b, G: g, R: r}
}

// Put writes p into the first three bytes of dst.
func (p BGR) Put(dst []byte) {
	dst[0], dst[1], dst[2] = p.B, p.G, p.R
}

// Load reads a pixel from the first three bytes of src.
func Load(src []byte) BGR {
	return BGR{B: src[0], G: src[1], R: src[2]}
}

// Luma returns the BT.601 luminance of p using integer weights.
func (p BGR) Luma() uint8 {
	if p.R == p.G && p.G == p.B {
		return p.G
	}
	return uint8((299*uint32(p.R) + 587*uint32(p.G) + 114*uint32(p.B) + 500) / 1000)
}
