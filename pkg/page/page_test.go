package page

import (
	"math"
	"testing"

	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgb8(w, h int) Geometry {
	return Geometry{
		Width:         w,
		Height:        h,
		BitsPerSample: 8,
		ColorOrder:    pixel.OrderChunked,
		ColorSpace:    pixel.SpaceRGB,
		BytesPerLine:  w * 3,
	}
}

func solidRow(w int, p pixel.BGR) []byte {
	row := make([]byte, w*pixel.Size)
	for x := 0; x < w; x++ {
		p.Put(row[x*pixel.Size:])
	}
	return row
}

func TestGeometry_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Geometry)
		ok     bool
	}{
		{"RGB8", func(g *Geometry) {}, true},
		{"RGB16", func(g *Geometry) { g.BitsPerSample = 16; g.BytesPerLine = g.Width * 6 }, true},
		{"Gray8", func(g *Geometry) { g.ColorSpace = pixel.SpaceGray }, true},
		{"SRGB", func(g *Geometry) { g.ColorSpace = pixel.SpaceSRGB }, true},
		{"Bits1", func(g *Geometry) { g.BitsPerSample = 1 }, false},
		{"Planar", func(g *Geometry) { g.ColorOrder = pixel.OrderPlanar }, false},
		{"Banded", func(g *Geometry) { g.ColorOrder = pixel.OrderBanded }, false},
		{"CMYK", func(g *Geometry) { g.ColorSpace = pixel.SpaceCMYK }, false},
		{"ZeroHeight", func(g *Geometry) { g.Height = 0 }, false},
		{"MaxInt32Square", func(g *Geometry) { g.Width, g.Height, g.BytesPerLine = math.MaxInt32, math.MaxInt32, 0 }, false},
		{"WidthBeyondInt32", func(g *Geometry) { g.Width, g.BytesPerLine = math.MaxInt32+1, 0 }, false},
		{"FileBeyondUint32", func(g *Geometry) { g.Width, g.Height, g.BytesPerLine = 65536, 21846, 0 }, false},
		{"FileJustFits", func(g *Geometry) { g.Width, g.Height, g.BytesPerLine = 65536, 21845, 0 }, true},
		{"ShortLine", func(g *Geometry) { g.BytesPerLine = 2 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := rgb8(4, 2)
			tt.mutate(&g)
			err := g.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrGeometryUnsupported)
			}
		})
	}
}

func TestGeometry_MaxEncodedLine(t *testing.T) {
	g := rgb8(130, 1)
	assert.Equal(t, 1+130*4, g.MaxEncodedLine())
	g.Encoding = EncodingRaw
	assert.Equal(t, 130*3, g.MaxEncodedLine())
}

func TestBuffer_AppendRow(t *testing.T) {
	b := NewBuffer(rgb8(3, 4))
	red := pixel.RGB(255, 0, 0)

	require.NoError(t, b.AppendRow(solidRow(3, red), 3))
	assert.Equal(t, 3, b.Rows())
	assert.False(t, b.Full())
	assert.ErrorIs(t, b.Verify(), ErrRowCountMismatch)

	// overshoot appends nothing
	err := b.AppendRow(solidRow(3, red), 2)
	assert.ErrorIs(t, err, ErrRowCountMismatch)
	assert.Equal(t, 3, b.Rows())

	require.NoError(t, b.AppendRow(solidRow(3, pixel.RGB(1, 2, 3)), 1))
	assert.True(t, b.Full())
	assert.NoError(t, b.Verify())
	assert.Equal(t, red, b.At(2, 2))
	assert.Equal(t, pixel.RGB(1, 2, 3), b.At(0, 3))
}

func TestBuffer_AppendRow_BadInput(t *testing.T) {
	b := NewBuffer(rgb8(3, 4))
	assert.Error(t, b.AppendRow(make([]byte, 4), 1))
	assert.Error(t, b.AppendRow(make([]byte, 9), 0))
	assert.Equal(t, 0, b.Rows())
}

func TestBuffer_Flip(t *testing.T) {
	for _, h := range []int{1, 2, 3, 8} {
		b := NewBuffer(rgb8(5, h))
		for y := 0; y < h; y++ {
			require.NoError(t, b.AppendRow(solidRow(5, pixel.RGB(uint8(y), uint8(y*2), 7)), 1))
		}
		orig := append([]byte(nil), b.Pix...)

		b.Flip()
		for y := 0; y < h; y++ {
			assert.Equal(t, pixel.RGB(uint8(h-1-y), uint8((h-1-y)*2), 7), b.At(4, y))
		}

		b.Flip()
		assert.Equal(t, orig, b.Pix, "flip must be its own inverse (h=%d)", h)
	}
}
