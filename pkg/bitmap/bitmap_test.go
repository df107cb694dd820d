package bitmap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func gradient(t *testing.T, w, h int) *page.Buffer {
	t.Helper()
	b := page.NewBuffer(page.Geometry{Width: w, Height: h})
	row := make([]byte, w*pixel.Size)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixel.RGB(uint8(x*10), uint8(y*20), uint8(x+y)).Put(row[x*pixel.Size:])
		}
		require.NoError(t, b.AppendRow(row, 1))
	}
	return b
}

func TestStride(t *testing.T) {
	for w := 1; w <= 64; w++ {
		s := Stride(w, 24)
		pad := (4 - (w*3)%4) % 4
		assert.Zero(t, s%4, "width %d", w)
		assert.Equal(t, w*3+pad, s, "width %d", w)
		assert.Equal(t, pad, PadLen(w, 24), "width %d", w)

		assert.Zero(t, Stride(w, 8)%4, "width %d", w)
		assert.Equal(t, (4-w%4)%4, PadLen(w, 8), "width %d", w)
	}
}

func TestNew24(t *testing.T) {
	h := New24(83, 100, Options{})
	assert.Equal(t, Signature, h.File.Type)
	assert.Equal(t, uint32(54), h.File.OffBits)
	assert.Equal(t, uint32(252*100), h.Info.SizeImage)
	assert.Equal(t, uint32(54+252*100), h.File.Size)
	assert.Equal(t, uint16(24), h.Info.BitCount)
	assert.Equal(t, uint16(1), h.Info.Planes)
	assert.Zero(t, h.Info.Compression)
	assert.Zero(t, h.Info.ColorsUsed)
	assert.Zero(t, h.Info.ColorsImportant)
}

func TestNew8(t *testing.T) {
	h := New8(3, 2, Options{XPelsPerMeter: DPIToPelsPerMeter(300), YPelsPerMeter: DPIToPelsPerMeter(300)})
	assert.Equal(t, uint32(54+1024), h.File.OffBits)
	assert.Equal(t, uint32(8), h.Info.SizeImage)
	assert.Equal(t, uint32(54+1024+8), h.File.Size)
	assert.Equal(t, uint32(256), h.Info.ColorsUsed)
	assert.Equal(t, int32(11811), h.Info.XPelsPerMeter)
}

func TestHeaders_MarshalBinary(t *testing.T) {
	h := New24(2, 2, Options{Reserved1: 29516, Reserved2: 18002})
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 54)

	want := []byte{
		'B', 'M', 62, 0, 0, 0, 0x4c, 0x73, 0x52, 0x46, 54, 0, 0, 0,
		40, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 1, 0, 24, 0,
		0, 0, 0, 0, 16, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	assert.Equal(t, want, b)

	parsed, err := ParseHeaders(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ParseHeaders(bytes.NewReader(make([]byte, 54)))
	assert.Error(t, err)
}

func TestWrite24_TwoByTwo(t *testing.T) {
	b := page.NewBuffer(page.Geometry{Width: 2, Height: 2})
	row := []byte{255, 128, 0, 255, 128, 0}
	require.NoError(t, b.AppendRow(row, 2))
	b.Flip()

	var out bytes.Buffer
	n, err := Write24(&out, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(62), n)
	require.Equal(t, 62, out.Len())

	px := out.Bytes()[54:]
	assert.Equal(t, []byte{255, 128, 0, 255, 128, 0, 0, 0}, px[:8])
	assert.Equal(t, []byte{255, 128, 0, 255, 128, 0, 0, 0}, px[8:])
}

func TestWrite24_DecodesWithImageBMP(t *testing.T) {
	for _, w := range []int{1, 2, 3, 4, 5, 17} {
		h := 7
		b := gradient(t, w, h)
		b.Flip()

		var out bytes.Buffer
		n, err := Write24(&out, b, Options{})
		require.NoError(t, err)
		assert.Equal(t, int64(54+Stride(w, 24)*h), n)

		img, err := bmp.Decode(&out)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				want := color.RGBA{R: uint8(x * 10), G: uint8(y * 20), B: uint8(x + y), A: 0xFF}
				got := color.RGBAModel.Convert(img.At(x, y))
				if want != got {
					assert.Equal(t, want, got, "pixel mismatch at (%d, %d) width %d", x, y, w)
					return
				}
			}
		}
	}
}

func TestWrite8_DecodesWithImageBMP(t *testing.T) {
	w, h := 5, 3
	b := page.NewBuffer(page.Geometry{Width: w, Height: h})
	row := make([]byte, w*pixel.Size)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x*40 + y)
			pixel.RGB(v, v, v).Put(row[x*pixel.Size:])
		}
		require.NoError(t, b.AppendRow(row, 1))
	}
	b.Flip()

	var out bytes.Buffer
	n, err := Write8(&out, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(54+1024+8*h), n)

	img, err := bmp.Decode(&out)
	require.NoError(t, err)
	pal, ok := img.(*image.Paletted)
	require.True(t, ok, "expected *image.Paletted, got %T", img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.Equal(t, uint8(x*40+y), pal.ColorIndexAt(x, y), "index at (%d, %d)", x, y)
		}
	}
}

type failingWriter struct {
	limit int
	short bool
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if len(p) <= f.limit {
		f.limit -= len(p)
		return len(p), nil
	}
	n := f.limit
	f.limit = 0
	if f.short {
		return n, nil
	}
	return n, errors.New("disk full")
}

func TestWrite_Failures(t *testing.T) {
	b := gradient(t, 3, 3)
	tests := []struct {
		name  string
		limit int
		short bool
		write func(*failingWriter) (int64, error)
	}{
		{"Headers24", 10, false, func(w *failingWriter) (int64, error) { return Write24(w, b, Options{}) }},
		{"Rows24", 60, false, func(w *failingWriter) (int64, error) { return Write24(w, b, Options{}) }},
		{"ShortRows24", 60, true, func(w *failingWriter) (int64, error) { return Write24(w, b, Options{}) }},
		{"Palette8", 100, false, func(w *failingWriter) (int64, error) { return Write8(w, b, Options{}) }},
		{"Rows8", 1080, true, func(w *failingWriter) (int64, error) { return Write8(w, b, Options{}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.write(&failingWriter{limit: tt.limit, short: tt.short})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIO)
			assert.Equal(t, int64(tt.limit), n)
		})
	}
}
