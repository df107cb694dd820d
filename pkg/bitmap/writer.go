package bitmap

import (
	"fmt"
	"io"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
)

// Write24 writes a 24-bit file. buf rows must already be bottom-up.
func Write24(w io.Writer, buf *page.Buffer, opts Options) (int64, error) {
	cw := &CountingWriter{Writer: w}
	h := New24(buf.Width, buf.Height, opts)
	if err := writeHeaders(cw, h); err != nil {
		return cw.Count, err
	}
	row := make([]byte, Stride(buf.Width, 24))
	for y := 0; y < buf.Height; y++ {
		// padding bytes stay zero
		copy(row, buf.Row(y))
		if _, err := cw.Write(row); err != nil {
			return cw.Count, fmt.Errorf("%w: row %d at byte %d: %w", ErrIO, y, cw.Count, err)
		}
	}
	return cw.Count, nil
}

// Write8 writes an 8-bit file with a grayscale palette; each pixel index
// is the pixel's luminance.
func Write8(w io.Writer, buf *page.Buffer, opts Options) (int64, error) {
	cw := &CountingWriter{Writer: w}
	h := New8(buf.Width, buf.Height, opts)
	if err := writeHeaders(cw, h); err != nil {
		return cw.Count, err
	}
	if _, err := cw.Write(GrayPalette()); err != nil {
		return cw.Count, fmt.Errorf("%w: palette: %w", ErrIO, err)
	}
	row := make([]byte, Stride(buf.Width, 8))
	for y := 0; y < buf.Height; y++ {
		src := buf.Row(y)
		for x := 0; x < buf.Width; x++ {
			row[x] = pixel.Load(src[x*pixel.Size:]).Luma()
		}
		if _, err := cw.Write(row); err != nil {
			return cw.Count, fmt.Errorf("%w: row %d at byte %d: %w", ErrIO, y, cw.Count, err)
		}
	}
	return cw.Count, nil
}

// GrayPalette returns 256 (i, i, i, 0) color table entries.
func GrayPalette() []byte {
	p := make([]byte, PaletteSize)
	for i := 0; i < PaletteEntries; i++ {
		p[i*4], p[i*4+1], p[i*4+2] = byte(i), byte(i), byte(i)
	}
	return p
}

func writeHeaders(w io.Writer, h Headers) error {
	b, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("%w: headers: %w", ErrIO, err)
	}
	return nil
}

// CountingWriter counts the bytes accepted by Writer. Short writes without
// an error are reported as io.ErrShortWrite.
type CountingWriter struct {
	Count  int64
	Writer io.Writer
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.Writer.Write(p)
	c.Count += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}
