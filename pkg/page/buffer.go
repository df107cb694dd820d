package page

import (
	"fmt"

	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
)

// Buffer is a dense row-major page of BGR pixels, indexed y*Width+x.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
	rows   int
}

// NewBuffer allocates a buffer for an entire page.
func NewBuffer(g Geometry) *Buffer {
	return &Buffer{
		Width:  g.Width,
		Height: g.Height,
		Pix:    make([]byte, g.Width*g.Height*pixel.Size),
	}
}

// Stride is the number of bytes per buffer row.
func (b *Buffer) Stride() int {
	return b.Width * pixel.Size
}

// Rows returns the number of rows appended so far.
func (b *Buffer) Rows() int {
	return b.rows
}

// Full reports whether every row of the page has been appended.
func (b *Buffer) Full() bool {
	return b.rows == b.Height
}

// AppendRow copies row into the buffer repeat times. Nothing is appended
// when the rows would run past the page height.
func (b *Buffer) AppendRow(row []byte, repeat int) error {
	if len(row) != b.Stride() {
		return fmt.Errorf("page: row of %d bytes, want %d", len(row), b.Stride())
	}
	if repeat < 1 {
		return fmt.Errorf("page: bad repeat count %d", repeat)
	}
	if b.rows+repeat > b.Height {
		return fmt.Errorf("%w: %d rows at row %d exceed height %d",
			ErrRowCountMismatch, repeat, b.rows, b.Height)
	}
	for i := 0; i < repeat; i++ {
		copy(b.Row(b.rows), row)
		b.rows++
	}
	return nil
}

// Verify returns ErrRowCountMismatch unless the page is complete.
func (b *Buffer) Verify() error {
	if b.rows != b.Height {
		return fmt.Errorf("%w: decoded %d of %d rows", ErrRowCountMismatch, b.rows, b.Height)
	}
	return nil
}

// Row returns the bytes of row y.
func (b *Buffer) Row(y int) []byte {
	s := b.Stride()
	return b.Pix[y*s : (y+1)*s : (y+1)*s]
}

// At returns the pixel at column x of row y.
func (b *Buffer) At(x, y int) pixel.BGR {
	return pixel.Load(b.Pix[(y*b.Width+x)*pixel.Size:])
}

// Flip reverses the row order in place so that the last row comes first.
// Pixels within a row are untouched.
func (b *Buffer) Flip() {
	tmp := make([]byte, b.Stride())
	for i := 0; i < b.Height-1-i; i++ {
		top, bottom := b.Row(i), b.Row(b.Height-1-i)
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}
