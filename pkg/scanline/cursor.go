package scanline

import (
	"errors"
	"fmt"
)

var (
	// ErrShortRead is returned when a scanline ends before the row is
	// complete.
	ErrShortRead = errors.New("scanline: short read")

	// ErrMalformed is returned when run tokens do not cover the row width
	// exactly.
	ErrMalformed = errors.New("scanline: malformed run")
)

// Cursor consumes an in-memory scanline with bounds checked reads.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// ReadByte returns the next byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.off >= len(c.buf) {
		return 0, fmt.Errorf("%w: need 1 byte at offset %d of %d", ErrShortRead, c.off, len(c.buf))
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// Next returns the next n bytes. The slice aliases the scanline.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || c.off+n > len(c.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrShortRead, n, c.off, len(c.buf))
	}
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// Offset is the number of bytes consumed.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining is the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}
