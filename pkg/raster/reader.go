package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/scanline"
)

// Reader iterates the pages of a raster stream.
type Reader struct {
	r       *bufio.Reader
	bo      binary.ByteOrder
	version int
	err     error

	header    *Header
	geometry  page.Geometry
	line      []byte
	linesRead int
}

// NewReader reads the sync word and returns a reader positioned before
// the first page header.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	b := make([]byte, 4)
	if _, err := io.ReadFull(br, b); err != nil {
		return nil, err
	}
	version, bo, ok := parseMagic(b)
	if !ok {
		return nil, ErrUnknownVersion
	}
	return &Reader{r: br, bo: bo, version: version}, nil
}

// Version is the stream format version, 1 to 3.
func (r *Reader) Version() int {
	return r.version
}

// ByteOrder of the header fields and 16-bit samples.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.bo
}

// Header returns the current page header, nil before the first page.
func (r *Reader) Header() *Header {
	return r.header
}

// NextPage skips the unread scanlines of the current page and reads the
// next page header. It returns io.EOF at the end of the stream.
func (r *Reader) NextPage() (page.Geometry, error) {
	if r.err != nil {
		return page.Geometry{}, r.err
	}
	if r.header != nil {
		if err := r.discard(); err != nil {
			r.err = err
			return page.Geometry{}, err
		}
	}
	h, err := readHeader(r.r, r.version, r.bo)
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return page.Geometry{}, err
	}
	r.header = h
	r.geometry = h.Geometry(r.version, r.bo)
	r.linesRead = 0
	return r.geometry, nil
}

// UnreadLines is the number of rows of the current page not yet covered
// by a scanline, counting vertical repeats.
func (r *Reader) UnreadLines() int {
	if r.header == nil {
		return 0
	}
	return max(r.geometry.Height-r.linesRead, 0)
}

// ReadScanline returns the next encoded scanline of the current page. For
// version 2 streams that is the repeat byte plus run tokens, for other
// versions BytesPerLine raw bytes. The slice is reused by the next call.
func (r *Reader) ReadScanline(budget int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.UnreadLines() == 0 {
		return nil, io.EOF
	}
	var err error
	if r.version == 2 {
		err = r.readRLELine(budget)
	} else {
		err = r.readRawLine(budget)
	}
	if err != nil {
		return nil, err
	}
	return r.line, nil
}

func (r *Reader) readRawLine(budget int) error {
	n := r.geometry.LineSize()
	if budget < n {
		return fmt.Errorf("raster: line of %d bytes exceeds budget %d", n, budget)
	}
	r.line = grow(r.line, n)
	if _, err := io.ReadFull(r.r, r.line); err != nil {
		return err
	}
	r.linesRead++
	return nil
}

// readRLELine copies one compressed scanline out of the stream. It walks
// the run tokens only far enough to know where the line ends.
func (r *Reader) readRLELine(budget int) (err error) {
	r.line = r.line[:0]
	rep, err := r.r.ReadByte()
	if err != nil {
		return err
	}
	defer func() {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
	}()
	r.line = append(r.line, rep)

	width := r.geometry.Width
	size := r.header.BytesPerPixel()
	for x := 0; x < width; {
		ctl, err := r.r.ReadByte()
		if err != nil {
			return err
		}
		r.line = append(r.line, ctl)
		tok := scanline.ParseControl(ctl)
		n := size
		if tok.Kind == scanline.Literal {
			n *= tok.Count
		}
		if x+tok.Count > width {
			// skip the payload and end the line at the page edge; the
			// decoder rejects the control byte
			if _, err := r.r.Discard(n); err != nil {
				return err
			}
			break
		}
		if len(r.line)+n > budget {
			r.err = fmt.Errorf("%w: scanline exceeds %d bytes", ErrInvalidFormat, budget)
			return r.err
		}
		start := len(r.line)
		r.line = grow(r.line, start+n)
		if _, err := io.ReadFull(r.r, r.line[start:]); err != nil {
			return err
		}
		x += tok.Count
	}
	r.linesRead += int(rep) + 1
	return nil
}

func (r *Reader) discard() error {
	budget := r.geometry.LineSize()
	if r.version == 2 {
		// unsupported pages still have to be framed by their header
		budget = 1 + r.geometry.Width*(r.header.BytesPerPixel()+1)
	}
	for r.UnreadLines() > 0 {
		if _, err := r.ReadScanline(budget); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// grow returns b resized to n bytes, keeping its contents.
func grow(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	nb := make([]byte, n, max(n, 2*cap(b)))
	copy(nb, b)
	return nb
}
