package raster

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/scanline"
)

// Writer produces a raster stream. Version 2 pages are run length
// encoded, identical consecutive rows collapse into vertical repeats.
type Writer struct {
	w       *bufio.Writer
	bo      binary.ByteOrder
	version int
}

// NewWriter writes the sync word for version and byte order.
func NewWriter(w io.Writer, version int, bo binary.ByteOrder) (*Writer, error) {
	if bo == nil {
		bo = binary.LittleEndian
	}
	m, err := magic(version, bo)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(m); err != nil {
		return nil, err
	}
	return &Writer{w: bw, bo: bo, version: version}, nil
}

// NewHeader builds a page header describing g.
func NewHeader(g page.Geometry) *Header {
	h := &Header{}
	bpp := g.BytesPerPixel()
	h.V1.Width = uint32(g.Width)
	h.V1.Height = uint32(g.Height)
	h.V1.BitsPerColor = uint32(g.BitsPerSample)
	h.V1.BitsPerPixel = uint32(bpp * 8)
	h.V1.BytesPerLine = uint32(g.LineSize())
	h.V1.ColorOrder = uint32(g.ColorOrder)
	h.V1.ColorSpace = uint32(g.ColorSpace)
	h.V1.HWResolution = [2]uint32{uint32(g.HorizDPI), uint32(g.VertDPI)}
	h.V1.NumCopies = 1
	h.V2.NumColors = uint32(g.ColorSpace.Channels())
	return h
}

// WritePage writes a header and its rows. Each row holds Width samples in
// stream order; rows shorter than BytesPerLine are zero padded in raw
// versions.
func (w *Writer) WritePage(h *Header, rows [][]byte) error {
	if len(rows) != int(h.V1.Height) {
		return fmt.Errorf("raster: %d rows for page height %d", len(rows), h.V1.Height)
	}
	if err := writeHeader(w.w, h, w.version, w.bo); err != nil {
		return err
	}
	if w.version != 2 {
		line := make([]byte, h.V1.BytesPerLine)
		for i, row := range rows {
			if len(row) > len(line) {
				return fmt.Errorf("raster: row %d has %d bytes, line is %d", i, len(row), len(line))
			}
			clear(line)
			copy(line, row)
			if _, err := w.w.Write(line); err != nil {
				return err
			}
		}
		return nil
	}
	size := h.BytesPerPixel()
	for i := 0; i < len(rows); {
		repeat := 1
		for i+repeat < len(rows) && repeat < 256 && bytes.Equal(rows[i], rows[i+repeat]) {
			repeat++
		}
		line, err := scanline.Encode(rows[i], size, repeat)
		if err != nil {
			return fmt.Errorf("raster: row %d: %w", i, err)
		}
		if _, err := w.w.Write(line); err != nil {
			return err
		}
		i += repeat
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
