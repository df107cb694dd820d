// Package raster reads and writes CUPS raster streams (versions 1, 2 and
// 3). The reader hands out page geometry and scanlines in their encoded
// form; decoding is left to package scanline.
package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
)

var (
	// ErrUnknownVersion is returned for an unknown sync word. The input is
	// either a newer format or no CUPS raster stream at all.
	ErrUnknownVersion = errors.New("raster: unsupported file format or version")

	// ErrInvalidFormat is returned when the stream can no longer be framed.
	ErrInvalidFormat = errors.New("raster: error in the format")
)

const (
	syncV1BE = "RaSt"
	syncV1LE = "tSaR"
	syncV2BE = "RaS2"
	syncV2LE = "2SaR"
	syncV3BE = "RaS3"
	syncV3LE = "3SaR"

	stringSize = 64
)

func parseMagic(b []byte) (version int, bo binary.ByteOrder, ok bool) {
	switch string(b) {
	case syncV1BE:
		return 1, binary.BigEndian, true
	case syncV2BE:
		return 2, binary.BigEndian, true
	case syncV3BE:
		return 3, binary.BigEndian, true
	case syncV1LE:
		return 1, binary.LittleEndian, true
	case syncV2LE:
		return 2, binary.LittleEndian, true
	case syncV3LE:
		return 3, binary.LittleEndian, true
	default:
		return 0, nil, false
	}
}

func magic(version int, bo binary.ByteOrder) (string, error) {
	le := bo == binary.LittleEndian
	switch {
	case version == 1 && le:
		return syncV1LE, nil
	case version == 1:
		return syncV1BE, nil
	case version == 2 && le:
		return syncV2LE, nil
	case version == 2:
		return syncV2BE, nil
	case version == 3 && le:
		return syncV3LE, nil
	case version == 3:
		return syncV3BE, nil
	default:
		return "", ErrUnknownVersion
	}
}

// Header is a CUPS page header. Only the fields the filter uses are named;
// the rest are kept so headers survive a read/write cycle.
type Header struct {
	MediaClass string
	MediaColor string
	MediaType  string
	OutputType string

	V1 V1Fields
	V2 V2Fields

	MarkerType      string
	RenderingIntent string
	PageSizeName    string
}

// V1Fields is the fixed block of a version 1 header, in stream order.
type V1Fields struct {
	AdvanceDistance    uint32
	AdvanceMedia       uint32
	Collate            uint32
	CutMedia           uint32
	Duplex             uint32
	HWResolution       [2]uint32
	ImagingBoundingBox [4]uint32
	InsertSheet        uint32
	Jog                uint32
	LeadingEdge        uint32
	Margins            [2]uint32
	ManualFeed         uint32
	MediaPosition      uint32
	MediaWeight        uint32
	MirrorPrint        uint32
	NegativePrint      uint32
	NumCopies          uint32
	Orientation        uint32
	OutputFaceUp       uint32
	PageSize           [2]uint32
	Separations        uint32
	TraySwitch         uint32
	Tumble             uint32
	Width              uint32
	Height             uint32
	MediaTypeNum       uint32
	BitsPerColor       uint32
	BitsPerPixel       uint32
	BytesPerLine       uint32
	ColorOrder         uint32
	ColorSpace         uint32
	Compression        uint32
	RowCount           uint32
	RowFeed            uint32
	RowStep            uint32
}

// V2Fields is the fixed block that versions 2 and 3 append.
type V2Fields struct {
	NumColors               uint32
	BorderlessScalingFactor float32
	PageSize                [2]float32
	ImagingBBox             [4]float32
	Integer                 [16]uint32
	Real                    [16]float32
	String                  [16][stringSize]byte
}

// HeaderSize is the size of a page header: 420 bytes for version 1, 1796
// for versions 2 and 3.
func HeaderSize(version int) int {
	size := 4*stringSize + binary.Size(V1Fields{})
	if version != 1 {
		size += binary.Size(V2Fields{}) + 3*stringSize
	}
	return size
}

// Geometry maps the header onto the page description used by the
// decoder. Version 2 scanlines are run length encoded.
func (h *Header) Geometry(version int, bo binary.ByteOrder) page.Geometry {
	enc := page.EncodingRaw
	if version == 2 {
		enc = page.EncodingRLE
	}
	return page.Geometry{
		Width:         int(h.V1.Width),
		Height:        int(h.V1.Height),
		BitsPerSample: int(h.V1.BitsPerColor),
		ColorOrder:    pixel.ColorOrder(h.V1.ColorOrder),
		ColorSpace:    pixel.ColorSpace(h.V1.ColorSpace),
		BytesPerLine:  int(h.V1.BytesPerLine),
		Encoding:      enc,
		ByteOrder:     bo,
		HorizDPI:      int(h.V1.HWResolution[0]),
		VertDPI:       int(h.V1.HWResolution[1]),
	}
}

// BytesPerPixel is the size of one compression unit: a whole pixel for
// chunked data, a single color otherwise.
func (h *Header) BytesPerPixel() int {
	if pixel.ColorOrder(h.V1.ColorOrder) == pixel.OrderChunked {
		return int(h.V1.BitsPerPixel+7) / 8
	}
	return int(h.V1.BitsPerColor+7) / 8
}

func cstring(b []byte) string {
	idx := bytes.IndexByte(b, 0)
	if idx < 0 {
		return string(b)
	}
	return string(b[:idx])
}

func putCString(s string) []byte {
	b := make([]byte, stringSize)
	copy(b[:stringSize-1], s)
	return b
}

func readHeader(r io.Reader, version int, bo binary.ByteOrder) (*Header, error) {
	var h Header
	strs := make([]byte, 4*stringSize)
	if _, err := io.ReadFull(r, strs); err != nil {
		return nil, err
	}
	h.MediaClass = cstring(strs[0:64])
	h.MediaColor = cstring(strs[64:128])
	h.MediaType = cstring(strs[128:192])
	h.OutputType = cstring(strs[192:256])

	if err := binary.Read(r, bo, &h.V1); err != nil {
		return nil, unexpected(err)
	}
	if version == 1 {
		return &h, nil
	}
	if err := binary.Read(r, bo, &h.V2); err != nil {
		return nil, unexpected(err)
	}
	tail := make([]byte, 3*stringSize)
	if _, err := io.ReadFull(r, tail); err != nil {
		return nil, unexpected(err)
	}
	h.MarkerType = cstring(tail[0:64])
	h.RenderingIntent = cstring(tail[64:128])
	h.PageSizeName = cstring(tail[128:192])
	return &h, nil
}

func writeHeader(w io.Writer, h *Header, version int, bo binary.ByteOrder) error {
	for _, s := range []string{h.MediaClass, h.MediaColor, h.MediaType, h.OutputType} {
		if _, err := w.Write(putCString(s)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, bo, &h.V1); err != nil {
		return err
	}
	if version == 1 {
		return nil
	}
	if err := binary.Write(w, bo, &h.V2); err != nil {
		return err
	}
	for _, s := range []string{h.MarkerType, h.RenderingIntent, h.PageSizeName} {
		if _, err := w.Write(putCString(s)); err != nil {
			return err
		}
	}
	return nil
}

// io.EOF inside a header means it was truncated
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
