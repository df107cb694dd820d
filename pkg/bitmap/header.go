// Package bitmap writes uncompressed, bottom-up BMP files from page
// buffers. Headers are serialized field by field in little endian order.
package bitmap

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrIO is returned when the output sink fails; the file is left partial.
var ErrIO = errors.New("bitmap: write failed")

const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	PaletteEntries = 256
	PaletteSize    = PaletteEntries * 4

	compressionNone = 0
	colorPlanes     = 1
)

// Signature is the 'B','M' file type, 0x4d42 read little endian.
var Signature = [2]byte{'B', 'M'}

// FileHeader is the 14 byte BITMAPFILEHEADER.
type FileHeader struct {
	Type      [2]byte
	Size      uint32
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32
}

// InfoHeader is the 40 byte BITMAPINFOHEADER.
type InfoHeader struct {
	Size            uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	SizeImage       uint32
	XPelsPerMeter   int32
	YPelsPerMeter   int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Options carries the header fields that have no fixed value.
type Options struct {
	XPelsPerMeter int32
	YPelsPerMeter int32
	Reserved1     uint16
	Reserved2     uint16
}

// DPIToPelsPerMeter converts a resolution in dots per inch.
func DPIToPelsPerMeter(dpi int) int32 {
	return int32((float64(dpi) * 10000 / 254) + 0.5)
}

// Stride is the padded byte length of one row.
func Stride(width, bitCount int) int {
	return (width*bitCount/8 + 3) &^ 3
}

// PadLen is the number of zero bytes that follow a row's pixels.
func PadLen(width, bitCount int) int {
	return Stride(width, bitCount) - width*bitCount/8
}

// Headers are the computed records for one page.
type Headers struct {
	File FileHeader
	Info InfoHeader
}

// New24 computes the headers of a 24-bit file.
func New24(width, height int, opts Options) Headers {
	return newHeaders(width, height, 24, 0, opts)
}

// New8 computes the headers of an 8-bit file with a 256 entry palette.
func New8(width, height int, opts Options) Headers {
	return newHeaders(width, height, 8, PaletteEntries, opts)
}

func newHeaders(width, height, bitCount, colors int, opts Options) Headers {
	data := uint32(Stride(width, bitCount) * height)
	off := uint32(FileHeaderSize + InfoHeaderSize + colors*4)
	return Headers{
		File: FileHeader{
			Type:      Signature,
			Size:      off + data,
			Reserved1: opts.Reserved1,
			Reserved2: opts.Reserved2,
			OffBits:   off,
		},
		Info: InfoHeader{
			Size:            InfoHeaderSize,
			Width:           int32(width),
			Height:          int32(height),
			Planes:          colorPlanes,
			BitCount:        uint16(bitCount),
			Compression:     compressionNone,
			SizeImage:       data,
			XPelsPerMeter:   opts.XPelsPerMeter,
			YPelsPerMeter:   opts.YPelsPerMeter,
			ColorsUsed:      uint32(colors),
			ColorsImportant: uint32(colors),
		},
	}
}

// MarshalBinary encodes the file header followed by the info header.
func (h Headers) MarshalBinary() ([]byte, error) {
	b := make([]byte, FileHeaderSize+InfoHeaderSize)
	le := binary.LittleEndian

	b[0], b[1] = h.File.Type[0], h.File.Type[1]
	le.PutUint32(b[2:], h.File.Size)
	le.PutUint16(b[6:], h.File.Reserved1)
	le.PutUint16(b[8:], h.File.Reserved2)
	le.PutUint32(b[10:], h.File.OffBits)

	i := b[FileHeaderSize:]
	le.PutUint32(i[0:], h.Info.Size)
	le.PutUint32(i[4:], uint32(h.Info.Width))
	le.PutUint32(i[8:], uint32(h.Info.Height))
	le.PutUint16(i[12:], h.Info.Planes)
	le.PutUint16(i[14:], h.Info.BitCount)
	le.PutUint32(i[16:], h.Info.Compression)
	le.PutUint32(i[20:], h.Info.SizeImage)
	le.PutUint32(i[24:], uint32(h.Info.XPelsPerMeter))
	le.PutUint32(i[28:], uint32(h.Info.YPelsPerMeter))
	le.PutUint32(i[32:], h.Info.ColorsUsed)
	le.PutUint32(i[36:], h.Info.ColorsImportant)
	return b, nil
}

// ParseHeaders decodes the first 54 bytes of a BMP file.
func ParseHeaders(r io.Reader) (Headers, error) {
	b := make([]byte, FileHeaderSize+InfoHeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return Headers{}, err
	}
	le := binary.LittleEndian
	var h Headers
	h.File.Type = [2]byte{b[0], b[1]}
	if h.File.Type != Signature {
		return Headers{}, errors.New("bitmap: missing BM signature")
	}
	h.File.Size = le.Uint32(b[2:])
	h.File.Reserved1 = le.Uint16(b[6:])
	h.File.Reserved2 = le.Uint16(b[8:])
	h.File.OffBits = le.Uint32(b[10:])

	i := b[FileHeaderSize:]
	h.Info.Size = le.Uint32(i[0:])
	h.Info.Width = int32(le.Uint32(i[4:]))
	h.Info.Height = int32(le.Uint32(i[8:]))
	h.Info.Planes = le.Uint16(i[12:])
	h.Info.BitCount = le.Uint16(i[14:])
	h.Info.Compression = le.Uint32(i[16:])
	h.Info.SizeImage = le.Uint32(i[20:])
	h.Info.XPelsPerMeter = int32(le.Uint32(i[24:]))
	h.Info.YPelsPerMeter = int32(le.Uint32(i[28:]))
	h.Info.ColorsUsed = le.Uint32(i[32:])
	h.Info.ColorsImportant = le.Uint32(i[36:])
	return h, nil
}
