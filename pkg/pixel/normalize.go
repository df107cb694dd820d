package pixel

import (
	"encoding/binary"
	"fmt"
)

// Normalizer maps one source sample (all channels of one pixel) to a BGR
// triple.
type Normalizer struct {
	bits     int
	channels int
	order    binary.ByteOrder
}

// NewNormalizer returns a normalizer for samples of the given depth and
// color space. order is the byte order of 16-bit channels; nil means
// little endian.
func NewNormalizer(bits int, space ColorSpace, order binary.ByteOrder) (*Normalizer, error) {
	if bits != 8 && bits != 16 {
		return nil, fmt.Errorf("unsupported bits per sample %d", bits)
	}
	ch := space.Channels()
	if ch == 0 {
		return nil, fmt.Errorf("unsupported color space %v", space)
	}
	if order == nil {
		order = binary.LittleEndian
	}
	return &Normalizer{bits: bits, channels: ch, order: order}, nil
}

// SampleSize is the number of source bytes consumed per pixel.
func (n *Normalizer) SampleSize() int {
	return n.channels * n.bits / 8
}

// Normalize converts src, which must hold SampleSize bytes, and writes
// B, G, R into dst.
func (n *Normalizer) Normalize(src, dst []byte) {
	if n.bits == 8 {
		if n.channels == 1 {
			dst[0], dst[1], dst[2] = src[0], src[0], src[0]
			return
		}
		dst[0], dst[1], dst[2] = src[2], src[1], src[0]
		return
	}
	if n.channels == 1 {
		v := Reduce16(n.order.Uint16(src))
		dst[0], dst[1], dst[2] = v, v, v
		return
	}
	dst[0] = Reduce16(n.order.Uint16(src[4:]))
	dst[1] = Reduce16(n.order.Uint16(src[2:]))
	dst[2] = Reduce16(n.order.Uint16(src[0:]))
}

// Reduce16 truncates a 16-bit channel to 8 bits as (v+129)/257. No error
// is diffused to neighbouring pixels.
func Reduce16(v uint16) uint8 {
	return uint8((uint32(v) + 129) / 257)
}
