package pixel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce16_Bounds(t *testing.T) {
	assert.Equal(t, uint8(0), Reduce16(0))
	assert.Equal(t, uint8(255), Reduce16(65535))

	prev := Reduce16(0)
	for v := 1; v <= 0xFFFF; v++ {
		got := Reduce16(uint16(v))
		if got < prev {
			require.GreaterOrEqual(t, got, prev, "not monotonic at %d", v)
		}
		prev = got
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		bits  int
		space ColorSpace
		order binary.ByteOrder
		src   []byte
		want  BGR
	}{
		{"RGB8", 8, SpaceRGB, nil, []byte{0, 128, 255}, RGB(0, 128, 255)},
		{"SRGB8", 8, SpaceSRGB, nil, []byte{1, 2, 3}, RGB(1, 2, 3)},
		{"Gray8", 8, SpaceGray, nil, []byte{77}, RGB(77, 77, 77)},
		{"RGB16LE", 16, SpaceRGB, nil, []byte{0x00, 0x00, 0x80, 0x80, 0xFF, 0xFF}, RGB(0, 128, 255)},
		{"RGB16BE", 16, SpaceRGB, binary.BigEndian, []byte{0xFF, 0xFF, 0x00, 0x00, 0x01, 0x01}, RGB(255, 0, 1)},
		{"Gray16", 16, SpaceSGray, binary.LittleEndian, []byte{0x01, 0x01}, RGB(1, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNormalizer(tt.bits, tt.space, tt.order)
			require.NoError(t, err)
			require.Equal(t, len(tt.src), n.SampleSize())

			dst := make([]byte, Size)
			n.Normalize(tt.src, dst)
			assert.Equal(t, tt.want, Load(dst))
		})
	}
}

func TestNewNormalizer_Unsupported(t *testing.T) {
	_, err := NewNormalizer(4, SpaceRGB, nil)
	assert.Error(t, err)
	_, err = NewNormalizer(8, SpaceCMYK, nil)
	assert.Error(t, err)
}

func TestLuma(t *testing.T) {
	assert.Equal(t, uint8(42), RGB(42, 42, 42).Luma())
	assert.Equal(t, uint8(255), RGB(255, 255, 255).Luma())
	assert.Equal(t, uint8(76), RGB(255, 0, 0).Luma())
}
