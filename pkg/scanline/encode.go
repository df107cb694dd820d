package scanline

import (
	"bytes"
	"fmt"
)

// Encode compresses one row of source samples (sampleSize bytes per pixel,
// in raster order) into a scanline that stands for repeat physical rows.
// Runs of two or more equal samples become repeat tokens, everything else
// literal tokens.
func Encode(samples []byte, sampleSize, repeat int) ([]byte, error) {
	if err := checkEncode(samples, sampleSize, repeat); err != nil {
		return nil, err
	}
	n := len(samples) / sampleSize
	at := func(i int) []byte { return samples[i*sampleSize : (i+1)*sampleSize] }

	var buf bytes.Buffer
	buf.WriteByte(byte(repeat - 1))
	i := 0
	for i < n {
		runLen := 1
		for i+runLen < n && runLen < MaxRepeat && bytes.Equal(at(i+runLen), at(i)) {
			runLen++
		}
		if runLen > 1 || i+1 == n {
			buf.WriteByte(Token{Kind: Repeat, Count: runLen}.Control())
			buf.Write(at(i))
			i += runLen
			continue
		}

		// literal until the next pair of equal samples
		litLen := 1
		for i+litLen < n && litLen < MaxLiteral {
			if i+litLen+1 < n && bytes.Equal(at(i+litLen), at(i+litLen+1)) {
				break
			}
			litLen++
		}
		if litLen == 1 {
			buf.WriteByte(Token{Kind: Repeat, Count: 1}.Control())
		} else {
			buf.WriteByte(Token{Kind: Literal, Count: litLen}.Control())
		}
		buf.Write(samples[i*sampleSize : (i+litLen)*sampleSize])
		i += litLen
	}
	return buf.Bytes(), nil
}

// EncodeLiteral writes every pixel through literal tokens of at most
// MaxRepeat pixels. A trailing single pixel is written as a repeat of one.
func EncodeLiteral(samples []byte, sampleSize, repeat int) ([]byte, error) {
	if err := checkEncode(samples, sampleSize, repeat); err != nil {
		return nil, err
	}
	n := len(samples) / sampleSize

	var buf bytes.Buffer
	buf.WriteByte(byte(repeat - 1))
	for i := 0; i < n; {
		count := min(n-i, MaxRepeat)
		if count == 1 {
			buf.WriteByte(Token{Kind: Repeat, Count: 1}.Control())
		} else {
			buf.WriteByte(Token{Kind: Literal, Count: count}.Control())
		}
		buf.Write(samples[i*sampleSize : (i+count)*sampleSize])
		i += count
	}
	return buf.Bytes(), nil
}

func checkEncode(samples []byte, sampleSize, repeat int) error {
	if sampleSize <= 0 || len(samples) == 0 || len(samples)%sampleSize != 0 {
		return fmt.Errorf("scanline: %d bytes is not a whole number of %d byte samples", len(samples), sampleSize)
	}
	if repeat < 1 || repeat > 256 {
		return fmt.Errorf("scanline: repeat count %d out of range", repeat)
	}
	return nil
}
