package scanline

import "fmt"

// Run limits of a single control byte. A literal run can not describe a
// single pixel; that is written as a repeat of one.
const (
	MaxRepeat  = 128
	MinLiteral = 2
	MaxLiteral = 129
)

// Kind of run token.
type Kind int

const (
	Repeat Kind = iota
	Literal
)

func (k Kind) String() string {
	if k == Repeat {
		return "repeat"
	}
	return "literal"
}

// Token is one decoded control byte: a pixel repeated Count times, or
// Count distinct pixels.
type Token struct {
	Kind  Kind
	Count int
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%d)", t.Kind, t.Count)
}

// ParseControl classifies a control byte. 0..127 repeat one pixel c+1
// times, 128..255 introduce 257-c literal pixels.
func ParseControl(c byte) Token {
	if c < 128 {
		return Token{Kind: Repeat, Count: int(c) + 1}
	}
	return Token{Kind: Literal, Count: 257 - int(c)}
}

// Control is the inverse of ParseControl. Count must be in [1,MaxRepeat]
// for repeats and [MinLiteral,MaxLiteral] for literals.
func (t Token) Control() byte {
	if t.Kind == Repeat {
		return byte(t.Count - 1)
	}
	return byte(257 - t.Count)
}
