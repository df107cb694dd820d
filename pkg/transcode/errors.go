package transcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpfielding/rasterbmp.go/pkg/bitmap"
	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/scanline"
)

// ErrNoPages is returned by Run when not a single page was written.
var ErrNoPages = errors.New("transcode: no pages written")

// Kind classifies a page-level failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindGeometryUnsupported
	KindRLEMalformed
	KindShortRead
	KindRowCountMismatch
	KindIOFailure
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindGeometryUnsupported:
		return "GeometryUnsupported"
	case KindRLEMalformed:
		return "RleMalformed"
	case KindShortRead:
		return "ShortRead"
	case KindRowCountMismatch:
		return "RowCountMismatch"
	case KindIOFailure:
		return "IoFailure"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// KindOf maps an error from the pipeline to its Kind.
func KindOf(err error) Kind {
	var pe *PageError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, page.ErrGeometryUnsupported):
		return KindGeometryUnsupported
	case errors.Is(err, scanline.ErrMalformed):
		return KindRLEMalformed
	case errors.Is(err, scanline.ErrShortRead):
		return KindShortRead
	case errors.Is(err, page.ErrRowCountMismatch):
		return KindRowCountMismatch
	case errors.Is(err, bitmap.ErrIO):
		return KindIOFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// PageError is a failure confined to one page. Index is 1-based.
type PageError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v: %v", e.Index, e.Kind, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
