// Package transcode runs the page pipeline: scanlines are decoded into a
// page buffer, the buffer is flipped bottom-up and serialized as a BMP.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/rasterbmp.go/pkg/bitmap"
	"github.com/jpfielding/rasterbmp.go/pkg/logging"
	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
	"github.com/jpfielding/rasterbmp.go/pkg/scanline"
)

// PageSource advances an upstream raster stream to its next page. It
// returns io.EOF when no page is left.
type PageSource interface {
	NextPage() (page.Geometry, error)
}

// ScanlineSource returns the encoded bytes of the current page's next
// scanline, at most budget bytes. io.EOF means the page has no more
// scanlines; io.ErrUnexpectedEOF means the line was cut short.
type ScanlineSource interface {
	ReadScanline(budget int) ([]byte, error)
}

// Source is a full raster stream.
type Source interface {
	PageSource
	ScanlineSource
}

// Options control serialization.
type Options struct {
	// Depth is 24 (default) or 8 for grayscale indexed output.
	Depth int
	// Bitmap header fields; a zero resolution is filled from the page
	// header when HeaderDPI is set.
	Bitmap    bitmap.Options
	HeaderDPI bool
	// MaxPixels rejects larger pages before their buffer is allocated,
	// 0 means no limit
	MaxPixels int64
}

// DecodePage fills a page buffer from src. The buffer is only returned
// once every row of the page has been decoded.
func DecodePage(ctx context.Context, g page.Geometry, src ScanlineSource) (*page.Buffer, error) {
	dec, err := scanline.NewDecoder(g)
	if err != nil {
		return nil, err
	}
	buf := page.NewBuffer(g)
	row := make([]byte, g.Width*pixel.Size)
	budget := g.MaxEncodedLine()
	for line := 0; !buf.Full(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := src.ReadScanline(budget)
		switch {
		case errors.Is(err, io.EOF):
			return nil, fmt.Errorf("%w: stream ended after %d of %d rows", page.ErrRowCountMismatch, buf.Rows(), g.Height)
		case err != nil:
			return nil, fmt.Errorf("%w: scanline %d: %w", scanline.ErrShortRead, line, err)
		}
		repeat, err := dec.DecodeRow(b, row)
		if err != nil {
			return nil, fmt.Errorf("scanline %d (row %d): %w", line, buf.Rows(), err)
		}
		if err := buf.AppendRow(row, repeat); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", line, err)
		}
	}
	return buf, nil
}

// WritePage flips buf in place and writes it to w.
func WritePage(w io.Writer, g page.Geometry, buf *page.Buffer, opts Options) (int64, error) {
	if err := buf.Verify(); err != nil {
		return 0, err
	}
	bo := opts.Bitmap
	if opts.HeaderDPI {
		if bo.XPelsPerMeter == 0 && g.HorizDPI > 0 {
			bo.XPelsPerMeter = bitmap.DPIToPelsPerMeter(g.HorizDPI)
		}
		if bo.YPelsPerMeter == 0 && g.VertDPI > 0 {
			bo.YPelsPerMeter = bitmap.DPIToPelsPerMeter(g.VertDPI)
		}
	}
	buf.Flip()
	switch opts.Depth {
	case 0, 24:
		return bitmap.Write24(w, buf, bo)
	case 8:
		return bitmap.Write8(w, buf, bo)
	default:
		return 0, fmt.Errorf("transcode: unsupported output depth %d", opts.Depth)
	}
}

// DecodeAndWritePage runs the whole pipeline for one page. Nothing is
// written to w unless the page decodes completely.
func DecodeAndWritePage(ctx context.Context, g page.Geometry, src ScanlineSource, w io.Writer, opts Options) error {
	buf, err := DecodePage(ctx, g, src)
	if err != nil {
		return err
	}
	_, err = WritePage(w, g, buf, opts)
	return err
}

// SinkFactory opens the output for the page with the given 1-based index.
// If the returned writer also implements Aborter, Abort is called instead
// of Close when the page could not be written completely.
type SinkFactory func(index int, g page.Geometry) (io.WriteCloser, error)

// Aborter closes and removes a partially written output.
type Aborter interface {
	Abort() error
}

// Report summarizes a job.
type Report struct {
	Pages   int
	Written int
	Failed  []*PageError
}

// Run transcodes every page of src. Page failures are logged and
// collected while the job moves on to the next page; stream and
// cancellation errors stop the job.
func Run(ctx context.Context, src Source, sinks SinkFactory, opts Options) (*Report, error) {
	rep := &Report{}
	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		g, err := src.NextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rep, fmt.Errorf("page %d header: %w", index, err)
		}
		rep.Pages++
		pctx := logging.AppendCtx(ctx, slog.Int("page", index))
		slog.InfoContext(pctx, "starting page",
			slog.Int("width", g.Width),
			slog.Int("height", g.Height),
			slog.Int("bits", g.BitsPerSample),
			slog.String("space", g.ColorSpace.String()),
			slog.String("encoding", g.Encoding.String()))

		n, err := runPage(pctx, index, g, src, sinks, opts)
		if err != nil {
			if k := KindOf(err); k == KindCanceled {
				slog.WarnContext(pctx, "job canceled, discarding page")
				return rep, err
			}
			pe := &PageError{Index: index, Kind: KindOf(err), Err: err}
			slog.ErrorContext(pctx, "page failed", slog.String("kind", pe.Kind.String()), slog.Any("error", err))
			rep.Failed = append(rep.Failed, pe)
			continue
		}
		rep.Written++
		slog.InfoContext(pctx, "finished page", slog.Int64("bytes", n))
	}
	if rep.Written == 0 {
		return rep, ErrNoPages
	}
	return rep, nil
}

func runPage(ctx context.Context, index int, g page.Geometry, src ScanlineSource, sinks SinkFactory, opts Options) (int64, error) {
	if opts.MaxPixels > 0 && g.Pixels() > opts.MaxPixels {
		return 0, fmt.Errorf("%w: %dx%d page exceeds %d pixels", page.ErrGeometryUnsupported, g.Width, g.Height, opts.MaxPixels)
	}
	buf, err := DecodePage(ctx, g, src)
	if err != nil {
		return 0, err
	}
	w, err := sinks(index, g)
	if err != nil {
		return 0, fmt.Errorf("%w: open sink: %w", bitmap.ErrIO, err)
	}
	n, err := WritePage(w, g, buf, opts)
	if err != nil {
		if !abort(ctx, w) {
			w.Close()
		}
		return n, err
	}
	if err := w.Close(); err != nil {
		abort(ctx, w)
		return n, fmt.Errorf("%w: close sink: %w", bitmap.ErrIO, err)
	}
	return n, nil
}

// abort reports whether w knew how to discard itself.
func abort(ctx context.Context, w io.Writer) bool {
	a, ok := w.(Aborter)
	if !ok {
		return false
	}
	if err := a.Abort(); err != nil {
		slog.WarnContext(ctx, "failed to discard partial output", slog.Any("error", err))
	}
	return true
}
