package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/rasterbmp.go/pkg/config"
	"github.com/jpfielding/rasterbmp.go/pkg/logging"
	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/raster"
	"github.com/jpfielding/rasterbmp.go/pkg/transcode"
	"github.com/jpfielding/rasterbmp.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewConvertCmd converts a raster stream from a file or stdin
func NewConvertCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "raster stream to BMP files",
		Long:  "decodes every page of a raster stream and writes one bitmap per page into the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyOutputFlags(cmd, a.cfg); err != nil {
				return err
			}
			inPath, _ := cmd.Flags().GetString("in")
			if inPath == "" && len(args) > 0 {
				inPath = args[0]
			}
			in, closer, err := openInput(inPath)
			if err != nil {
				return err
			}
			defer closer.Close()

			rep, err := runJob(ctx, a.cfg, in, util.JobMeta{Title: inPath})
			if rep != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "pages: %d written: %d failed: %d\n", rep.Pages, rep.Written, len(rep.Failed))
			}
			return err
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "-", "raster stream path, - for stdin")
	addOutputFlags(cmd)
	return cmd
}

func addOutputFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringP("out-dir", "o", "output", "directory for the page bitmaps")
	pf.String("pattern", "%05d.bmp", "file name pattern, formatted with the 1-based page number")
	pf.Int("depth", 24, "bitmap depth (24|8)")
	pf.Int("dpi", 0, "resolution written into every bitmap header, 0 leaves it unset")
	pf.Bool("header-dpi", false, "copy the page resolution into the bitmap header")
}

// applyOutputFlags overrides the config with the flags set on the command
// line.
func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.OutputDir, _ = flags.GetString("out-dir")
	}
	if flags.Changed("pattern") {
		cfg.FilenamePattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("depth") {
		cfg.Depth, _ = flags.GetInt("depth")
	}
	if flags.Changed("dpi") {
		cfg.DPI, _ = flags.GetInt("dpi")
	}
	if flags.Changed("header-dpi") {
		cfg.HeaderDPI, _ = flags.GetBool("header-dpi")
	}
	return cfg.Validate()
}

func openInput(path string) (io.Reader, io.Closer, error) {
	path = strings.TrimPrefix(path, "file://")
	if path == "" || path == "-" {
		return os.Stdin, io.NopCloser(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, f, nil
}

// runJob transcodes every page of in into cfg.OutputDir.
func runJob(ctx context.Context, cfg *config.Config, in io.Reader, meta util.JobMeta) (*transcode.Report, error) {
	ctx = logging.AppendCtx(ctx, slog.String("job", util.JobUUID(meta)))
	src, err := raster.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("raster stream: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "DOCUMENT",
		slog.String("user", meta.User),
		slog.String("title", meta.Title),
		slog.Int("version", src.Version()))

	sinks := func(index int, g page.Geometry) (io.WriteCloser, error) {
		path := cfg.PagePath(index)
		slog.DebugContext(ctx, "opening file", slog.String("path", path))
		return createFileSink(path)
	}
	rep, err := transcode.Run(ctx, src, sinks, cfg.Options())
	switch {
	case errors.Is(err, transcode.ErrNoPages):
		slog.ErrorContext(ctx, "no pages written", slog.Int("pages", rep.Pages))
	case err != nil:
		slog.ErrorContext(ctx, "job stopped", slog.Any("error", err))
	default:
		slog.InfoContext(ctx, "END_OF_DOCUMENT", slog.Int("pages", rep.Pages), slog.Int("written", rep.Written))
	}
	return rep, err
}

// fileSink buffers a page bitmap into its output file.
type fileSink struct {
	f    *os.File
	w    *bufio.Writer
	path string
}

func createFileSink(path string) (*fileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileSink{f: f, w: bufio.NewWriter(f), path: path}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *fileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// Abort drops the partial file.
func (s *fileSink) Abort() error {
	s.f.Close()
	return os.Remove(s.path)
}
