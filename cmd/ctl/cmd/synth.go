package cmd

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/jpfielding/rasterbmp.go/pkg/page"
	"github.com/jpfielding/rasterbmp.go/pkg/pixel"
	"github.com/jpfielding/rasterbmp.go/pkg/raster"
	"github.com/spf13/cobra"
)

type synthOptions struct {
	Width, Height int
	Color         pixel.BGR
	Pages         int
	Version       int
	Bits          int
	Gray          bool
	DPI           int
	ByteOrder     binary.ByteOrder
}

// NewSynthCmd writes a solid color test stream
func NewSynthCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "solid color raster stream",
		Long:  "generates a raster stream of solid color pages to exercise convert and filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			o := synthOptions{ByteOrder: binary.LittleEndian}
			o.Width, _ = flags.GetInt("width")
			o.Height, _ = flags.GetInt("height")
			o.Pages, _ = flags.GetInt("pages")
			o.Version, _ = flags.GetInt("version")
			o.Bits, _ = flags.GetInt("bits")
			o.Gray, _ = flags.GetBool("gray")
			o.DPI, _ = flags.GetInt("dpi")
			if be, _ := flags.GetBool("big-endian"); be {
				o.ByteOrder = binary.BigEndian
			}
			hexColor, _ := flags.GetString("color")
			c, err := parseColor(hexColor)
			if err != nil {
				return err
			}
			o.Color = c

			var out io.Writer = cmd.OutOrStdout()
			if path, _ := flags.GetString("out"); path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return synth(out, o)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("out", "o", "-", "stream path, - for stdout")
	pf.Int("width", 83, "page width in pixels")
	pf.Int("height", 100, "page height in pixels")
	pf.String("color", "0080ff", "page color as rrggbb")
	pf.Int("pages", 1, "number of pages")
	pf.Int("version", 2, "stream version (1|2|3); 2 is run length encoded")
	pf.Int("bits", 8, "bits per sample (8|16)")
	pf.Bool("gray", false, "write single channel grayscale pages")
	pf.Int("dpi", 0, "resolution recorded in the page headers")
	pf.Bool("big-endian", false, "big endian headers and samples")
	return cmd
}

func parseColor(s string) (pixel.BGR, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return pixel.BGR{}, fmt.Errorf("color %q is not rrggbb", s)
	}
	return pixel.RGB(b[0], b[1], b[2]), nil
}

func synth(w io.Writer, o synthOptions) error {
	g := page.Geometry{
		Width:         o.Width,
		Height:        o.Height,
		BitsPerSample: o.Bits,
		ColorOrder:    pixel.OrderChunked,
		ColorSpace:    pixel.SpaceRGB,
		HorizDPI:      o.DPI,
		VertDPI:       o.DPI,
	}
	channels := []uint8{o.Color.R, o.Color.G, o.Color.B}
	if o.Gray {
		g.ColorSpace = pixel.SpaceGray
		channels = []uint8{o.Color.Luma()}
	}
	if err := g.Validate(); err != nil {
		return err
	}

	sample := make([]byte, 0, g.BytesPerPixel())
	for _, c := range channels {
		if o.Bits == 16 {
			var b [2]byte
			o.ByteOrder.PutUint16(b[:], uint16(c)*257)
			sample = append(sample, b[:]...)
		} else {
			sample = append(sample, c)
		}
	}
	row := make([]byte, 0, g.Width*len(sample))
	for x := 0; x < g.Width; x++ {
		row = append(row, sample...)
	}
	rows := make([][]byte, g.Height)
	for y := range rows {
		rows[y] = row
	}

	rw, err := raster.NewWriter(w, o.Version, o.ByteOrder)
	if err != nil {
		return err
	}
	for i := 0; i < o.Pages; i++ {
		if err := rw.WritePage(raster.NewHeader(g), rows); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return rw.Flush()
}
