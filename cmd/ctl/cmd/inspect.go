package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jpfielding/rasterbmp.go/pkg/bitmap"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
)

// inspection is what inspect reports per file.
type inspection struct {
	Path    string         `json:"path"`
	Headers bitmap.Headers `json:"headers"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Model   string         `json:"model"`
	Error   string         `json:"error,omitempty"`
}

// NewInspectCmd dumps the headers of written bitmaps and checks that they
// decode
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect file...",
		Short: "BMP header dump",
		Long:  "prints the file and info headers of each bitmap and decodes it to verify the pixel data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				in := inspectFile(path)
				if in.Error != "" {
					failed++
				}
				switch format {
				case "text":
					printInspection(out, in)
				default:
					j, _ := json.Marshal(in)
					fmt.Fprintln(out, string(j))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to decode", failed, len(args))
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("format", "f", "json", "output format (text|json)")
	return cmd
}

func inspectFile(path string) inspection {
	in := inspection{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		in.Error = err.Error()
		return in
	}
	if in.Headers, err = bitmap.ParseHeaders(bytes.NewReader(data)); err != nil {
		in.Error = err.Error()
		return in
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		in.Error = err.Error()
		return in
	}
	in.Width, in.Height = img.Bounds().Dx(), img.Bounds().Dy()
	in.Model = fmt.Sprintf("%T", img.ColorModel())
	return in
}

func printInspection(w io.Writer, in inspection) {
	fmt.Fprintf(w, "%s\n", in.Path)
	if in.Error != "" {
		fmt.Fprintf(w, "\terror: %s\n", in.Error)
		return
	}
	fh, ih := in.Headers.File, in.Headers.Info
	fmt.Fprintf(w, "\tfile: type=%s size=%d offset=%d reserved=%d,%d\n", fh.Type[:], fh.Size, fh.OffBits, fh.Reserved1, fh.Reserved2)
	fmt.Fprintf(w, "\tinfo: %dx%d bits=%d planes=%d compression=%d image=%d ppm=%d,%d colors=%d/%d\n",
		ih.Width, ih.Height, ih.BitCount, ih.Planes, ih.Compression, ih.SizeImage,
		ih.XPelsPerMeter, ih.YPelsPerMeter, ih.ColorsUsed, ih.ColorsImportant)
	fmt.Fprintf(w, "\tdecoded: %dx%d %s\n", in.Width, in.Height, in.Model)
}
