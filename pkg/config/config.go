// Package config holds the settings of a conversion job.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jpfielding/rasterbmp.go/pkg/bitmap"
	"github.com/jpfielding/rasterbmp.go/pkg/transcode"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// pagePattern accepts a file name with exactly one integer verb such as
// %d or %05d.
var pagePattern = regexp.MustCompile(`^[^%]*%0?[0-9]*d[^%]*$`)

// Config is the job configuration file structure.
type Config struct {
	OutputDir       string `json:"output_dir"`
	FilenamePattern string `json:"filename_pattern"`
	// Depth of the written bitmaps, 24 or 8
	Depth int `json:"depth"`
	// HeaderDPI copies the page resolution into the bitmap header
	HeaderDPI bool `json:"header_dpi"`
	// DPI overrides the resolution written to every bitmap, 0 keeps it
	// unset
	DPI int `json:"dpi"`
	// MaxPixels caps the size of a single page, 0 disables the cap
	MaxPixels int64 `json:"max_pixels"`

	LogLevel      string `json:"log_level"`
	LogFile       string `json:"log_file"`
	LogJSON       bool   `json:"log_json"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups"`
}

// Default mirrors the filter's historical behavior: one 24-bit file per
// page under ./output.
func Default() *Config {
	return &Config{
		OutputDir:       "output",
		FilenamePattern: "%05d.bmp",
		Depth:           24,
		MaxPixels:       1 << 28,
		LogLevel:        "info",
		LogMaxSizeMB:    10,
		LogMaxBackups:   3,
	}
}

// Load reads a JSON config file over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields that have a fixed set of values.
func (c *Config) Validate() error {
	if c.Depth != 24 && c.Depth != 8 {
		return fmt.Errorf("%w: depth %d, want 24 or 8", ErrInvalid, c.Depth)
	}
	if !pagePattern.MatchString(c.FilenamePattern) {
		return fmt.Errorf("%w: filename pattern %q needs a single integer verb", ErrInvalid, c.FilenamePattern)
	}
	if c.DPI < 0 {
		return fmt.Errorf("%w: dpi %d", ErrInvalid, c.DPI)
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("%w: max pixels %d", ErrInvalid, c.MaxPixels)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("%w: log level: %w", ErrInvalid, err)
	}
	return l, nil
}

// PagePath is the output file for the 1-based page index.
func (c *Config) PagePath(index int) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf(c.FilenamePattern, index))
}

// Options maps the configuration onto the transcoder.
func (c *Config) Options() transcode.Options {
	opts := transcode.Options{Depth: c.Depth, HeaderDPI: c.HeaderDPI, MaxPixels: c.MaxPixels}
	if c.DPI > 0 {
		ppm := bitmap.DPIToPelsPerMeter(c.DPI)
		opts.Bitmap.XPelsPerMeter = ppm
		opts.Bitmap.YPelsPerMeter = ppm
	}
	return opts
}
