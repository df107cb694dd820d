package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/rasterbmp.go/pkg/bitmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{"output_dir": "/tmp/pages", "depth": 8, "dpi": 300, "log_level": "debug"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pages", cfg.OutputDir)
	assert.Equal(t, 8, cfg.Depth)
	assert.Equal(t, "%05d.bmp", cfg.FilenamePattern, "defaults survive")

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	opts := cfg.Options()
	assert.Equal(t, 8, opts.Depth)
	assert.Equal(t, bitmap.DPIToPelsPerMeter(300), opts.Bitmap.XPelsPerMeter)
	assert.Equal(t, opts.Bitmap.XPelsPerMeter, opts.Bitmap.YPelsPerMeter)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join("output", "00003.bmp"), cfg.PagePath(3))
	assert.Zero(t, cfg.Options().Bitmap.XPelsPerMeter)
	assert.Equal(t, int64(1<<28), cfg.Options().MaxPixels)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, `{"output_dir": 3}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"colour": "red"}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"depth": 16}`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"Default", func(*Config) {}, true},
		{"Depth8", func(c *Config) { c.Depth = 8 }, true},
		{"Depth32", func(c *Config) { c.Depth = 32 }, false},
		{"PatternNoVerb", func(c *Config) { c.FilenamePattern = "page.bmp" }, false},
		{"PatternTwoVerbs", func(c *Config) { c.FilenamePattern = "%d-%d.bmp" }, false},
		{"PatternPlain", func(c *Config) { c.FilenamePattern = "page-%d.bmp" }, true},
		{"PatternStringVerb", func(c *Config) { c.FilenamePattern = "%s-d.bmp" }, false},
		{"PatternFloatVerb", func(c *Config) { c.FilenamePattern = "%5.1f.bmp" }, false},
		{"PatternWidth", func(c *Config) { c.FilenamePattern = "scan_%3d.bmp" }, true},
		{"NegativeMaxPixels", func(c *Config) { c.MaxPixels = -1 }, false},
		{"NoPixelCap", func(c *Config) { c.MaxPixels = 0 }, true},
		{"NegativeDPI", func(c *Config) { c.DPI = -1 }, false},
		{"BadLevel", func(c *Config) { c.LogLevel = "loud" }, false},
		{"WarnLevel", func(c *Config) { c.LogLevel = "WARN" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
