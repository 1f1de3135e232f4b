package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/adrg/xdg"

	cfg "github.com/NamanBalaji/streamdl/internal/config"
)

func withTempConfigHome(t *testing.T) (restore func(), dir string, file string) {
	t.Helper()
	orig := xdg.ConfigHome
	dir = t.TempDir()
	xdg.ConfigHome = dir
	restore = func() { xdg.ConfigHome = orig }
	file = filepath.Join(dir, "streamdl")
	return
}

func TestGetConfig_Table(t *testing.T) {
	restore, _, cfgFile := withTempConfigHome(t)
	defer restore()

	def := cfg.DefaultConfig()

	tests := []struct {
		name      string
		preWrite  bool
		contents  string
		expectErr bool
		check     func(t *testing.T, got *cfg.Config, def cfg.Config)
	}{
		{
			name:     "missing_file_returns_defaults",
			preWrite: false,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:     "empty_file_returns_defaults",
			preWrite: true,
			contents: "",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:      "invalid_yaml_returns_error",
			preWrite:  true,
			contents:  ": not yaml",
			expectErr: true,
			check:     func(t *testing.T, _ *cfg.Config, _ cfg.Config) {},
		},
		{
			name:     "partial_override_and_fallback",
			preWrite: true,
			contents: `
quality: medium
concurrency: 12
clean: false
subtitleCodec: ass
dispositionFirstOnly: true
headers:
  Referer: https://example.com
retry:
  maxAttempts: 4
  delay: 2s
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.Quality != cfg.QualityMedium {
					t.Fatalf("want quality=medium got %q", got.Quality)
				}
				if got.Concurrency != 12 {
					t.Fatalf("want concurrency=12 got %d", got.Concurrency)
				}
				if got.ShouldClean() {
					t.Fatalf("want clean=false to be kept")
				}
				if got.SubtitleCodec != "ass" {
					t.Fatalf("want subtitleCodec=ass got %q", got.SubtitleCodec)
				}
				if !got.DispositionFirstOnly {
					t.Fatalf("want dispositionFirstOnly=true")
				}
				if got.Headers["Referer"] != "https://example.com" {
					t.Fatalf("headers not applied: %#v", got.Headers)
				}
				if got.Retry.MaxAttempts != 4 || got.Retry.Delay != 2*time.Second {
					t.Fatalf("retry overrides not applied: %#v", got.Retry)
				}
				if got.Retry.MaxDelay != def.Retry.MaxDelay {
					t.Fatalf("want retry.maxDelay default %s got %s", def.Retry.MaxDelay, got.Retry.MaxDelay)
				}
				if got.FFmpegPath != def.FFmpegPath || got.GPACPath != def.GPACPath {
					t.Fatalf("binary paths should fall back to defaults")
				}
				if got.VideoCodec != def.VideoCodec || got.AudioCodec != def.AudioCodec {
					t.Fatalf("codecs should fall back to defaults")
				}
				if got.OutDir != def.OutDir {
					t.Fatalf("want outDir default %q got %q", def.OutDir, got.OutDir)
				}
			},
		},
		{
			name:     "explicit_zero_values_fall_back_to_defaults",
			preWrite: true,
			contents: `
concurrency: 0
quality: ""
segmentTimeout: 0s
retry:
  delay: 0s
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.Concurrency != def.Concurrency {
					t.Fatalf("concurrency zero should fallback. want %d got %d", def.Concurrency, got.Concurrency)
				}
				if got.Quality != def.Quality {
					t.Fatalf("quality empty should fallback. want %q got %q", def.Quality, got.Quality)
				}
				if got.SegmentTimeout != def.SegmentTimeout {
					t.Fatalf("segmentTimeout zero should fallback. want %s got %s", def.SegmentTimeout, got.SegmentTimeout)
				}
				if got.Retry.Delay != def.Retry.Delay {
					t.Fatalf("retry.delay zero should fallback. want %s got %s", def.Retry.Delay, got.Retry.Delay)
				}
				if !got.ShouldClean() {
					t.Fatalf("clean should default to true")
				}
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_ = os.Remove(cfgFile)
			if tc.preWrite {
				if err := os.WriteFile(cfgFile, []byte(tc.contents), 0o600); err != nil {
					t.Fatalf("write test config: %v", err)
				}
			}
			got, err := cfg.GetConfig()
			if tc.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetConfig error: %v", err)
			}
			tc.check(t, got, def)
		})
	}
}

func TestDefaultConfig_NonNilPointers(t *testing.T) {
	d := cfg.DefaultConfig()
	if d.Retry == nil {
		t.Fatalf("DefaultConfig.Retry is nil")
	}
	if d.Clean == nil {
		t.Fatalf("DefaultConfig.Clean is nil")
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *cfg.Config)
		wantErr error
	}{
		{"defaults", func(c *cfg.Config) {}, nil},
		{"lowest", func(c *cfg.Config) { c.Quality = cfg.QualityLowest }, nil},
		{"unknown_quality", func(c *cfg.Config) { c.Quality = "best" }, cfg.ErrInvalidQuality},
		{"zero_concurrency", func(c *cfg.Config) { c.Concurrency = 0 }, cfg.ErrInvalidConcurrency},
		{"negative_concurrency", func(c *cfg.Config) { c.Concurrency = -3 }, cfg.ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg.DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestShouldCleanNilDefaultsToTrue(t *testing.T) {
	var c cfg.Config
	if !c.ShouldClean() {
		t.Fatalf("nil Clean should default to true")
	}
}
