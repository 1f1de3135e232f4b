package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const configFileName = "streamdl"

var (
	ErrInvalidQuality     = errors.New("invalid quality")
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
)

// Config holds the configuration options for the downloader.
type Config struct {
	FFmpegPath      string            `yaml:"ffmpegPath,omitempty"`
	GPACPath        string            `yaml:"gpacPath,omitempty"`
	OutDir          string            `yaml:"outDir,omitempty"`
	Quality         string            `yaml:"quality,omitempty"`
	Concurrency     int               `yaml:"concurrency,omitempty"`
	VideoCodec      string            `yaml:"videoCodec,omitempty"`
	AudioCodec      string            `yaml:"audioCodec,omitempty"`
	SubtitleCodec   string            `yaml:"subtitleCodec,omitempty"`
	Clean           *bool             `yaml:"clean,omitempty"`
	SegmentTimeout  time.Duration     `yaml:"segmentTimeout,omitempty"`
	ManifestTimeout time.Duration     `yaml:"manifestTimeout,omitempty"`
	Retry           *RetryConfig      `yaml:"retry,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	HistoryPath     string            `yaml:"historyPath,omitempty"`

	// DispositionFirstOnly marks only the first audio and subtitle stream as
	// default in the output container instead of every stream.
	DispositionFirstOnly bool `yaml:"dispositionFirstOnly,omitempty"`
}

// RetryConfig holds the segment retry policy. MaxAttempts of zero retries
// until the fetch succeeds or the context is cancelled.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts,omitempty"`
	Delay       time.Duration `yaml:"delay,omitempty"`
	MaxDelay    time.Duration `yaml:"maxDelay,omitempty"`
}

// ShouldClean reports whether temporary files are removed after a download.
func (c *Config) ShouldClean() bool {
	if c.Clean == nil {
		return defaultClean
	}

	return *c.Clean
}

// Validate checks the options that have a closed set of legal values.
func (c *Config) Validate() error {
	switch c.Quality {
	case QualityHighest, QualityMedium, QualityLowest:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidQuality, c.Quality)
	}

	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Concurrency)
	}

	return nil
}

// Path returns the location of the configuration file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, configFileName)
}

// GetConfig reads the configuration file and returns a Config struct.
// If the configuration file does not exist, it returns the default configuration.
func GetConfig() (*Config, error) {
	defaults := DefaultConfig()

	b, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}

		return nil, err
	}

	if len(b) == 0 {
		return &defaults, nil
	}

	var cfg Config

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return nil, err
	}

	merged := WithDefaults(cfg)

	return &merged, nil
}

// WithDefaults fills every unset field of cfg with its default value.
func WithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	retryCfg := zeroOr(cfg.Retry, defaults.Retry)

	return Config{
		FFmpegPath:      zeroOr(cfg.FFmpegPath, defaults.FFmpegPath),
		GPACPath:        zeroOr(cfg.GPACPath, defaults.GPACPath),
		OutDir:          zeroOr(cfg.OutDir, defaults.OutDir),
		Quality:         zeroOr(cfg.Quality, defaults.Quality),
		Concurrency:     zeroOr(cfg.Concurrency, defaults.Concurrency),
		VideoCodec:      zeroOr(cfg.VideoCodec, defaults.VideoCodec),
		AudioCodec:      zeroOr(cfg.AudioCodec, defaults.AudioCodec),
		SubtitleCodec:   zeroOr(cfg.SubtitleCodec, defaults.SubtitleCodec),
		Clean:           zeroOr(cfg.Clean, defaults.Clean),
		SegmentTimeout:  zeroOr(cfg.SegmentTimeout, defaults.SegmentTimeout),
		ManifestTimeout: zeroOr(cfg.ManifestTimeout, defaults.ManifestTimeout),
		Retry: &RetryConfig{
			MaxAttempts: retryCfg.MaxAttempts,
			Delay:       zeroOr(retryCfg.Delay, defaults.Retry.Delay),
			MaxDelay:    zeroOr(retryCfg.MaxDelay, defaults.Retry.MaxDelay),
		},
		Headers:              cfg.Headers,
		HistoryPath:          zeroOr(cfg.HistoryPath, defaults.HistoryPath),
		DispositionFirstOnly: cfg.DispositionFirstOnly,
	}
}

func DefaultConfig() Config {
	clean := defaultClean

	return Config{
		FFmpegPath:      defaultFFmpegPath,
		GPACPath:        defaultGPACPath,
		OutDir:          defaultOutDir,
		Quality:         defaultQuality,
		Concurrency:     defaultConcurrency,
		VideoCodec:      defaultVideoCodec,
		AudioCodec:      defaultAudioCodec,
		SubtitleCodec:   defaultSubtitleCodec,
		Clean:           &clean,
		SegmentTimeout:  defaultSegmentTimeout,
		ManifestTimeout: defaultManifestTimeout,
		Retry: &RetryConfig{
			Delay:    defaultRetryDelay,
			MaxDelay: defaultRetryMaxDelay,
		},
		HistoryPath: defaultHistoryPath,
	}
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}
