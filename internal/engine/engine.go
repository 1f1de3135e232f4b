package engine

import (
	"context"
	"fmt"

	"github.com/NamanBalaji/streamdl/internal/assemble"
	"github.com/NamanBalaji/streamdl/internal/config"
	"github.com/NamanBalaji/streamdl/internal/decrypt"
	"github.com/NamanBalaji/streamdl/internal/ffmpeg"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/manifest"
	"github.com/NamanBalaji/streamdl/internal/mux"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/process"
	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/segment"
	"github.com/NamanBalaji/streamdl/internal/subtitle"
	httpPkg "github.com/NamanBalaji/streamdl/pkg/http"
)

// Engine runs the download pipeline. Each Download or Parse call builds its
// own Plan, so an Engine can serve concurrent calls as long as they write
// to different output files.
type Engine struct {
	config *config.Config

	builder   *plan.Builder
	fetcher   *segment.Fetcher
	retry     segment.RetryPolicy
	assembler *assemble.Assembler
	decrypter *decrypt.Stage
	subtitles *subtitle.Stage
	muxer     *mux.Invoker

	repository repository.Repository
	progress   ProgressFunc
}

// New creates an Engine from cfg; unset fields of cfg take their defaults.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	var merged config.Config
	if cfg != nil {
		merged = config.WithDefaults(*cfg)
	} else {
		merged = config.DefaultConfig()
	}

	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := opts.Client
	if client == nil {
		client = httpPkg.NewClient(merged.Headers)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = manifest.NewHLSResolver(client, merged.ManifestTimeout)
	}

	runner := opts.Runner
	if runner == nil {
		runner = process.NewExecRunner()
	}

	converter := opts.Converter
	if converter == nil {
		converter = subtitle.NewAstisub()
	}

	builder := ffmpeg.NewCommandBuilder(ffmpeg.Codecs{
		Video:    merged.VideoCodec,
		Audio:    merged.AudioCodec,
		Subtitle: merged.SubtitleCodec,
	}, merged.DispositionFirstOnly)

	return &Engine{
		config:    &merged,
		builder:   plan.NewBuilder(resolver, client, merged.OutDir, merged.Quality, merged.ManifestTimeout),
		fetcher:   segment.NewFetcher(client, merged.SegmentTimeout),
		retry:     retryPolicy(merged.Retry),
		assembler: assemble.New(runner, merged.FFmpegPath, builder, converter),
		decrypter: decrypt.NewStage(runner, merged.FFmpegPath, builder),
		subtitles: subtitle.NewStage(runner, merged.GPACPath, converter),
		muxer:     mux.NewInvoker(runner, merged.FFmpegPath, builder),

		repository: opts.Repository,
		progress:   opts.Progress,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() config.Config {
	return *e.config
}

// Parse builds the plan for src without touching the filesystem.
func (e *Engine) Parse(ctx context.Context, src plan.Source, outFile string) (*plan.Plan, error) {
	return e.builder.Build(logger.Scoped(ctx), src, outFile)
}

func retryPolicy(rc *config.RetryConfig) segment.RetryPolicy {
	p := segment.DefaultRetryPolicy()
	if rc == nil {
		return p
	}

	p.MaxAttempts = rc.MaxAttempts
	if rc.Delay > 0 {
		p.Delay = rc.Delay
	}

	if rc.MaxDelay > 0 {
		p.MaxDelay = rc.MaxDelay
	}

	return p
}
