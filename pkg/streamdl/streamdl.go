// Package streamdl downloads segmented DASH or HLS presentations and
// multiplexes them into a single container file.
package streamdl

import (
	"context"

	"github.com/NamanBalaji/streamdl/internal/config"
	"github.com/NamanBalaji/streamdl/internal/engine"
	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/manifest"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/process"
	"github.com/NamanBalaji/streamdl/internal/repository"
	httpPkg "github.com/NamanBalaji/streamdl/pkg/http"
)

type (
	Config            = config.Config
	Source            = plan.Source
	Plan              = plan.Plan
	Track             = plan.Track
	Event             = event.Event
	Sink              = event.Sink
	Resolver          = manifest.Resolver
	Runner            = process.Runner
	Repository        = repository.Repository
	SubtitleConverter = engine.SubtitleConverter
	ProgressFunc      = engine.ProgressFunc
)

// ParseSource splits a source string into a manifest URL or inline text.
var ParseSource = plan.ParseSource

// Option configures a Downloader.
type Option func(*engine.Options)

// WithResolver sets the manifest resolver. The default understands HLS.
func WithResolver(r Resolver) Option {
	return func(o *engine.Options) { o.Resolver = r }
}

// WithRunner sets how external tools are spawned.
func WithRunner(r Runner) Option {
	return func(o *engine.Options) { o.Runner = r }
}

// WithRepository records every download in r.
func WithRepository(r Repository) Option {
	return func(o *engine.Options) { o.Repository = r }
}

// WithClient sets the HTTP client used for manifests and segments.
func WithClient(c *httpPkg.Client) Option {
	return func(o *engine.Options) { o.Client = c }
}

func WithSubtitleConverter(c SubtitleConverter) Option {
	return func(o *engine.Options) { o.Converter = c }
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *engine.Options) { o.Progress = fn }
}

// Downloader is the entry point of the library.
type Downloader struct {
	engine *engine.Engine
}

// New creates a Downloader. A nil cfg uses the defaults.
func New(cfg *Config, opts ...Option) (*Downloader, error) {
	var o engine.Options
	for _, opt := range opts {
		opt(&o)
	}

	e, err := engine.New(cfg, o)
	if err != nil {
		return nil, err
	}

	return &Downloader{engine: e}, nil
}

// Config returns the effective configuration.
func (d *Downloader) Config() Config {
	return d.engine.Config()
}

// Parse resolves src and returns the plan Download would execute.
func (d *Downloader) Parse(ctx context.Context, src Source, outFile string) (*Plan, error) {
	return d.engine.Parse(ctx, src, outFile)
}

// Download fetches src into outFile. Events go to sink, which may be nil.
func (d *Downloader) Download(ctx context.Context, src Source, outFile string, sink Sink) (*Plan, error) {
	return d.engine.Download(ctx, src, outFile, sink)
}
