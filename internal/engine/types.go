package engine

import (
	"github.com/NamanBalaji/streamdl/internal/assemble"
	"github.com/NamanBalaji/streamdl/internal/manifest"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/process"
	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/subtitle"
	httpPkg "github.com/NamanBalaji/streamdl/pkg/http"
)

// SubtitleConverter converts timed text to SRT and merges subtitle files.
type SubtitleConverter interface {
	subtitle.Converter
	assemble.Merger
}

// ProgressFunc reports segment progress of the track being downloaded. When
// none is set, progress is logged.
type ProgressFunc func(track *plan.Track, done, total int)

// Options carries the collaborators of an Engine. Zero fields get defaults:
// an HLS resolver, os/exec, a client built from the configured headers and
// go-astisub. A nil Repository disables the journal.
type Options struct {
	Resolver   manifest.Resolver
	Runner     process.Runner
	Client     *httpPkg.Client
	Repository repository.Repository
	Converter  SubtitleConverter
	Progress   ProgressFunc
}
