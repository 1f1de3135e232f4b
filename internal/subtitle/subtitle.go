// Package subtitle normalizes the subtitle tracks of a plan to SRT and drops
// tracks with identical text.
package subtitle

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/ffmpeg"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/process"
)

// Converter turns a timed text file into SRT.
type Converter interface {
	ToSRT(in, out string, fps float64) error
}

type Stage struct {
	runner    process.Runner
	gpacPath  string
	converter Converter
}

func NewStage(runner process.Runner, gpacPath string, converter Converter) *Stage {
	return &Stage{runner: runner, gpacPath: gpacPath, converter: converter}
}

// Run unpacks box subtitles with gpac, converts timed text to SRT and
// removes duplicates, updating p.Subtitle in place. Box subtitles are
// dropped when gpac is not available.
func (s *Stage) Run(ctx context.Context, p *plan.Plan, sink event.Sink) error {
	log := logger.FromContext(ctx)

	if err := s.unbox(ctx, p, sink); err != nil {
		return err
	}

	var fps float64
	if p.Video != nil {
		fps = p.Video.FPS
	}

	if err := s.convertTimedText(log, p.Subtitle, fps); err != nil {
		return err
	}

	if len(p.Subtitle) > 1 {
		log.Infof("Remove Duplicate Subtitles...")
	}

	tracks, err := Dedup(p.Subtitle)
	if err != nil {
		return err
	}

	p.Subtitle = tracks

	return nil
}

func (s *Stage) unbox(ctx context.Context, p *plan.Plan, sink event.Sink) error {
	log := logger.FromContext(ctx)

	var boxed []*plan.Track
	for _, t := range p.Subtitle {
		if t.IsBoxSubtitle() {
			boxed = append(boxed, t)
		}
	}

	if len(boxed) == 0 {
		return nil
	}

	if s.runner == nil || !s.runner.Available(s.gpacPath) {
		log.Warnf("GPAC Invalid, Remove WVTT/STPP Subtitles...")

		kept := p.Subtitle[:0:0]
		for _, t := range p.Subtitle {
			if !t.IsBoxSubtitle() {
				kept = append(kept, t)
			}
		}

		p.Subtitle = kept

		return nil
	}

	log.Group("Process WVTT/STPP Subtitles...")
	defer log.GroupEnd()

	for _, t := range boxed {
		ext := plan.ExtTTML
		if t.Codec == plan.CodecWVTT {
			ext = plan.ExtSRT
		}

		out := filepath.Join(t.TmpDir, t.Name+ext)
		cmd := process.Command{Path: s.gpacPath, Args: ffmpeg.GPACConvert(t.File, out)}

		if err := process.RunChecked(ctx, s.runner, cmd, sink, pipelineErrors.StageSubtitle); err != nil {
			return err
		}

		t.Ext = ext
		t.File = out
	}

	return nil
}

func (s *Stage) convertTimedText(log *logger.Logger, tracks []*plan.Track, fps float64) error {
	for _, t := range tracks {
		if !t.IsTimedText() {
			continue
		}

		if s.converter == nil {
			return pipelineErrors.NewIOError(pipelineErrors.ErrBinaryNotFound, pipelineErrors.StageSubtitle, t.File)
		}

		log.Infof("Convert TTML Subtitles to SRT...")

		out := filepath.Join(t.TmpDir, t.Name+plan.ExtSRT)
		if err := s.converter.ToSRT(t.File, out, fps); err != nil {
			return pipelineErrors.NewIOError(err, pipelineErrors.StageSubtitle, t.File)
		}

		t.Ext = plan.ExtSRT
		t.File = out
	}

	return nil
}

// Fingerprint identifies a subtitle file by its text with every line trimmed
// and line breaks removed.
func Fingerprint(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}

	return strings.Join(lines, "")
}

// Dedup keeps one track per distinct fingerprint. A later duplicate replaces
// the earlier one at the earlier one's position.
func Dedup(tracks []*plan.Track) ([]*plan.Track, error) {
	seen := make(map[string]int, len(tracks))
	out := make([]*plan.Track, 0, len(tracks))

	for _, t := range tracks {
		b, err := os.ReadFile(t.File)
		if err != nil {
			return nil, pipelineErrors.NewIOError(err, pipelineErrors.StageSubtitle, t.File)
		}

		key := Fingerprint(string(b))
		if i, ok := seen[key]; ok {
			logger.Debugf("%s duplicates %s", t.Name, out[i].Name)
			out[i] = t
			continue
		}

		seen[key] = len(out)
		out = append(out, t)
	}

	return out, nil
}
