// Package mux writes the final output container, or the individual track
// files when ffmpeg is not available.
package mux

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/ffmpeg"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/process"
)

type Invoker struct {
	runner     process.Runner
	ffmpegPath string
	builder    *ffmpeg.CommandBuilder
}

func NewInvoker(runner process.Runner, ffmpegPath string, builder *ffmpeg.CommandBuilder) *Invoker {
	return &Invoker{runner: runner, ffmpegPath: ffmpegPath, builder: builder}
}

// Run multiplexes p into p.File. Without ffmpeg every track is copied to
// p.Dir under its own name instead, and the returned paths list those
// copies.
func (m *Invoker) Run(ctx context.Context, p *plan.Plan, sink event.Sink) ([]string, error) {
	log := logger.FromContext(ctx)

	if !m.runner.Available(m.ffmpegPath) {
		log.Warnf("FFmpeg Invalid, Output Tracks...")
		return CopyTracks(p)
	}

	log.Group("Multiplex Tracks...")
	defer log.GroupEnd()

	cmd := process.Command{Path: m.ffmpegPath, Args: m.builder.Mux(Params(p))}
	if err := process.RunChecked(ctx, m.runner, cmd, sink, pipelineErrors.StageMux); err != nil {
		return nil, err
	}

	return []string{p.File}, nil
}

// Params maps a plan onto the multiplex inputs.
func Params(p *plan.Plan) ffmpeg.MuxParams {
	params := ffmpeg.MuxParams{
		Video:  p.Video.Output(),
		Output: p.File,
	}

	for _, t := range p.Audio {
		params.Audio = append(params.Audio, ffmpeg.MuxInput{
			File:     t.Output(),
			Language: t.Language,
			Title:    AudioTitle(t),
		})
	}

	for _, t := range p.Subtitle {
		params.Subtitles = append(params.Subtitles, ffmpeg.MuxInput{
			File:     t.Output(),
			Language: t.Language,
			Title:    t.Label,
		})
	}

	return params
}

// AudioTitle is the track label, or its bitrate when it has no label.
func AudioTitle(t *plan.Track) string {
	if t.Label != "" {
		return t.Label
	}

	if t.Bitrate.BPS > 0 || t.Bitrate.KBPS > 0 {
		return fmt.Sprintf("%d kbps", t.Bitrate.KBPS)
	}

	return ""
}

// CopyTracks copies every track of p to <p.Dir>/<name><ext>.
func CopyTracks(p *plan.Plan) ([]string, error) {
	var out []string

	for _, t := range p.Tracks() {
		dst := filepath.Join(p.Dir, t.Name+t.Ext)
		if err := copyFile(t.Output(), dst); err != nil {
			return out, pipelineErrors.NewIOError(err, pipelineErrors.StageMux, dst)
		}

		out = append(out, dst)
	}

	return out, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(f, in)

	return err
}
