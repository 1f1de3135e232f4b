// Package assemble merges the downloaded segments of a track into the
// track's single file.
package assemble

import (
	"bufio"
	"context"
	"io"
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

const writeBufferSize = 1 << 20

// Merger merges subtitle files of any readable format into out, whose
// extension selects the output format.
type Merger interface {
	Merge(files []string, out string) error
}

type Assembler struct {
	runner     process.Runner
	ffmpegPath string
	builder    *ffmpeg.CommandBuilder
	merger     Merger
}

func New(runner process.Runner, ffmpegPath string, builder *ffmpeg.CommandBuilder, merger Merger) *Assembler {
	return &Assembler{
		runner:     runner,
		ffmpegPath: ffmpegPath,
		builder:    builder,
		merger:     merger,
	}
}

// Assemble writes t.File from t's segments in declared order. Running it
// again after a successful run is a no-op.
func (a *Assembler) Assemble(ctx context.Context, t *plan.Track, sink event.Sink) error {
	log := logger.FromContext(ctx)

	if len(t.Segments) == 0 {
		return pipelineErrors.NewIOError(pipelineErrors.ErrNoSegments, pipelineErrors.StageAssemble, t.Name)
	}

	files := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		files[i] = s.File
	}

	if err := checkSegments(files, t.File); err != nil {
		if pipelineErrors.Is(err, errAlreadyAssembled) {
			log.Debugf("%s already assembled", t.Name)
			return nil
		}

		return err
	}

	switch {
	case t.Type != plan.Subtitle || t.IsBoxSubtitle():
		if len(files) == 1 {
			return rename(files[0], t.File)
		}

		log.Infof("Concat Segments...")

		return concat(files, t.File)
	case len(files) == 1 && strings.EqualFold(filepath.Ext(files[0]), t.Ext):
		return rename(files[0], t.File)
	case t.IsTimedText():
		log.Infof("Merge Timed Text Segments...")
		return a.merge(files, t.File)
	default:
		return a.concatSubtitles(ctx, t, files, sink)
	}
}

func (a *Assembler) concatSubtitles(ctx context.Context, t *plan.Track, files []string, sink event.Sink) error {
	log := logger.FromContext(ctx)

	if a.runner == nil || !a.runner.Available(a.ffmpegPath) {
		log.Infof("FFmpeg Invalid, Merge Subtitle Segments...")
		return a.merge(files, t.File)
	}

	var args []string

	if len(files) > 1 {
		log.Infof("Concat Segments...")

		listFile := filepath.Join(t.TmpDir, t.Name+"_segments.txt")
		if err := os.WriteFile(listFile, []byte(ffmpeg.ConcatList(files)), 0o644); err != nil {
			return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, listFile)
		}

		args = a.builder.ConcatSubtitles(listFile, t.File)
	} else {
		args = a.builder.ConvertSubtitle(files[0], t.File)
	}

	return process.RunChecked(ctx, a.runner, process.Command{Path: a.ffmpegPath, Args: args}, sink, pipelineErrors.StageAssemble)
}

func (a *Assembler) merge(files []string, out string) error {
	if a.merger == nil {
		return pipelineErrors.NewIOError(pipelineErrors.ErrBinaryNotFound, pipelineErrors.StageAssemble, out)
	}

	if err := a.merger.Merge(files, out); err != nil {
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, out)
	}

	return nil
}

var errAlreadyAssembled = pipelineErrors.New("already assembled")

// checkSegments fails with ErrSegmentMissing unless every segment file is
// present. When they are all gone but out exists the track was assembled by
// an earlier run.
func checkSegments(files []string, out string) error {
	var missing []string

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if !os.IsNotExist(err) {
				return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, f)
			}

			missing = append(missing, f)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	if len(missing) == len(files) {
		if _, err := os.Stat(out); err == nil {
			return errAlreadyAssembled
		}
	}

	return pipelineErrors.NewIOError(pipelineErrors.ErrSegmentMissing, pipelineErrors.StageAssemble, missing[0])
}

func rename(from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, from)
	}

	return nil
}

// concat appends files to out in order. Output goes to a ".part" sibling
// that replaces out only once every segment was written.
func concat(files []string, out string) (err error) {
	part := out + ".part"

	f, err := os.Create(part)
	if err != nil {
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, part)
	}

	defer func() {
		if err != nil {
			f.Close()
			os.Remove(part)
		}
	}()

	w := bufio.NewWriterSize(f, writeBufferSize)

	for _, file := range files {
		if err := appendFile(w, file); err != nil {
			return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, file)
		}
	}

	if err := w.Flush(); err != nil {
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, part)
	}

	if err := f.Sync(); err != nil {
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, part)
	}

	if err := f.Close(); err != nil {
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, part)
	}

	if err := os.Rename(part, out); err != nil {
		os.Remove(part)
		return pipelineErrors.NewIOError(err, pipelineErrors.StageAssemble, out)
	}

	return nil
}

func appendFile(w io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(w, in)

	return err
}
