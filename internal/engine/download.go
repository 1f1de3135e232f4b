package engine

import (
	"context"
	"os"
	"time"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/segment"
)

// Download runs the whole pipeline for src: plan, download and assemble
// every track in turn, decrypt, normalize subtitles, multiplex and clean up.
func (e *Engine) Download(ctx context.Context, src plan.Source, outFile string, sink event.Sink) (*plan.Plan, error) {
	ctx = logger.Scoped(ctx)
	log := logger.FromContext(ctx)

	p, err := e.Parse(ctx, src, outFile)
	if err != nil {
		return nil, err
	}

	sink = stamp(p, event.Or(sink))
	record := e.startRecord(p, src)

	files, err := e.run(ctx, p, sink)
	e.finishRecord(record, p, files, err)

	if err != nil {
		log.Errorf("Download %s failed: %v", p.ID, err)
		return nil, err
	}

	log.Group("Download Complete!")
	log.Infof("Path: %s", p.File)
	log.GroupEnd()

	return p, nil
}

func (e *Engine) run(ctx context.Context, p *plan.Plan, sink event.Sink) ([]string, error) {
	log := logger.FromContext(ctx)

	sink.Handle(event.Event{Kind: event.VideoInfo, Info: p})

	if err := os.MkdirAll(p.TmpDir, 0o755); err != nil {
		return nil, pipelineErrors.NewIOError(err, pipelineErrors.StageDownload, p.TmpDir)
	}

	log.Group("Download Video Track (%s)...", p.Video.Quality)
	err := e.downloadTrack(ctx, p.Video, sink)
	log.GroupEnd()

	if err != nil {
		return nil, err
	}

	for i, t := range p.Audio {
		log.Group("Download Audio Tracks (%d/%d)...", i+1, len(p.Audio))
		err := e.downloadTrack(ctx, t, sink)
		log.GroupEnd()

		if err != nil {
			return nil, err
		}
	}

	for i, t := range p.Subtitle {
		log.Group("Download Subtitle Tracks (%d/%d)...", i+1, len(p.Subtitle))
		err := e.downloadTrack(ctx, t, sink)
		log.GroupEnd()

		if err != nil {
			return nil, err
		}
	}

	if err := e.decrypter.Run(ctx, p, sink); err != nil {
		return nil, err
	}

	if err := e.subtitles.Run(ctx, p, sink); err != nil {
		return nil, err
	}

	files, err := e.muxer.Run(ctx, p, sink)
	if err != nil {
		return nil, err
	}

	if e.config.ShouldClean() {
		log.Infof("Clean Temporary Files...")

		if err := os.RemoveAll(p.TmpDir); err != nil {
			return files, pipelineErrors.NewIOError(err, pipelineErrors.StageCleanup, p.TmpDir)
		}
	}

	return files, nil
}

// downloadTrack fetches and assembles t. A track whose file already exists
// is left as is.
func (e *Engine) downloadTrack(ctx context.Context, t *plan.Track, sink event.Sink) error {
	log := logger.FromContext(ctx)

	if _, err := os.Stat(t.File); err == nil {
		log.Infof("%s exists, skipping", t.Name)
		return nil
	}

	pool := segment.NewPool(e.fetcher, e.config.Concurrency, e.retry, func(done, total int) {
		if e.progress == nil {
			log.Infof("%d/%d", done, total)
			return
		}

		e.progress(t, done, total)
	})

	if err := pool.Download(ctx, t.Segments); err != nil {
		return err
	}

	return e.assembler.Assemble(ctx, t, sink)
}

// stamp tags every event with the invocation ID of p.
func stamp(p *plan.Plan, sink event.Sink) event.Sink {
	return event.HandlerFunc(func(ev event.Event) {
		ev.InvocationID = p.ID
		sink.Handle(ev)
	})
}

func (e *Engine) startRecord(p *plan.Plan, src plan.Source) *repository.Record {
	if e.repository == nil {
		return nil
	}

	source := src.URL
	if source == "" {
		source = "inline manifest"
	}

	record := &repository.Record{
		ID:        p.ID,
		Source:    source,
		Output:    p.File,
		Status:    repository.StatusRunning,
		StartedAt: time.Now(),
	}

	for _, t := range p.Tracks() {
		record.Tracks = append(record.Tracks, repository.TrackRecord{
			Type:     string(t.Type),
			Name:     t.Name,
			Segments: len(t.Segments),
		})
	}

	if err := e.repository.Save(record); err != nil {
		logger.Warnf("Failed to save record %s: %v", p.ID, err)
	}

	return record
}

func (e *Engine) finishRecord(record *repository.Record, p *plan.Plan, files []string, err error) {
	if record == nil {
		return
	}

	record.FinishedAt = time.Now()
	record.Files = files
	record.Status = repository.StatusCompleted

	if err != nil {
		record.Status = repository.StatusFailed
		record.Error = err.Error()
	}

	if err := e.repository.Save(record); err != nil {
		logger.Warnf("Failed to save record %s: %v", p.ID, err)
	}
}
