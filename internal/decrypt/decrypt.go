// Package decrypt removes content protection from downloaded tracks with
// ffmpeg, given the keys supplied by the caller.
package decrypt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/ffmpeg"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/process"
)

// FindKey returns the first key usable for keyID. A key without a ":" fits
// every track; a "kid:key" pair fits only the track whose default key id is
// kid.
func FindKey(keys []string, keyID string) (string, bool) {
	keyID = plan.NormalizeKeyID(keyID)

	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		kid, key, ok := strings.Cut(k, ":")
		if !ok {
			return k, true
		}

		if plan.NormalizeKeyID(kid) == keyID {
			return key, true
		}
	}

	return "", false
}

// DecryptedPath is where the decrypted copy of t is written.
func DecryptedPath(t *plan.Track) string {
	return filepath.Join(t.TmpDir, t.Name+"_decrypted"+t.Ext)
}

type Stage struct {
	runner     process.Runner
	ffmpegPath string
	builder    *ffmpeg.CommandBuilder
}

func NewStage(runner process.Runner, ffmpegPath string, builder *ffmpeg.CommandBuilder) *Stage {
	return &Stage{runner: runner, ffmpegPath: ffmpegPath, builder: builder}
}

// Run decrypts the video track and every audio track of p that has a
// matching key. Subtitles are never encrypted. Nothing happens when p has no
// keys or ffmpeg is not available.
func (s *Stage) Run(ctx context.Context, p *plan.Plan, sink event.Sink) error {
	log := logger.FromContext(ctx)

	if len(p.Keys) == 0 || !s.runner.Available(s.ffmpegPath) {
		return nil
	}

	log.Group("Decrypt Video Track...")
	err := s.Track(ctx, p.Video, p.Keys, sink)
	log.GroupEnd()

	if err != nil {
		return err
	}

	for i, t := range p.Audio {
		log.Group("Decrypt Audio Tracks (%d/%d)...", i+1, len(p.Audio))
		err := s.Track(ctx, t, p.Keys, sink)
		log.GroupEnd()

		if err != nil {
			return err
		}
	}

	return nil
}

// Track decrypts t into its decrypted sibling and records the path on t.
// Tracks without a default key id or a matching key are left alone.
func (s *Stage) Track(ctx context.Context, t *plan.Track, keys []string, sink event.Sink) error {
	log := logger.FromContext(ctx)

	if t == nil || t.DefaultKeyID == "" {
		return nil
	}

	key, ok := FindKey(keys, t.DefaultKeyID)
	if !ok {
		log.Warnf("No key for %s (kid %s)", t.Name, t.DefaultKeyID)
		return nil
	}

	out := DecryptedPath(t)
	cmd := process.Command{Path: s.ffmpegPath, Args: s.builder.Decrypt(key, t.File, out)}

	if err := process.RunChecked(ctx, s.runner, cmd, sink, pipelineErrors.StageDecrypt); err != nil {
		return fmt.Errorf("decrypt %s: %w", t.Name, err)
	}

	t.Decrypted = out

	return nil
}
