package plan

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/NamanBalaji/streamdl/internal/config"
	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/manifest"
)

const defaultOutputExt = ".mp4"

// Builder produces Plans. A Builder is safe for concurrent use; every Build
// call works on its own copy of the manifest's track lists.
type Builder struct {
	resolver manifest.Resolver
	fetcher  manifest.TextFetcher
	outDir   string
	quality  string
	timeout  time.Duration
}

func NewBuilder(resolver manifest.Resolver, fetcher manifest.TextFetcher, outDir, quality string, timeout time.Duration) *Builder {
	return &Builder{
		resolver: resolver,
		fetcher:  fetcher,
		outDir:   outDir,
		quality:  quality,
		timeout:  timeout,
	}
}

// Build resolves src and lays out every selected track under a temporary
// directory next to outFile. Nothing is written to disk.
func (b *Builder) Build(ctx context.Context, src Source, outFile string) (*Plan, error) {
	log := logger.FromContext(ctx)

	if src.Text == "" && src.URL == "" {
		return nil, pipelineErrors.NewPlanError(pipelineErrors.ErrInvalidManifest, "")
	}

	dir, name, ext, err := b.outputPath(outFile)
	if err != nil {
		return nil, pipelineErrors.NewPlanError(err, outFile)
	}

	file := filepath.Join(dir, name+ext)
	tmpDir := filepath.Join(dir, "tmp-"+name)

	log.Group("Parse Manifest...")
	defer log.GroupEnd()

	if src.URL != "" {
		log.Infof("Manifest: %s", src.URL)
	}

	log.Infof("Path: %s", file)

	text := src.Text
	if text == "" {
		text, err = b.fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
	}

	m, err := b.resolver.Resolve(ctx, text, src.URL)
	if err != nil {
		if pipelineErrors.Is(err, manifest.ErrPlaylistFetch) {
			log.Errorf("Manifest fetch failed: %v", err)
			return nil, pipelineErrors.NewNetworkError(fmt.Errorf("%w: %w", pipelineErrors.ErrManifestFetch, err), pipelineErrors.StagePlan, src.URL, false)
		}

		return nil, pipelineErrors.NewPlanError(fmt.Errorf("%w: %w", pipelineErrors.ErrInvalidManifest, err), src.URL)
	}

	if len(m.Videos) == 0 {
		return nil, pipelineErrors.NewPlanError(pipelineErrors.ErrNoVideoTrack, src.URL)
	}

	logTracks(log, m)

	videos := append([]manifest.Track(nil), m.Videos...)
	audios := append([]manifest.Track(nil), m.Audios...)
	subtitles := append([]manifest.Track(nil), m.Subtitles...)

	SortVideos(videos)
	SortAudios(audios)
	SortSubtitles(subtitles)

	p := &Plan{
		ID:       uuid.New(),
		URL:      src.URL,
		Keys:     src.Keys,
		Manifest: m,
		Dir:      dir,
		Name:     name,
		Ext:      ext,
		File:     file,
		TmpDir:   tmpDir,
	}

	idx := QualityIndex(b.quality, len(videos))

	p.Video, err = newTrack(Video, videos[idx], idx, tmpDir)
	if err != nil {
		return nil, err
	}

	for i, t := range audios {
		track, err := newTrack(Audio, t, i, tmpDir)
		if err != nil {
			return nil, err
		}

		p.Audio = append(p.Audio, track)
	}

	for i, t := range subtitles {
		track, err := newTrack(Subtitle, t, i, tmpDir)
		if err != nil {
			return nil, err
		}

		p.Subtitle = append(p.Subtitle, track)
	}

	return p, nil
}

func (b *Builder) fetch(ctx context.Context, u string) (string, error) {
	log := logger.FromContext(ctx)

	if b.fetcher == nil {
		return "", pipelineErrors.NewPlanError(pipelineErrors.ErrManifestFetch, u)
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	text, err := b.fetcher.FetchText(ctx, u)
	if err != nil {
		log.Errorf("Manifest fetch failed: %v", err)
		return "", pipelineErrors.NewNetworkError(fmt.Errorf("%w: %w", pipelineErrors.ErrManifestFetch, err), pipelineErrors.StagePlan, u, false)
	}

	return text, nil
}

// outputPath splits outFile into directory, base name and extension. A bare
// file name is placed in the configured output directory.
func (b *Builder) outputPath(outFile string) (dir, name, ext string, err error) {
	if outFile == "" {
		return "", "", "", fmt.Errorf("empty output file")
	}

	if filepath.Dir(outFile) == "." && !strings.HasPrefix(outFile, ".") && b.outDir != "" {
		outFile = filepath.Join(b.outDir, outFile)
	}

	abs, err := filepath.Abs(outFile)
	if err != nil {
		return "", "", "", err
	}

	dir = filepath.Dir(abs)
	base := filepath.Base(abs)
	ext = filepath.Ext(base)
	name = strings.TrimSuffix(base, ext)

	if ext == "" {
		ext = defaultOutputExt
	}

	return dir, name, ext, nil
}

// QualityIndex picks a video index from candidates sorted by descending
// bitrate. Medium is round(n/2) with halves rounded up, clamped to the last
// index.
func QualityIndex(quality string, n int) int {
	if n <= 0 {
		return 0
	}

	var idx int

	switch quality {
	case config.QualityLowest:
		idx = n - 1
	case config.QualityMedium:
		idx = (n + 1) / 2
	default:
		idx = 0
	}

	return min(idx, n-1)
}

// SortVideos orders videos by descending bitrate.
func SortVideos(tracks []manifest.Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Bitrate.BPS > tracks[j].Bitrate.BPS
	})
}

// SortAudios orders audio tracks by label, then language, then descending
// bitrate. Tracks with a label come before tracks without one.
func SortAudios(tracks []manifest.Track) {
	cmp := newComparer()

	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if c := cmp.compare(a.Label, b.Label); c != 0 {
			return c < 0
		}

		if c := cmp.compare(a.Language, b.Language); c != 0 {
			return c < 0
		}

		return a.Bitrate.BPS > b.Bitrate.BPS
	})
}

// SortSubtitles orders subtitle tracks by label, then language.
func SortSubtitles(tracks []manifest.Track) {
	cmp := newComparer()

	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if c := cmp.compare(a.Label, b.Label); c != 0 {
			return c < 0
		}

		return cmp.compare(a.Language, b.Language) < 0
	})
}

// comparer compares strings with numeric awareness ("Track 2" < "Track 10").
// Empty strings sort last. A collate.Collator is not safe for concurrent use,
// so every sort builds its own.
type comparer struct {
	c *collate.Collator
}

func newComparer() comparer {
	return comparer{c: collate.New(language.Und, collate.Numeric)}
}

func (c comparer) compare(a, b string) int {
	switch {
	case a != "" && b == "":
		return -1
	case a == "" && b != "":
		return 1
	case a == "" && b == "":
		return 0
	default:
		return c.c.CompareString(a, b)
	}
}

func newTrack(typ TrackType, t manifest.Track, index int, tmpDir string) (*Track, error) {
	if len(t.Segments) == 0 {
		return nil, pipelineErrors.NewPlanError(pipelineErrors.ErrNoSegments, fmt.Sprintf("%s%d", typ, index))
	}

	segments := make([]*Segment, len(t.Segments))
	for i, s := range t.Segments {
		name := fmt.Sprintf("%s%d_Segment%d", typ, index, i)
		ext := urlExt(s.URL)
		segments[i] = &Segment{
			URL:  s.URL,
			Name: name,
			Ext:  ext,
			File: filepath.Join(tmpDir, name+ext),
		}
	}

	label := t.Quality
	if label == "" {
		label = t.Language
	}

	track := &Track{
		Type:         typ,
		Index:        index,
		Name:         fmt.Sprintf("%s%d_%s_%s", typ, index, label, t.Codec),
		TmpDir:       tmpDir,
		Segments:     segments,
		Codec:        t.Codec,
		Bitrate:      t.Bitrate,
		Quality:      t.Quality,
		Language:     t.Language,
		Label:        t.Label,
		FPS:          t.FPS,
		DefaultKeyID: NormalizeKeyID(t.DefaultKeyID()),
	}

	track.Ext = trackExt(track, segments[0].Ext)
	track.File = filepath.Join(tmpDir, track.Name+track.Ext)

	return track, nil
}

// trackExt is the first segment's extension, except for subtitles that can
// be merged as text: those become SRT, or TTML when they are timed text.
func trackExt(t *Track, segmentExt string) string {
	if t.Type != Subtitle || t.IsBoxSubtitle() {
		return segmentExt
	}

	if strings.EqualFold(t.Codec, CodecTTML) || strings.EqualFold(segmentExt, ExtTTML) {
		return ExtTTML
	}

	return ExtSRT
}

// NormalizeKeyID strips the separators from a key id so it can be compared
// with the kid half of a "kid:key" pair.
func NormalizeKeyID(kid string) string {
	return strings.ToLower(strings.ReplaceAll(kid, "-", ""))
}

func urlExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Ext(raw)
	}

	return path.Ext(u.Path)
}

func logTracks(log *logger.Logger, m *manifest.Manifest) {
	log.Group("Tracks:")
	defer log.GroupEnd()

	videos := make([]string, len(m.Videos))
	for i, t := range m.Videos {
		videos[i] = t.Quality
	}

	audios := make([]string, len(m.Audios))
	for i, t := range m.Audios {
		audios[i] = t.Language
	}

	subtitles := make([]string, len(m.Subtitles))
	for i, t := range m.Subtitles {
		subtitles[i] = t.Language
	}

	log.Infof("Videos: %s", strings.Join(videos, ", "))
	log.Infof("Audios: %s", strings.Join(audios, ", "))
	log.Infof("Subtitles: %s", strings.Join(subtitles, ", "))
}
