// Package plan turns a resolved manifest into the concrete set of tracks and
// segments downloaded by one invocation.
package plan

import (
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/NamanBalaji/streamdl/internal/manifest"
	"github.com/NamanBalaji/streamdl/internal/status"
)

type TrackType string

const (
	Video    TrackType = "video"
	Audio    TrackType = "audio"
	Subtitle TrackType = "subtitle"
)

// Subtitle codecs that need special handling before they can be muxed.
const (
	CodecWVTT = "WVTT"
	CodecSTPP = "STPP"
	CodecTTML = "TTML"

	ExtSRT  = ".srt"
	ExtTTML = ".ttml"
)

// Segment is one fetchable chunk of a track. Its state only moves
// Waiting -> Downloading -> Downloaded, or back to Waiting after a failed
// attempt.
type Segment struct {
	URL  string
	Name string
	Ext  string
	File string

	state atomic.Int32
}

func (s *Segment) State() status.Status {
	return s.state.Load()
}

// Claim moves a waiting segment to Downloading. It returns false when the
// segment is not waiting, which includes the case where another worker won
// the race for it.
func (s *Segment) Claim() bool {
	return s.state.CompareAndSwap(status.Waiting, status.Downloading)
}

// Release returns a claimed segment to Waiting after a failed attempt.
func (s *Segment) Release() bool {
	return s.state.CompareAndSwap(status.Downloading, status.Waiting)
}

// Complete marks a claimed segment as Downloaded.
func (s *Segment) Complete() bool {
	return s.state.CompareAndSwap(status.Downloading, status.Downloaded)
}

// Track is a selected rendition together with its on-disk layout.
type Track struct {
	Type     TrackType
	Index    int
	Name     string
	Ext      string
	File     string
	TmpDir   string
	Segments []*Segment

	Codec        string
	Bitrate      manifest.Bitrate
	Quality      string
	Language     string
	Label        string
	FPS          float64
	DefaultKeyID string

	// Decrypted is the path of the decrypted sibling of File, if any.
	Decrypted string
}

// Output returns the file downstream stages should read: the decrypted
// sibling when one was produced, File otherwise.
func (t *Track) Output() string {
	if t.Decrypted != "" {
		return t.Decrypted
	}

	return t.File
}

// IsBoxSubtitle reports whether the track carries subtitles in ISO-BMFF
// boxes that only gpac can unpack.
func (t *Track) IsBoxSubtitle() bool {
	return t.Type == Subtitle && (t.Codec == CodecWVTT || t.Codec == CodecSTPP)
}

// IsTimedText reports whether the track currently holds TTML. TTML coded
// tracks are given the .ttml extension when planned, so the extension alone
// decides.
func (t *Track) IsTimedText() bool {
	return t.Type == Subtitle && strings.EqualFold(t.Ext, ExtTTML)
}

// Downloaded counts segments in the Downloaded state.
func (t *Track) Downloaded() int {
	n := 0
	for _, s := range t.Segments {
		if s.State() == status.Downloaded {
			n++
		}
	}

	return n
}

// Plan is everything one download invocation will fetch and produce.
type Plan struct {
	ID       uuid.UUID
	URL      string
	Keys     []string
	Manifest *manifest.Manifest

	Dir    string
	Name   string
	Ext    string
	File   string
	TmpDir string

	Video    *Track
	Audio    []*Track
	Subtitle []*Track
}

// Tracks returns every track in download order: video, audio, subtitles.
func (p *Plan) Tracks() []*Track {
	tracks := make([]*Track, 0, 1+len(p.Audio)+len(p.Subtitle))
	if p.Video != nil {
		tracks = append(tracks, p.Video)
	}

	tracks = append(tracks, p.Audio...)
	tracks = append(tracks, p.Subtitle...)

	return tracks
}
