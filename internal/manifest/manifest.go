// Package manifest holds the parsed description of an adaptive stream. A
// Manifest is produced by a Resolver and is read-only afterwards.
package manifest

import (
	"context"
	"errors"
)

var (
	ErrUnsupported   = errors.New("unsupported manifest")
	ErrPlaylistFetch = errors.New("playlist fetch failed")
)

// Bitrate of a track. KBPS is BPS/1000 rounded, as reported by the manifest.
type Bitrate struct {
	BPS  int64
	KBPS int64
}

// Protection carries the content-protection data needed to pick a key.
type Protection struct {
	DefaultKeyID string
}

type Segment struct {
	URL string
}

// Track is one selectable rendition.
type Track struct {
	Codec      string
	Bitrate    Bitrate
	Quality    string
	Language   string
	Label      string
	FPS        float64
	Protection *Protection
	Segments   []Segment
}

// DefaultKeyID returns the track's default key id, or "" when the track is
// not protected.
func (t Track) DefaultKeyID() string {
	if t.Protection == nil {
		return ""
	}

	return t.Protection.DefaultKeyID
}

type Manifest struct {
	Videos    []Track
	Audios    []Track
	Subtitles []Track
}

// Resolver turns manifest text into a Manifest. baseURL is used to resolve
// relative segment references and may be empty for inline manifests.
type Resolver interface {
	Resolve(ctx context.Context, text, baseURL string) (*Manifest, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, text, baseURL string) (*Manifest, error)

func (f ResolverFunc) Resolve(ctx context.Context, text, baseURL string) (*Manifest, error) {
	return f(ctx, text, baseURL)
}
