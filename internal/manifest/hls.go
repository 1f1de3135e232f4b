package manifest

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/grafov/m3u8"

	"github.com/NamanBalaji/streamdl/internal/logger"
)

// TextFetcher retrieves a playlist body.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// HLSResolver resolves HLS master and media playlists. Media playlists
// referenced by a master playlist are fetched through Fetcher, each bounded
// by Timeout when it is positive.
type HLSResolver struct {
	Fetcher TextFetcher
	Timeout time.Duration
}

func NewHLSResolver(fetcher TextFetcher, timeout time.Duration) *HLSResolver {
	return &HLSResolver{Fetcher: fetcher, Timeout: timeout}
}

func (r *HLSResolver) Resolve(ctx context.Context, text, baseURL string) (*Manifest, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	switch listType {
	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		segments, err := mediaSegments(media, baseURL)
		if err != nil {
			return nil, err
		}

		return &Manifest{Videos: []Track{{Codec: codecFromSegments(segments), Segments: segments}}}, nil
	case m3u8.MASTER:
		return r.resolveMaster(ctx, playlist.(*m3u8.MasterPlaylist), baseURL)
	default:
		return nil, ErrUnsupported
	}
}

func (r *HLSResolver) resolveMaster(ctx context.Context, master *m3u8.MasterPlaylist, baseURL string) (*Manifest, error) {
	log := logger.FromContext(ctx)

	m := &Manifest{}
	seen := make(map[string]bool)

	for _, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}

		segments, err := r.fetchSegments(ctx, v.URI, baseURL)
		if err != nil {
			return nil, err
		}

		m.Videos = append(m.Videos, Track{
			Codec:    videoCodec(v.Codecs),
			Bitrate:  bitrate(v.Bandwidth),
			Quality:  quality(v.Resolution),
			FPS:      v.FrameRate,
			Segments: segments,
		})

		for _, alt := range v.Alternatives {
			if alt == nil || alt.URI == "" || seen[alt.URI] {
				continue
			}

			seen[alt.URI] = true

			segments, err := r.fetchSegments(ctx, alt.URI, baseURL)
			if err != nil {
				return nil, err
			}

			track := Track{
				Language: alt.Language,
				Label:    alt.Name,
				Segments: segments,
			}

			switch strings.ToUpper(alt.Type) {
			case "AUDIO":
				track.Codec = audioCodec(v.Codecs)
				m.Audios = append(m.Audios, track)
			case "SUBTITLES":
				track.Codec = codecFromSegments(segments)
				m.Subtitles = append(m.Subtitles, track)
			default:
				log.Debugf("Skipping %s rendition %s", alt.Type, alt.URI)
			}
		}
	}

	return m, nil
}

func (r *HLSResolver) fetchSegments(ctx context.Context, ref, baseURL string) ([]Segment, error) {
	if r.Fetcher == nil {
		return nil, fmt.Errorf("%w: master playlist needs a fetcher", ErrUnsupported)
	}

	u, err := resolveURL(baseURL, ref)
	if err != nil {
		return nil, err
	}

	text, err := r.fetchText(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPlaylistFetch, u, err)
	}

	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	if listType != m3u8.MEDIA {
		return nil, fmt.Errorf("%w: %s is not a media playlist", ErrUnsupported, u)
	}

	return mediaSegments(playlist.(*m3u8.MediaPlaylist), u)
}

func (r *HLSResolver) fetchText(ctx context.Context, u string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	return r.Fetcher.FetchText(ctx, u)
}

// mediaSegments lists the playlist's segments, preceded by its
// initialization section when one is declared.
func mediaSegments(media *m3u8.MediaPlaylist, baseURL string) ([]Segment, error) {
	var segments []Segment

	if media.Map != nil && media.Map.URI != "" {
		u, err := resolveURL(baseURL, media.Map.URI)
		if err != nil {
			return nil, err
		}

		segments = append(segments, Segment{URL: u})
	}

	for _, s := range media.Segments {
		if s == nil {
			break
		}

		u, err := resolveURL(baseURL, s.URI)
		if err != nil {
			return nil, err
		}

		segments = append(segments, Segment{URL: u})
	}

	return segments, nil
}

func resolveURL(baseURL, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", ref, err)
	}

	if baseURL == "" || r.IsAbs() {
		return r.String(), nil
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", baseURL, err)
	}

	return b.ResolveReference(r).String(), nil
}

func bitrate(bandwidth uint32) Bitrate {
	return Bitrate{BPS: int64(bandwidth), KBPS: int64(math.Round(float64(bandwidth) / 1000))}
}

// quality turns "1920x1080" into "1080p".
func quality(resolution string) string {
	_, h, ok := strings.Cut(resolution, "x")
	if !ok || h == "" {
		return ""
	}

	return h + "p"
}

var videoPrefixes = []string{"avc", "hvc", "hev", "vp0", "vp8", "vp9", "av01", "dvh", "dva"}

func videoCodec(codecs string) string {
	for _, c := range strings.Split(codecs, ",") {
		c = strings.TrimSpace(c)
		for _, p := range videoPrefixes {
			if strings.HasPrefix(strings.ToLower(c), p) {
				return strings.ToUpper(strings.SplitN(c, ".", 2)[0])
			}
		}
	}

	return ""
}

func audioCodec(codecs string) string {
	for _, c := range strings.Split(codecs, ",") {
		c = strings.TrimSpace(c)
		if c != "" && videoCodec(c) == "" {
			return strings.ToUpper(strings.SplitN(c, ".", 2)[0])
		}
	}

	return ""
}

// codecFromSegments names a codec after the first segment's extension, which
// is all an HLS playlist tells about subtitle renditions.
func codecFromSegments(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}

	u, err := url.Parse(segments[0].URL)
	if err != nil {
		return ""
	}

	return strings.ToUpper(strings.TrimPrefix(path.Ext(u.Path), "."))
}
