// Package httpsource implements source.Source against an HTTP catalog.
//
// The catalog serves JSON manifests at {base}/{kind}/{id} describing the
// tracks of a resource, including per-format CDN URLs. Audio and cover
// art are fetched from those URLs with the same authenticated client.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"ffgrab/internal/model"
	"ffgrab/internal/source"
)

// HTTPSource fetches metadata and audio over HTTPS.
type HTTPSource struct {
	base   string
	client *client
}

var _ source.Source = (*HTTPSource)(nil)

// New creates a source rooted at baseURL, authenticating every request
// with the given credentials.
func New(baseURL, username, password string) *HTTPSource {
	return &HTTPSource{
		base:   strings.TrimRight(baseURL, "/"),
		client: newClient(username, password),
	}
}

// manifest mirrors the catalog's JSON resource document.
type manifest struct {
	Tracks []manifestTrack `json:"tracks"`
}

type manifestTrack struct {
	ID        string            `json:"id"`
	Artists   []string          `json:"artists"`
	Title     string            `json:"title"`
	Album     string            `json:"album"`
	Number    int               `json:"number"`
	Disc      int               `json:"disc"`
	Language  string            `json:"language"`
	Year      int               `json:"year"`
	Publisher string            `json:"publisher"`
	Duration  float64           `json:"duration"`
	Cover     string            `json:"cover"`
	Files     map[string]string `json:"files"`
}

func (mt manifestTrack) toTrack() model.Track {
	files := make(map[model.Format]string, len(mt.Files))
	for format, u := range mt.Files {
		files[model.Format(format)] = u
	}
	return model.Track{
		ID:        mt.ID,
		Artists:   mt.Artists,
		Title:     mt.Title,
		Album:     mt.Album,
		Number:    mt.Number,
		Disc:      mt.Disc,
		Language:  mt.Language,
		Year:      mt.Year,
		Publisher: mt.Publisher,
		Duration:  mt.Duration,
		CoverURL:  mt.Cover,
		Files:     files,
	}
}

// Resolve fetches and decodes the manifest for a resource.
func (s *HTTPSource) Resolve(ctx context.Context, kind model.ResourceKind, id string) ([]model.Track, error) {
	u := fmt.Sprintf("%s/%s/%s", s.base, kind, url.PathEscape(id))
	data, err := s.client.get(ctx, u)
	if err != nil {
		return nil, &source.Error{Op: "resolve " + string(kind), Err: err}
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &source.Error{Op: "resolve " + string(kind), Err: fmt.Errorf("decode manifest: %w", err)}
	}
	if len(m.Tracks) == 0 {
		return nil, &source.Error{Op: "resolve " + string(kind), Err: fmt.Errorf("resource %q has no tracks", id)}
	}

	tracks := make([]model.Track, len(m.Tracks))
	for i, mt := range m.Tracks {
		tracks[i] = mt.toTrack()
	}
	return tracks, nil
}

// OpenAudio streams the best available format for the quality tier.
func (s *HTTPSource) OpenAudio(ctx context.Context, track model.Track, quality int) (io.ReadCloser, error) {
	formats, ok := model.FormatsForQuality(quality)
	if !ok {
		return nil, &source.Error{Op: "open audio", Err: fmt.Errorf("unsupported quality %d", quality)}
	}
	for _, format := range formats {
		u, ok := track.Files[format]
		if !ok {
			continue
		}
		body, err := s.client.getStream(ctx, u)
		if err != nil {
			return nil, &source.Error{Op: "open audio", Err: err}
		}
		return body, nil
	}
	return nil, &source.Error{Op: "open audio", Err: fmt.Errorf("no suitable file for track %q at quality %d", track.ID, quality)}
}

// CoverArt downloads the track's cover image.
func (s *HTTPSource) CoverArt(ctx context.Context, track model.Track) ([]byte, error) {
	if !track.HasCover() {
		return nil, &source.Error{Op: "cover art", Err: fmt.Errorf("track %q has no cover", track.ID)}
	}
	data, err := s.client.get(ctx, track.CoverURL)
	if err != nil {
		return nil, &source.Error{Op: "cover art", Err: err}
	}
	return data, nil
}
