// Package source defines the contract between the output pipeline and
// whatever service supplies raw audio and metadata.
//
// The pipeline never speaks a streaming protocol itself; it asks a
// Source to resolve a catalog resource into tracks, open the raw audio
// for one track at a quality tier, and fetch cover art. Failures coming
// out of a Source are opaque to the pipeline and wrapped in *Error so
// they can be told apart from pipeline-local failures.
package source

import (
	"context"
	"fmt"
	"io"

	"ffgrab/internal/model"
)

// Source supplies track metadata and raw audio.
type Source interface {
	// Resolve expands a catalog resource (track, album, playlist) into
	// its tracks, in catalog order.
	Resolve(ctx context.Context, kind model.ResourceKind, id string) ([]model.Track, error)

	// OpenAudio opens the raw audio stream for a track. The source picks
	// the best format it can serve for the requested quality tier and
	// fails when none is acceptable. The caller owns the returned reader.
	OpenAudio(ctx context.Context, track model.Track, quality int) (io.ReadCloser, error)

	// CoverArt fetches the track's cover image bytes, or an error when
	// the track has none.
	CoverArt(ctx context.Context, track model.Track) ([]byte, error)
}

// Error wraps a failure reported by a Source. The underlying error is
// passed through unchanged.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("source: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
