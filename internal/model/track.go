package model

import (
	"fmt"
	"regexp"
)

// Track represents one piece of audio resolved by a source.
//
// Everything here is plain metadata; where the bytes live and how they are
// fetched is the source's concern. Fields that a catalog may not supply
// (Language, Year, Publisher, Disc) are zero-valued when absent.
type Track struct {
	// ID is the source-assigned track identifier.
	ID string

	// Artists lists the performing artists in catalog order.
	Artists []string

	// Title is the track title.
	Title string

	// Album is the title of the album the track belongs to.
	Album string

	// Number is the 1-based track number within its disc.
	Number int

	// Disc is the 1-based disc number, or 0 when unknown.
	Disc int

	// Language is the language of performance, or "" when unknown.
	Language string

	// Year is the release year, or 0 when unknown.
	Year int

	// Publisher is the releasing label, or "" when unknown.
	Publisher string

	// Duration is the track length in seconds, used for playlists.
	Duration float64

	// CoverURL points at the largest available cover image, or "".
	CoverURL string

	// Files maps each format the source can serve to an opaque locator
	// (typically a CDN URL) understood by that source.
	Files map[Format]string
}

// HasCover reports whether the track has cover art available for download.
func (t Track) HasCover() bool {
	return t.CoverURL != ""
}

// Format identifies a concrete audio encoding served by a source.
type Format string

const (
	FormatOggVorbis320 Format = "ogg-vorbis-320"
	FormatOggVorbis160 Format = "ogg-vorbis-160"
	FormatOggVorbis96  Format = "ogg-vorbis-96"
)

// QualityTiers lists the quality values a profile may request.
var QualityTiers = []int{320, 160, 96}

// FormatsForQuality returns the formats acceptable for a quality tier,
// best first. A tier accepts its own bitrate and anything below it, so a
// degraded catalog entry still downloads rather than failing outright.
// The second return value is false for an unknown tier.
func FormatsForQuality(quality int) ([]Format, bool) {
	switch quality {
	case 320:
		return []Format{FormatOggVorbis320, FormatOggVorbis160, FormatOggVorbis96}, true
	case 160:
		return []Format{FormatOggVorbis160, FormatOggVorbis96}, true
	case 96:
		return []Format{FormatOggVorbis96}, true
	default:
		return nil, false
	}
}

// ResourceKind is the kind of catalog resource a user may request.
type ResourceKind string

const (
	ResourceTrack    ResourceKind = "track"
	ResourceAlbum    ResourceKind = "album"
	ResourcePlaylist ResourceKind = "playlist"
)

// resourcePattern matches "track/ID", "track:ID", and full catalog URLs
// whose path ends in one of those forms.
var resourcePattern = regexp.MustCompile(`(track|album|playlist)[/:]([A-Za-z0-9]+)$`)

// ParseResource extracts the resource kind and identifier from a user
// supplied reference, which may be a bare "kind/id", a "kind:id" URI,
// or a catalog URL.
func ParseResource(ref string) (ResourceKind, string, error) {
	m := resourcePattern.FindStringSubmatch(ref)
	if m == nil {
		return "", "", fmt.Errorf("unrecognized resource %q: expected track/ID, album/ID, or playlist/ID", ref)
	}
	return ResourceKind(m[1]), m[2], nil
}
