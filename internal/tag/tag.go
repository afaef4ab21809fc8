// Package tag writes ID3 metadata to finished MP3 downloads.
//
// Only MP3 outputs are tagged here; Ogg outputs carry their metadata
// through the transcoder's -metadata arguments instead.
package tag

import (
	"os"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"

	"ffgrab/internal/model"
)

// Tagger writes ID3v2 frames derived from track metadata.
type Tagger struct {
	// Separator joins multiple artists into the TPE1 frame.
	Separator string
}

// NewTagger returns a Tagger joining artists with separator.
func NewTagger(separator string) *Tagger {
	if separator == "" {
		separator = ", "
	}
	return &Tagger{Separator: separator}
}

// SaveTags writes the track's metadata to the file at path.
//
// Existing frames for the fields we own are replaced; artwork, when
// provided, is embedded as the front cover. Frames for fields the
// track does not carry (publisher, language, disc) are left out rather
// than written empty.
func (t *Tagger) SaveTags(path string, track model.Track, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		if os.IsNotExist(err) {
			tag = id3v2.NewEmptyTag()
		} else {
			return err
		}
	}
	defer tag.Close()

	t.writeTextFrames(tag, track)
	if artwork != nil {
		writeArtwork(tag, artwork)
	}

	return tag.Save()
}

func (t *Tagger) writeTextFrames(tag *id3v2.Tag, track model.Track) {
	tag.SetArtist(strings.Join(track.Artists, t.Separator))
	tag.SetTitle(track.Title)
	tag.SetAlbum(track.Album)

	if track.Number > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(track.Number))
	}
	if track.Disc > 0 {
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, strconv.Itoa(track.Disc))
	}
	if track.Year > 0 {
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, strconv.Itoa(track.Year))
	}
	if track.Publisher != "" {
		tag.AddTextFrame("TPUB", id3v2.EncodingUTF8, track.Publisher)
	}
	if track.Language != "" {
		tag.AddTextFrame("TLAN", id3v2.EncodingUTF8, track.Language)
	}
}

func writeArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}
