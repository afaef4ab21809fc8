// Package wildcard implements the %-token template language used for
// output paths and transcoder argument templates.
//
// Recognized tokens:
//
//	%a  artists, joined with the configured separator
//	%t  track title
//	%b  album title
//	%s  queue position, zero-padded to the width of the total count
//	%n  track number
//	%d  disc number
//	%l  language of performance
//	%y  release year
//	%p  publisher
//	%%  a literal percent sign
//
// Expansion is a single pass over the compiled template: substituted text
// is never re-scanned, so a title containing "%a" comes out containing
// "%a". Unrecognized token sequences pass through verbatim rather than
// being dropped, which keeps surrounding text intact when a template has
// a typo.
package wildcard

import (
	"fmt"
	"strconv"
	"strings"

	"ffgrab/internal/model"
)

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenArtists
	tokenTitle
	tokenAlbum
	tokenSeq
	tokenTrack
	tokenDisc
	tokenLanguage
	tokenYear
	tokenPublisher
)

type part struct {
	kind tokenKind
	lit  string
}

// Template is a compiled template ready for repeated expansion.
type Template struct {
	parts []part
}

// Fields supplies the per-track values substituted during expansion.
//
// String fields that a catalog does not supply stay empty and expand to
// the empty string. Track, Disc, and Year expand to the empty string when
// zero or negative.
type Fields struct {
	Artists   []string
	Separator string
	Title     string
	Album     string

	// Seq is the 1-based queue position; SeqDigits is the print width it
	// is zero-padded to (the digit count of the total job count).
	Seq       int
	SeqDigits int

	Track     int
	Disc      int
	Language  string
	Year      int
	Publisher string
}

// FieldsFromTrack builds expansion fields from track metadata.
func FieldsFromTrack(t model.Track, separator string, seq, seqDigits int) Fields {
	return Fields{
		Artists:   t.Artists,
		Separator: separator,
		Title:     t.Title,
		Album:     t.Album,
		Seq:       seq,
		SeqDigits: seqDigits,
		Track:     t.Number,
		Disc:      t.Disc,
		Language:  t.Language,
		Year:      t.Year,
		Publisher: t.Publisher,
	}
}

// Compile parses a template string into a Template.
//
// Compile never fails: "%%" becomes a literal percent and any other
// unrecognized "%x" sequence (or a trailing lone "%") is kept as literal
// text.
func Compile(template string) Template {
	var parts []part
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, part{kind: tokenLiteral, lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			lit.WriteByte(template[i])
			continue
		}
		if i+1 >= len(template) {
			lit.WriteByte('%')
			break
		}
		next := template[i+1]
		kind, ok := tokenFor(next)
		switch {
		case next == '%':
			lit.WriteByte('%')
			i++
		case ok:
			flush()
			parts = append(parts, part{kind: kind})
			i++
		default:
			// Unknown token: keep "%x" as written.
			lit.WriteByte('%')
			lit.WriteByte(next)
			i++
		}
	}
	flush()

	return Template{parts: parts}
}

func tokenFor(c byte) (tokenKind, bool) {
	switch c {
	case 'a':
		return tokenArtists, true
	case 't':
		return tokenTitle, true
	case 'b':
		return tokenAlbum, true
	case 's':
		return tokenSeq, true
	case 'n':
		return tokenTrack, true
	case 'd':
		return tokenDisc, true
	case 'l':
		return tokenLanguage, true
	case 'y':
		return tokenYear, true
	case 'p':
		return tokenPublisher, true
	default:
		return tokenLiteral, false
	}
}

// Expand substitutes fields into the template and returns the result.
func (t Template) Expand(f Fields) string {
	var b strings.Builder
	for _, p := range t.parts {
		switch p.kind {
		case tokenLiteral:
			b.WriteString(p.lit)
		case tokenArtists:
			b.WriteString(strings.Join(f.Artists, f.Separator))
		case tokenTitle:
			b.WriteString(f.Title)
		case tokenAlbum:
			b.WriteString(f.Album)
		case tokenSeq:
			if f.SeqDigits > 0 {
				fmt.Fprintf(&b, "%0*d", f.SeqDigits, f.Seq)
			} else {
				b.WriteString(strconv.Itoa(f.Seq))
			}
		case tokenTrack:
			b.WriteString(positiveInt(f.Track))
		case tokenDisc:
			b.WriteString(positiveInt(f.Disc))
		case tokenLanguage:
			b.WriteString(f.Language)
		case tokenYear:
			b.WriteString(positiveInt(f.Year))
		case tokenPublisher:
			b.WriteString(f.Publisher)
		}
	}
	return b.String()
}

// positiveInt renders n, or the empty string when the value is unknown.
func positiveInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
