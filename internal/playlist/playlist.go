// Package playlist renders finished downloads as playlist files.
package playlist

import (
	"fmt"
	"path/filepath"
	"strings"

	"ffgrab/internal/model"
)

// Format selects the playlist file format.
type Format int

const (
	// FormatM3U creates .m3u files, optionally with #EXTINF lines.
	FormatM3U Format = iota

	// FormatPLS creates INI-style .pls files.
	FormatPLS
)

// Item is one playlist row: a finished output file plus the track
// metadata shown in extended formats.
type Item struct {
	Path  string
	Track model.Track
}

// Writer generates playlist content from completed downloads.
type Writer struct {
	format    Format
	extended  bool
	separator string
}

// NewWriter creates a Writer. extended controls #EXTINF lines in M3U
// output; separator joins multi-artist credits.
func NewWriter(format Format, extended bool, separator string) *Writer {
	if separator == "" {
		separator = ", "
	}
	return &Writer{format: format, extended: extended, separator: separator}
}

// Ext returns the file extension for the writer's format.
func (w *Writer) Ext() string {
	if w.format == FormatPLS {
		return "pls"
	}
	return "m3u"
}

// Render produces playlist content for items, in the order given.
// Paths are written relative to dir when possible, so the playlist can
// live next to the files it references.
func (w *Writer) Render(dir string, items []Item) string {
	switch w.format {
	case FormatPLS:
		return w.renderPLS(dir, items)
	default:
		return w.renderM3U(dir, items)
	}
}

func (w *Writer) renderM3U(dir string, items []Item) string {
	var sb strings.Builder

	if w.extended {
		sb.WriteString("#EXTM3U\n")
	}
	for _, item := range items {
		if w.extended {
			artist := strings.Join(item.Track.Artists, w.separator)
			fmt.Fprintf(&sb, "#EXTINF:%d,%s - %s\n", int(item.Track.Duration), artist, item.Track.Title)
		}
		sb.WriteString(relativeTo(dir, item.Path) + "\n")
	}
	return sb.String()
}

func (w *Writer) renderPLS(dir string, items []Item) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")
	for i, item := range items {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, relativeTo(dir, item.Path))
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, item.Track.Title)
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, int(item.Track.Duration))
	}
	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(items))
	sb.WriteString("Version=2\n")
	return sb.String()
}

func relativeTo(dir, path string) string {
	if dir == "" {
		return path
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
