package naming

import (
	"errors"
	"strings"
	"testing"

	"ffgrab/internal/wildcard"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal name", "normal name"},
		{"AC/DC", "AC_DC"},
		{"back\\slash", "back_slash"},
		{"col:on|pipe?star*", "col_on_pipe_star_"},
		{"quo\"te<гт>", "quo_te_гт_"},
		{"ctrl\x00\x1fchars", "ctrl__chars"},
		{"trailing dots...", "trailing dots"},
		{"..", ".."},
		{"lots   of\tspace ", "lots of space"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeSegment(tt.input); got != tt.want {
				t.Errorf("SanitizeSegment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func fields(title string) wildcard.Fields {
	return wildcard.Fields{
		Artists:   []string{"Artist"},
		Separator: ", ",
		Title:     title,
		Album:     "Album",
		Seq:       1,
		SeqDigits: 1,
	}
}

func TestResolve_Basic(t *testing.T) {
	r := NewResolver("/music/%a/%b/%s %t", 0)
	got, err := r.Resolve(fields("Song"), "ogg")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "/music/Artist/Album/1 Song.ogg"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_SanitizesMetadata(t *testing.T) {
	r := NewResolver("/music/%a/%t", 0)
	got, err := r.Resolve(wildcard.Fields{
		Artists:   []string{"AC/DC"},
		Separator: ", ",
		Title:     "Back: In <Black>",
	}, "mp3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "/music/AC_DC/Back_ In _Black_.mp3"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_Truncation(t *testing.T) {
	r := NewResolver("/music/%t", 10)
	got, err := r.Resolve(fields(strings.Repeat("x", 20)), "mp3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "/music/" + strings.Repeat("x", 10) + ".mp3"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_TruncationRuneBoundary(t *testing.T) {
	// "ééééé" is 10 bytes; a budget of 9 must not split the last rune.
	r := NewResolver("/music/%t", 9)
	got, err := r.Resolve(fields("ééééé"), "ogg")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "/music/éééé.ogg"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_DirectoriesUntouchedByTruncation(t *testing.T) {
	r := NewResolver("/music/%b/%t", 5)
	got, err := r.Resolve(wildcard.Fields{
		Album: "A Very Long Album Directory Name",
		Title: "longtitle",
	}, "ogg")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "/music/A Very Long Album Directory Name/longt.ogg"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		maxLen   int
		title    string
		ext      string
		wantKind ErrorKind
	}{
		{"empty filename", "/music/%t", 0, "", "ogg", EmptyPath},
		{"dot filename", "/music/%t", 0, ".", "ogg", EmptyPath},
		{"budget below extension", "/music/%t", 2, "title", "mp3", TruncationImpossible},
		{"dot-dot filename climbs out", "/music/%t", 0, "..", "ogg", TraversalAttempt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.template, tt.maxLen)
			_, err := r.Resolve(fields(tt.title), tt.ext)
			var perr *PathError
			if !errors.As(err, &perr) {
				t.Fatalf("Resolve() error = %v, want *PathError", err)
			}
			if perr.Kind != tt.wantKind {
				t.Errorf("Resolve() kind = %v, want %v", perr.Kind, tt.wantKind)
			}
		})
	}
}

func TestResolve_DotDotDirectorySegment(t *testing.T) {
	r := NewResolver("/music/%a/%t", 0)
	_, err := r.Resolve(wildcard.Fields{
		Artists: []string{".."},
		Title:   "passwd",
	}, "")
	var perr *PathError
	if !errors.As(err, &perr) || perr.Kind != TraversalAttempt {
		t.Fatalf("Resolve() error = %v, want TraversalAttempt", err)
	}
}

func TestResolve_AdversarialMetadataStaysInside(t *testing.T) {
	r := NewResolver("/music/%a/%t", 0)
	got, err := r.Resolve(wildcard.Fields{
		Artists: []string{"../../etc"},
		Title:   "passwd",
	}, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.HasPrefix(got, "/music/") {
		t.Errorf("Resolve() = %q, escaped the base directory", got)
	}
}
