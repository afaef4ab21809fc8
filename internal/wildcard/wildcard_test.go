package wildcard

import "testing"

func TestExpand(t *testing.T) {
	fields := Fields{
		Artists:   []string{"A", "B"},
		Separator: ", ",
		Title:     "X",
		Album:     "Greatest",
		Seq:       7,
		SeqDigits: 2,
		Track:     3,
		Disc:      1,
		Language:  "en",
		Year:      2021,
		Publisher: "Label",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"artists and title", "%a - %t", "A, B - X"},
		{"padded seq", "%s %t", "07 X"},
		{"all tokens", "%a|%t|%b|%s|%n|%d|%l|%y|%p", "A, B|X|Greatest|07|3|1|en|2021|Label"},
		{"literal percent", "100%% %t", "100% X"},
		{"unknown token kept", "%q %t", "%q X"},
		{"trailing percent kept", "%t%", "X%"},
		{"no tokens", "plain text", "plain text"},
		{"path-like", "/music/%a/%b/%s %t", "/music/A, B/Greatest/07 X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile(tt.template).Expand(fields)
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestExpand_MissingMetadata(t *testing.T) {
	fields := Fields{
		Artists:   []string{"Solo"},
		Separator: ", ",
		Title:     "T",
		Seq:       1,
		SeqDigits: 1,
	}

	// The literal spaces on both sides of the empty %p survive.
	got := Compile("%t [%l] (%y) %p disc %d").Expand(fields)
	want := "T [] ()  disc "
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpand_SinglePass(t *testing.T) {
	// A substituted value containing token syntax must not be re-expanded.
	fields := Fields{
		Artists:   []string{"100%a proof"},
		Separator: ", ",
		Title:     "%b side",
		Album:     "should not appear",
	}

	got := Compile("%a - %t").Expand(fields)
	want := "100%a proof - %b side"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpand_IdempotentOnTokenFreeText(t *testing.T) {
	const text = "Artist - Title (2021)"
	once := Compile(text).Expand(Fields{})
	twice := Compile(once).Expand(Fields{})
	if once != text || twice != text {
		t.Errorf("expansion altered token-free text: %q -> %q -> %q", text, once, twice)
	}
}

func TestExpand_SeqWithoutPadding(t *testing.T) {
	got := Compile("%s").Expand(Fields{Seq: 12})
	if got != "12" {
		t.Errorf("Expand(%%s) = %q, want %q", got, "12")
	}
}
