package model

import "testing"

func TestFormatsForQuality(t *testing.T) {
	tests := []struct {
		quality int
		want    []Format
		ok      bool
	}{
		{320, []Format{FormatOggVorbis320, FormatOggVorbis160, FormatOggVorbis96}, true},
		{160, []Format{FormatOggVorbis160, FormatOggVorbis96}, true},
		{96, []Format{FormatOggVorbis96}, true},
		{128, nil, false},
		{0, nil, false},
	}

	for _, tt := range tests {
		got, ok := FormatsForQuality(tt.quality)
		if ok != tt.ok {
			t.Errorf("FormatsForQuality(%d) ok = %v, want %v", tt.quality, ok, tt.ok)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("FormatsForQuality(%d) = %v, want %v", tt.quality, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("FormatsForQuality(%d)[%d] = %v, want %v", tt.quality, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseResource(t *testing.T) {
	tests := []struct {
		ref      string
		wantKind ResourceKind
		wantID   string
		wantErr  bool
	}{
		{"track/4uLU6hMCjMI75M1A2tKUQC", ResourceTrack, "4uLU6hMCjMI75M1A2tKUQC", false},
		{"album:6QaVfG1pHYl1z15ZxkvVDW", ResourceAlbum, "6QaVfG1pHYl1z15ZxkvVDW", false},
		{"https://catalog.example/playlist/37i9dQZF1DXcBWIGoYBM5M", ResourcePlaylist, "37i9dQZF1DXcBWIGoYBM5M", false},
		{"ffgrab:track:abc123", ResourceTrack, "abc123", false},
		{"artist/xyz", "", "", true},
		{"track/", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		kind, id, err := ParseResource(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResource(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if kind != tt.wantKind || id != tt.wantID {
			t.Errorf("ParseResource(%q) = (%q, %q), want (%q, %q)", tt.ref, kind, id, tt.wantKind, tt.wantID)
		}
	}
}

func TestTrack_HasCover(t *testing.T) {
	if (Track{}).HasCover() {
		t.Error("HasCover() should be false without a cover URL")
	}
	if !(Track{CoverURL: "https://cdn.example/cover.jpg"}).HasCover() {
		t.Error("HasCover() should be true with a cover URL")
	}
}
