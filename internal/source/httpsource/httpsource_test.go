package httpsource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ffgrab/internal/model"
	"ffgrab/internal/source"
)

const albumManifest = `{
  "tracks": [
    {
      "id": "t1",
      "artists": ["A", "B"],
      "title": "First",
      "album": "Album",
      "number": 1,
      "disc": 1,
      "language": "en",
      "year": 2021,
      "publisher": "Label",
      "duration": 181.5,
      "cover": "%s/cover/t1.jpg",
      "files": {"ogg-vorbis-320": "%s/audio/t1-320.ogg", "ogg-vorbis-96": "%s/audio/t1-96.ogg"}
    },
    {
      "id": "t2",
      "artists": ["A"],
      "title": "Second",
      "album": "Album",
      "number": 2,
      "files": {"ogg-vorbis-96": "%s/audio/t2-96.ogg"}
    }
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/album/al1", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "u" || pass != "p" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		manifest := albumManifest
		body := []byte(expand(manifest, srv.URL))
		w.Write(body)
	})
	mux.HandleFunc("/audio/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio-bytes:" + r.URL.Path))
	})
	mux.HandleFunc("/cover/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("cover-bytes"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func expand(manifest, base string) string {
	out := make([]byte, 0, len(manifest)+4*len(base))
	for i := 0; i < len(manifest); i++ {
		if manifest[i] == '%' && i+1 < len(manifest) && manifest[i+1] == 's' {
			out = append(out, base...)
			i++
			continue
		}
		out = append(out, manifest[i])
	}
	return string(out)
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t)
	s := New(srv.URL, "u", "p")

	tracks, err := s.Resolve(context.Background(), model.ResourceAlbum, "al1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("Resolve() returned %d tracks, want 2", len(tracks))
	}
	first := tracks[0]
	if first.Title != "First" || first.Year != 2021 || first.Publisher != "Label" {
		t.Errorf("track metadata mismatch: %+v", first)
	}
	if len(first.Files) != 2 {
		t.Errorf("track files = %v, want 2 formats", first.Files)
	}
	if !first.HasCover() {
		t.Error("first track should have a cover")
	}
}

func TestResolve_Unauthorized(t *testing.T) {
	srv := newTestServer(t)
	s := New(srv.URL, "u", "wrong")

	_, err := s.Resolve(context.Background(), model.ResourceAlbum, "al1")
	var serr *source.Error
	if !errors.As(err, &serr) {
		t.Fatalf("Resolve() error = %v, want *source.Error", err)
	}
}

func TestOpenAudio_FormatLadder(t *testing.T) {
	srv := newTestServer(t)
	s := New(srv.URL, "u", "p")

	tracks, err := s.Resolve(context.Background(), model.ResourceAlbum, "al1")
	if err != nil {
		t.Fatal(err)
	}

	// Track 1 has a 320 file; quality 320 should pick it.
	body, err := s.OpenAudio(context.Background(), tracks[0], 320)
	if err != nil {
		t.Fatalf("OpenAudio() error = %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "audio-bytes:/audio/t1-320.ogg" {
		t.Errorf("OpenAudio() fetched %q", data)
	}

	// Track 2 only has a 96 file; quality 320 should fall back to it.
	body, err = s.OpenAudio(context.Background(), tracks[1], 320)
	if err != nil {
		t.Fatalf("OpenAudio() fallback error = %v", err)
	}
	data, _ = io.ReadAll(body)
	body.Close()
	if string(data) != "audio-bytes:/audio/t2-96.ogg" {
		t.Errorf("OpenAudio() fallback fetched %q", data)
	}

	// Quality 96 must not accept a 320-only track.
	only320 := model.Track{ID: "x", Files: map[model.Format]string{model.FormatOggVorbis320: srv.URL + "/audio/x.ogg"}}
	if _, err := s.OpenAudio(context.Background(), only320, 96); err == nil {
		t.Error("OpenAudio() should fail when no acceptable format exists")
	}
}

func TestCoverArt(t *testing.T) {
	srv := newTestServer(t)
	s := New(srv.URL, "u", "p")

	tracks, err := s.Resolve(context.Background(), model.ResourceAlbum, "al1")
	if err != nil {
		t.Fatal(err)
	}

	data, err := s.CoverArt(context.Background(), tracks[0])
	if err != nil {
		t.Fatalf("CoverArt() error = %v", err)
	}
	if string(data) != "cover-bytes" {
		t.Errorf("CoverArt() = %q", data)
	}

	if _, err := s.CoverArt(context.Background(), tracks[1]); err == nil {
		t.Error("CoverArt() should fail for a track without cover")
	}
}

func TestNewClient_NoBodyReadDeadline(t *testing.T) {
	// Audio bodies are consumed by the transcoder for as long as a job
	// takes; only dialing and header reads may carry fixed deadlines.
	c := newClient("u", "p")
	if c.httpClient.Timeout != 0 {
		t.Errorf("client timeout = %v, want none", c.httpClient.Timeout)
	}
	tr, ok := c.httpClient.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport = %T, want *http.Transport", c.httpClient.Transport)
	}
	if tr.ResponseHeaderTimeout == 0 {
		t.Error("response header timeout should be set")
	}
}
