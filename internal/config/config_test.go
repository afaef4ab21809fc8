package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Username:         "user",
		Password:         "pass",
		Output:           "/music/%a/%t",
		SourceURL:        "https://api.example.com",
		ArtistsSeparator: ", ",
		DefaultProfile:   "ogg",
		Profiles: map[string]Profile{
			"ogg": {Quality: 320, Extension: "ogg", Args: []string{"-c:a", "copy"}},
			"mp3": {Quality: 160, CoverArt: true, Extension: "mp3"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		kind   ErrorKind
	}{
		{"missing username", func(c *Config) { c.Username = "" }, MissingCredential},
		{"missing password", func(c *Config) { c.Password = " " }, MissingCredential},
		{"unknown default profile", func(c *Config) { c.DefaultProfile = "nope" }, UnknownProfile},
		{"invalid quality", func(c *Config) {
			p := c.Profiles["ogg"]
			p.Quality = 128
			c.Profiles["ogg"] = p
		}, InvalidQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() error = %v, want *Error", err)
			}
			if cerr.Kind != tt.kind {
				t.Errorf("Validate() kind = %v, want %v", cerr.Kind, tt.kind)
			}
		})
	}
}

func TestValidate_RequiresSourceURL(t *testing.T) {
	cfg := validConfig()
	cfg.SourceURL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should reject an empty source_url")
	}
}

func TestResolveProfile(t *testing.T) {
	cfg := validConfig()

	p, err := cfg.ResolveProfile("")
	if err != nil {
		t.Fatalf("ResolveProfile(default) error = %v", err)
	}
	if p.Extension != "ogg" {
		t.Errorf("default profile extension = %q, want %q", p.Extension, "ogg")
	}

	p, err = cfg.ResolveProfile("mp3")
	if err != nil {
		t.Fatalf("ResolveProfile(mp3) error = %v", err)
	}
	if !p.CoverArt {
		t.Error("mp3 profile should request cover art")
	}

	_, err = cfg.ResolveProfile("missing")
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != UnknownProfile {
		t.Errorf("ResolveProfile(missing) error = %v, want UnknownProfile", err)
	}
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
username = "u"
password = "p"
output = "/music/%a/%b/%s %t"
source_url = "https://api.example.com"
artists_separator = "; "
max_filename_len = 120
default_profile = "ogg"

[profiles.ogg]
quality = 320
cover_art = false
extension = "ogg"
args = ["-c:a", "copy"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, created, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if created {
		t.Fatal("Load() created = true for an existing file")
	}
	if cfg.ArtistsSeparator != "; " {
		t.Errorf("ArtistsSeparator = %q, want %q", cfg.ArtistsSeparator, "; ")
	}
	if cfg.MaxFilenameLen != 120 {
		t.Errorf("MaxFilenameLen = %d, want 120", cfg.MaxFilenameLen)
	}
	if cfg.FFPath != "ffmpeg" {
		t.Errorf("FFPath default = %q, want %q", cfg.FFPath, "ffmpeg")
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers default = %d, want 4", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_CreatesSampleAtDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	t.Setenv(EnvConfigPath, path)

	cfg, created, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !created {
		t.Fatal("Load() created = false, want true for missing default config")
	}
	if cfg != nil {
		t.Error("Load() should not return a config when it creates the sample")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("sample config not written: %v", err)
	}

	// The sample itself must parse.
	cfg, created, err = Load(path)
	if err != nil || created {
		t.Fatalf("Load(sample) = (%v, %v), want parsed config", err, created)
	}
	if _, err := cfg.ResolveProfile(""); err != nil {
		t.Errorf("sample default profile: %v", err)
	}
	if cfg.SourceURL == "" {
		t.Error("sample should set source_url")
	}
}

func TestLoad_ExplicitMissingPathFails(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Load() should fail for an explicit missing path")
	}
}
