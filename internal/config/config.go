// Package config loads and validates the ffgrab TOML configuration.
//
// The configuration is decoded once at startup and treated as immutable
// afterwards; workers share it read-only. Profile and credential problems
// are operator misconfiguration and surface as fatal errors before any
// job runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"ffgrab/internal/model"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfigPath overrides the default configuration file location.
const EnvConfigPath = "FFGRAB_CONFIG"

// Profile is a named encoding recipe: the quality tier to request from
// the source, whether to feed cover art to the transcoder, the output
// extension, and the transcoder argument templates.
type Profile struct {
	Quality   int      `toml:"quality"`
	CoverArt  bool     `toml:"cover_art"`
	Extension string   `toml:"extension"`
	Args      []string `toml:"args"`
}

// Config is the decoded configuration file.
type Config struct {
	Username string `toml:"username"`
	Password string `toml:"password"`

	// Output is the path template for downloaded tracks. The selected
	// profile's extension is appended to the expanded result.
	Output string `toml:"output"`

	ArtistsSeparator string `toml:"artists_separator"`

	// MaxFilenameLen bounds the final path segment in bytes, excluding
	// the extension. 0 disables truncation.
	MaxFilenameLen int `toml:"max_filename_len"`

	// FFPath locates the transcoder executable. Defaults to "ffmpeg"
	// resolved through PATH.
	FFPath string `toml:"ffpath"`

	DefaultProfile string `toml:"default_profile"`

	// Workers caps the number of parallel transcode jobs.
	Workers int `toml:"workers"`

	// TranscodeTimeout is the per-job duration ceiling in seconds.
	// 0 disables the ceiling.
	TranscodeTimeout int `toml:"transcode_timeout"`

	// SourceURL is the base URL of the track source catalog.
	SourceURL string `toml:"source_url"`

	Profiles map[string]Profile `toml:"profiles"`
}

// ErrorKind classifies configuration errors.
type ErrorKind int

const (
	UnknownProfile ErrorKind = iota
	InvalidQuality
	MissingCredential
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownProfile:
		return "unknown profile"
	case InvalidQuality:
		return "invalid quality"
	case MissingCredential:
		return "missing credential"
	default:
		return "unknown"
	}
}

// Error is a fatal configuration problem.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Kind, e.Detail)
}

// Load reads the configuration from path, or from the default location
// when path is empty. When no file exists at the default location a
// sample is written there and created=true is returned with a nil
// Config; the caller should tell the operator to edit it and exit.
func Load(path string) (cfg *Config, created bool, err error) {
	explicit := path != ""
	if !explicit {
		path, err = DefaultPath()
		if err != nil {
			return nil, false, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, false, err
		}
		if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	default:
		return nil, false, err
	}

	cfg = &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, false, nil
}

// DefaultPath returns the default configuration file location, honoring
// the FFGRAB_CONFIG environment variable.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "ffgrab", "config.toml"), nil
}

func (c *Config) applyDefaults() {
	if c.FFPath == "" {
		c.FFPath = "ffmpeg"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if strings.HasPrefix(c.Output, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			c.Output = filepath.Join(home, c.Output[2:])
		}
	}
}

// Validate ensures the configuration is usable. Any error here is fatal.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return &Error{Kind: MissingCredential, Detail: "username and password must be set"}
	}
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("config: output template must be set")
	}
	if strings.TrimSpace(c.SourceURL) == "" {
		return errors.New("config: source_url must be set")
	}
	if c.DefaultProfile == "" {
		return &Error{Kind: UnknownProfile, Detail: "default_profile must be set"}
	}
	if _, ok := c.Profiles[c.DefaultProfile]; !ok {
		return &Error{Kind: UnknownProfile, Detail: fmt.Sprintf("default profile %q not found", c.DefaultProfile)}
	}
	for name, p := range c.Profiles {
		if _, ok := model.FormatsForQuality(p.Quality); !ok {
			return &Error{Kind: InvalidQuality, Detail: fmt.Sprintf("profile %q: quality %d (valid: %v)", name, p.Quality, model.QualityTiers)}
		}
		if strings.TrimSpace(p.Extension) == "" {
			return fmt.Errorf("config: profile %q: extension must be set", name)
		}
	}
	return nil
}

// ResolveProfile looks up a profile by name, falling back to the
// configured default when name is empty.
func (c *Config) ResolveProfile(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, &Error{Kind: UnknownProfile, Detail: fmt.Sprintf("profile %q not found", name)}
	}
	if _, ok := model.FormatsForQuality(p.Quality); !ok {
		return Profile{}, &Error{Kind: InvalidQuality, Detail: fmt.Sprintf("profile %q: quality %d", name, p.Quality)}
	}
	return p, nil
}
