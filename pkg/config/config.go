// Package config loads the flowsankey configuration file.
//
// The file is TOML, found at $XDG_CONFIG_HOME/flowsankey/config.toml (or
// ~/.config/flowsankey/config.toml) unless a path is given explicitly. A
// missing file is not an error: every field has a default. Values are
// validated after defaults are applied, and command-line flags override
// whatever the file sets.
//
//	[render]
//	formats = ["svg", "png"]
//	scale = 2
//	language = "ru"
//
//	[store]
//	backend = "sqlite"
//	path = "~/.local/share/flowsankey/state.db"
//
//	[server]
//	addr = ":8080"
//	cors_origins = ["https://reports.example.com"]
//
//	[vocabulary]
//	income = ["umsatz"]
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
)

const appName = "flowsankey"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the complete configuration.
type Config struct {
	Render     Render          `toml:"render"`
	Store      Store           `toml:"store"`
	Server     Server          `toml:"server"`
	Vocabulary flow.Vocabulary `toml:"vocabulary"`

	// Path is the file the configuration was read from, empty when
	// defaults were used.
	Path string `toml:"-"`
}

// Render configures the render pipeline.
type Render struct {
	Formats  []string `toml:"formats" validate:"dive,oneof=svg png json dot"`
	Scale    float64  `toml:"scale" validate:"gt=0,lte=4"`
	Language string   `toml:"language" validate:"required,bcp47_language_tag"`
	Output   string   `toml:"output"`
	NoCache  bool     `toml:"no_cache"`
}

// Store configures where rows and settings are persisted.
type Store struct {
	Backend string `toml:"backend" validate:"oneof=file sqlite memory"`
	// Path is a directory for the file backend and a database file for
	// sqlite. Empty uses the platform default.
	Path string `toml:"path"`
}

// Server configures the HTTP render service.
type Server struct {
	Addr            string   `toml:"addr" validate:"required,hostname_port"`
	CORSOrigins     []string `toml:"cors_origins"`
	CacheEntries    int      `toml:"cache_entries" validate:"gte=0,lte=100000"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `toml:"max_body_bytes" validate:"gt=0"`
}

// Duration is a time.Duration read from a TOML string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Render: Render{
			Formats:  []string{"svg"},
			Scale:    2,
			Language: "ru",
		},
		Store: Store{Backend: BackendFile},
		Server: Server{
			Addr:            ":8080",
			CacheEntries:    256,
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    4 << 20,
		},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Validate checks every section.
func (c Config) Validate() error {
	return ferrors.FromValidation(ferrors.ErrCodeInvalidConfig, validate.Struct(c))
}

// ValidateServer checks a server section after flag overrides.
func ValidateServer(s Server) error {
	return ferrors.FromValidation(ferrors.ErrCodeInvalidConfig, validate.Struct(s))
}

// DefaultPath returns the XDG location of the configuration file.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration at path. An empty path uses DefaultPath and
// tolerates a missing file; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Default(), nil
	case errors.Is(err, fs.ErrNotExist):
		return Config{}, ferrors.New(ferrors.ErrCodeFileNotFound, "config file not found: %s", path)
	case err != nil:
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML onto the defaults and validates the result. Unknown
// keys are rejected so typos do not pass silently.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Render.Output = expandHome(cfg.Render.Output)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes c as TOML.
func (c Config) Encode() ([]byte, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
