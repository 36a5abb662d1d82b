// Package config loads integrator settings.
//
// Settings are layered: built-in defaults, then an optional YAML file applied
// as an RFC 7386 merge patch over the defaults, then MODINTEGRATOR_*
// environment variables. The result is validated before use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
	jsonpatch "github.com/evanphx/json-patch"
	"gopkg.in/yaml.v3"

	"github.com/roach88/modintegrator/internal/archive"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MODINTEGRATOR_"

// OutputName is the output archive written into the mods dir when no output
// path is configured. The 999 priority makes the game load it last.
const OutputName = "999-AstroModIntegrator_P.pak"

// DefaultMapPaths are the maps trailheads and biome modifiers are injected
// into.
var DefaultMapPaths = []string{
	"Astro/Content/Maps/Staging_T2.umap",
	"Astro/Content/Maps/Staging_T2_PackedPlanets_Switch.umap",
	"Astro/Content/U32_Expansion/U32_Expansion.umap",
}

// Config is the integrator configuration.
type Config struct {
	GameName      string   `json:"game_name"      env:"GAME_NAME"`
	GameDir       string   `json:"game_dir"       env:"GAME_DIR"`
	ModsDir       string   `json:"mods_dir"       env:"MODS_DIR"`
	Output        string   `json:"output"         env:"OUTPUT"`
	MapPaths      []string `json:"map_paths"      env:"MAP_PATHS" envSeparator:","`
	Compression   string   `json:"compression"    env:"COMPRESSION"`
	DedupeImports bool     `json:"dedupe_imports" env:"DEDUPE_IMPORTS"`
	LogLevel      string   `json:"log_level"      env:"LOG_LEVEL"`
	LogFile       string   `json:"log_file"       env:"LOG_FILE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GameName:    "Astro",
		MapPaths:    slices.Clone(DefaultMapPaths),
		Compression: "zstd",
		LogLevel:    "info",
		LogFile:     "modintegrator_log.txt",
	}
}

// Override adjusts a loaded configuration before it is validated, e.g. from
// command line flags.
type Override func(*Config)

// Load reads the YAML file at path (empty for none) and the process
// environment, then applies overrides.
func Load(path string, overrides ...Override) (*Config, error) {
	return LoadWithEnv(path, nil, overrides...)
}

// LoadWithEnv is Load with an explicit environment; nil means the process
// environment.
func LoadWithEnv(path string, environ map[string]string, overrides ...Override) (*Config, error) {
	doc, err := json.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		doc, err = mergeYAML(doc, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	var cfg Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	for _, o := range overrides {
		o(&cfg)
	}
	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeYAML applies a YAML document to the JSON document doc as a merge
// patch. Keys set to null in the YAML reset the field to its zero value.
func mergeYAML(doc, data []byte) ([]byte, error) {
	var overlay map[string]any
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(overlay) == 0 {
		return doc, nil
	}
	patch, err := json.Marshal(overlay)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("merge yaml: %w", err)
	}
	return merged, nil
}

func (c *Config) resolve() {
	if c.Output == "" && c.ModsDir != "" {
		c.Output = filepath.Join(c.ModsDir, OutputName)
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.GameName == "" {
		errs = append(errs, errors.New("game_name is required"))
	}
	if c.GameDir == "" {
		errs = append(errs, errors.New("game_dir is required"))
	}
	if c.ModsDir == "" {
		errs = append(errs, errors.New("mods_dir is required"))
	}
	if len(c.MapPaths) == 0 {
		errs = append(errs, errors.New("map_paths must name at least one map"))
	}
	for i, p := range c.MapPaths {
		if p == "" {
			errs = append(errs, fmt.Errorf("map_paths[%d] is empty", i))
		}
	}
	if _, err := archive.ParseCompressionTag(c.Compression); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// CompressionTag returns the parsed output compression.
func (c *Config) CompressionTag() archive.CompressionTag {
	tag, _ := archive.ParseCompressionTag(c.Compression)
	return tag
}
