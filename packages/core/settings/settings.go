// Package settings loads the weft tool's own configuration file, which
// is unrelated to the configuration files weft parses.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Settings holds tool-level defaults. Flags override anything set here.
type Settings struct {
	Format         string            `yaml:"format,omitempty"`
	NoColor        *bool             `yaml:"noColor,omitempty"`
	Safe           *bool             `yaml:"safe,omitempty"`
	MaxNesting     int               `yaml:"maxNesting,omitempty"`
	IncludePattern string            `yaml:"includePattern,omitempty"`
	FetchRate      float64           `yaml:"fetchRate,omitempty"`
	EnvFile        string            `yaml:"envFile,omitempty"`
	Properties     map[string]string `yaml:"properties,omitempty"`
	SnapshotDB     string            `yaml:"snapshotDb,omitempty"`
	Extensions     []string          `yaml:"extensions,omitempty"`
}

// SettingsFilenames are the discovery candidates, in priority order.
var SettingsFilenames = []string{
	".weft.yaml",
	"weft.yaml",
	".weftrc.yaml",
}

func Default() *Settings {
	return &Settings{
		Format:     "console",
		SnapshotDB: filepath.Join(".weft", "snapshots.db"),
		Extensions: []string{".conf", ".weft"},
	}
}

func boolValue(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func (s *Settings) GetNoColor() bool {
	return boolValue(s.NoColor, false)
}

func (s *Settings) GetSafe() bool {
	return boolValue(s.Safe, false)
}

// Load reads settings from an explicit path, or discovers them in the
// current directory when path is empty.
func Load(path string) (*Settings, error) {
	if path != "" {
		return loadFromFile(path)
	}
	return FindAndLoad(".")
}

// FindAndLoad tries each candidate filename in dir, falling back to
// defaults when none exists.
func FindAndLoad(dir string) (*Settings, error) {
	for _, name := range SettingsFilenames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return loadFromFile(path)
		}
	}
	return Default(), nil
}

func loadFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Validate collects every problem instead of stopping at the first.
func (s *Settings) Validate() error {
	var errs []error
	switch s.Format {
	case "", "console", "json", "junit", "tap":
	default:
		errs = append(errs, fmt.Errorf("format %q is not one of console, json, junit, tap", s.Format))
	}
	if s.MaxNesting < 0 {
		errs = append(errs, fmt.Errorf("maxNesting must not be negative"))
	}
	if s.FetchRate < 0 {
		errs = append(errs, fmt.Errorf("fetchRate must not be negative"))
	}
	if s.IncludePattern != "" {
		re, err := regexp.Compile(s.IncludePattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("includePattern: %w", err))
		} else if re.NumSubexp() != 1 {
			errs = append(errs, fmt.Errorf("includePattern must have exactly one capture group"))
		}
	}
	return errors.Join(errs...)
}

// Merge overlays other onto s, other taking precedence where set.
func (s *Settings) Merge(other *Settings) *Settings {
	if other == nil {
		return s
	}
	result := *s

	if other.Format != "" {
		result.Format = other.Format
	}
	if other.MaxNesting > 0 {
		result.MaxNesting = other.MaxNesting
	}
	if other.IncludePattern != "" {
		result.IncludePattern = other.IncludePattern
	}
	if other.FetchRate > 0 {
		result.FetchRate = other.FetchRate
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.SnapshotDB != "" {
		result.SnapshotDB = other.SnapshotDB
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Safe != nil {
		result.Safe = other.Safe
	}
	if len(other.Properties) > 0 {
		merged := make(map[string]string, len(result.Properties)+len(other.Properties))
		for k, v := range result.Properties {
			merged[k] = v
		}
		for k, v := range other.Properties {
			merged[k] = v
		}
		result.Properties = merged
	}
	if len(other.Extensions) > 0 {
		result.Extensions = other.Extensions
	}
	return &result
}

// Save writes the settings as YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
