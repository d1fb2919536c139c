package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".storescan.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
// Callers decide whether that is fatal based on whether the user asked for
// the file explicitly.
var ErrConfigNotFound = errors.New("configuration file not found")

// Duration wraps time.Duration so YAML values can be written in the
// human form ("3s", "500ms"). Bare integers are taken as nanoseconds,
// matching yaml.v3's native decoding.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// File represents the structure of the .storescan.yaml configuration file.
// Everything in it is optional; unset fields keep their defaults.
type File struct {
	// BaseURL overrides the target site root.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Headers are extra HTTP headers sent with every request, for example
	// an Authorization header for a staging mirror.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie header value to send with every request.
	// Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// DelayMin and DelayMax override the politeness delay bounds.
	DelayMin Duration `yaml:"delayMin,omitempty"`
	DelayMax Duration `yaml:"delayMax,omitempty"`

	// CheckpointInterval overrides the checkpoint save interval.
	CheckpointInterval int `yaml:"checkpointInterval,omitempty"`

	// ImageConcurrency overrides the image download worker count.
	ImageConcurrency int `yaml:"imageConcurrency,omitempty"`

	// IgnoreRobots skips the robots.txt check before the run.
	IgnoreRobots bool `yaml:"ignoreRobots,omitempty"`
}

// LoadConfigFile loads a File from a YAML document at path.
// It returns ErrConfigNotFound when the file does not exist.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. the explicit path, if given
//  2. .storescan.yaml in the current directory
//  3. .storescan.yaml in the user's home directory
//
// Returns the path found, or an empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Apply overlays the file's non-zero values onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if len(f.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			cfg.Headers[k] = v
		}
	}
	if f.Cookie != "" {
		cfg.Cookie = f.Cookie
	}
	if f.DelayMin > 0 {
		cfg.DelayMin = time.Duration(f.DelayMin)
	}
	if f.DelayMax > 0 {
		cfg.DelayMax = time.Duration(f.DelayMax)
	}
	if f.CheckpointInterval > 0 {
		cfg.CheckpointInterval = f.CheckpointInterval
	}
	if f.ImageConcurrency > 0 {
		cfg.ImageConcurrency = f.ImageConcurrency
	}
	if f.IgnoreRobots {
		cfg.IgnoreRobots = true
	}
}
