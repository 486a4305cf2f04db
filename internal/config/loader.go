package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pcaplens"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .pcaplens configuration file.
// Flags always override file values.
type File struct {
	// Provider selects the model endpoint ("anthropic" or "ollama").
	Provider string `yaml:"provider,omitempty"`

	// Model is the model identifier for the selected provider.
	Model string `yaml:"model,omitempty"`

	// APIKey authenticates against the Anthropic API. The
	// ANTHROPIC_API_KEY environment variable takes precedence.
	APIKey string `yaml:"apiKey,omitempty"`

	// MaxFileSize is the input size ceiling in bytes.
	MaxFileSize int64 `yaml:"maxFileSize,omitempty"`

	// SummaryBudget bounds the summary characters sent to the model.
	SummaryBudget int `yaml:"summaryBudget,omitempty"`

	// Blocklist holds indicator values labeled HIGH during enrichment.
	Blocklist []string `yaml:"blocklist,omitempty"`

	// TsharkPath overrides the dissection tool executable.
	TsharkPath string `yaml:"tsharkPath,omitempty"`
}

// LoadConfigFile loads settings from a YAML file. If the file does not
// exist, it returns ErrConfigNotFound; callers decide whether that is
// fatal based on whether the path was explicitly specified.
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

// Apply copies the file's non-zero settings onto the config. Values the
// user already set via flags are expected to be re-applied by the caller
// after this merge, so the precedence is file < flags.
func (cf *File) Apply(cfg *Config) {
	if cf.Provider != "" {
		cfg.Provider = cf.Provider
	}
	if cf.Model != "" {
		cfg.Model = cf.Model
	}
	if cf.APIKey != "" {
		cfg.APIKey = cf.APIKey
	}
	if cf.MaxFileSize > 0 {
		cfg.MaxFileSize = cf.MaxFileSize
	}
	if cf.SummaryBudget > 0 {
		cfg.SummaryBudget = cf.SummaryBudget
	}
	if len(cf.Blocklist) > 0 {
		cfg.Blocklist = append(cfg.Blocklist, cf.Blocklist...)
	}
	if cf.TsharkPath != "" {
		cfg.TsharkPath = cf.TsharkPath
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .pcaplens in the current directory
// 3. Look for .pcaplens in the user's home directory
//
// Returns the path to the configuration file if found, or empty string
// if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
