package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the locustgen configuration
type Config struct {
	FilenamePrefix    string        `yaml:"filenamePrefix,omitempty"`
	OutputDir         string        `yaml:"outputDir,omitempty"`
	Listen            string        `yaml:"listen,omitempty"`
	Dialect           string        `yaml:"dialect,omitempty"`
	MinWait           time.Duration `yaml:"minWait,omitempty"`
	MaxWait           time.Duration `yaml:"maxWait,omitempty"`
	Hosts             []string      `yaml:"hosts,omitempty"`   // Only capture these hosts
	Exclude           []string      `yaml:"exclude,omitempty"` // Path fragments to skip
	Journal           string        `yaml:"journal,omitempty"` // SQLite file recording every flow
	StreamLargeBodies int64         `yaml:"streamLargeBodies,omitempty"`
	Insecure          *bool         `yaml:"insecure,omitempty"` // Skip upstream TLS verification
	Verbose           *bool         `yaml:"verbose,omitempty"`
	NoColor           *bool         `yaml:"noColor,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetInsecure returns the insecure setting, defaulting to false
func (c *Config) GetInsecure() bool {
	return getBool(c.Insecure, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".locustgen.yaml",
	".locustgen.yml",
	"locustgen.yaml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FilenamePrefix) == "" {
		return fmt.Errorf("filenamePrefix must not be empty")
	}
	switch strings.ToLower(c.Dialect) {
	case "", "modern", "legacy":
	default:
		return fmt.Errorf("dialect must be modern or legacy, got %q", c.Dialect)
	}
	if c.MinWait < 0 || c.MaxWait < 0 {
		return fmt.Errorf("wait times must not be negative")
	}
	if c.MaxWait > 0 && c.MinWait > c.MaxWait {
		return fmt.Errorf("minWait (%s) exceeds maxWait (%s)", c.MinWait, c.MaxWait)
	}
	if c.StreamLargeBodies < 0 {
		return fmt.Errorf("streamLargeBodies must not be negative")
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.FilenamePrefix != "" {
		result.FilenamePrefix = other.FilenamePrefix
	}
	if other.OutputDir != "" {
		result.OutputDir = other.OutputDir
	}
	if other.Listen != "" {
		result.Listen = other.Listen
	}
	if other.Dialect != "" {
		result.Dialect = other.Dialect
	}
	if other.MinWait > 0 {
		result.MinWait = other.MinWait
	}
	if other.MaxWait > 0 {
		result.MaxWait = other.MaxWait
	}
	if other.Journal != "" {
		result.Journal = other.Journal
	}
	if other.StreamLargeBodies > 0 {
		result.StreamLargeBodies = other.StreamLargeBodies
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Insecure != nil {
		result.Insecure = other.Insecure
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Hosts) > 0 {
		result.Hosts = other.Hosts
	}
	if len(other.Exclude) > 0 {
		result.Exclude = other.Exclude
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
