package config

import "time"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		FilenamePrefix:    "test",
		OutputDir:         ".",
		Listen:            ":8080",
		Dialect:           "modern",
		MinWait:           1 * time.Second,
		MaxWait:           3 * time.Second,
		Hosts:             nil,
		Exclude:           nil,
		Journal:           "",
		StreamLargeBodies: 5 * 1024 * 1024, // 5MB
		Insecure:          boolPtr(false),
		Verbose:           boolPtr(false),
		NoColor:           boolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.FilenamePrefix == defaults.FilenamePrefix &&
		c.OutputDir == defaults.OutputDir &&
		c.Listen == defaults.Listen &&
		c.Dialect == defaults.Dialect &&
		c.MinWait == defaults.MinWait &&
		c.MaxWait == defaults.MaxWait &&
		len(c.Hosts) == 0 &&
		len(c.Exclude) == 0 &&
		c.Journal == defaults.Journal &&
		c.StreamLargeBodies == defaults.StreamLargeBodies &&
		c.GetInsecure() == defaults.GetInsecure() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
