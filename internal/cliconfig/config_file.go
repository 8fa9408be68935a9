package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Agents      []string          `toml:"agents"`
	Source      string            `toml:"source"`
	Headers     map[string]string `toml:"headers"`
	BatchSize   int               `toml:"batch_size"`
	Delay       string            `toml:"delay"`
	Retries     int               `toml:"retries"`
	DialTimeout string            `toml:"dial_timeout"`
	Debug       *bool             `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logrelay/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logrelay", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("agents", fc.Agents, &cfg.Agents)
	s.setString("source", fc.Source, &cfg.Source)
	s.setInt("batch-size", fc.BatchSize, &cfg.BatchSize)
	s.setInt("retries", fc.Retries, &cfg.Retries)

	if err := s.setDuration("delay", fc.Delay, &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}

	s.setBool("debug", fc.Debug, &cfg.Debug)

	// File headers fill in under flag-provided ones.
	for k, v := range fc.Headers {
		if _, ok := cfg.Headers[k]; !ok {
			cfg.Headers[k] = v
		}
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
