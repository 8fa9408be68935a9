package cliconfig

import (
	"os"
	"strings"
)

// ApplyEnvConfig applies configuration from environment variables (LOGRELAY_*).
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if agents := os.Getenv("LOGRELAY_AGENTS"); agents != "" {
		s.setStrings("agents", splitList(agents), &cfg.Agents)
	}
	s.setString("source", os.Getenv("LOGRELAY_SOURCE"), &cfg.Source)

	if err := s.setIntFromString("batch-size", os.Getenv("LOGRELAY_BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("retries", os.Getenv("LOGRELAY_RETRIES"), &cfg.Retries); err != nil {
		return err
	}
	if err := s.setDuration("delay", os.Getenv("LOGRELAY_DELAY"), &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", os.Getenv("LOGRELAY_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}

	s.setBoolFromString("debug", os.Getenv("LOGRELAY_DEBUG"), &cfg.Debug)

	return nil
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
