// Package cliconfig holds the configuration surface of the logrelay CLI:
// defaults, validation, and the flag/env/file precedence rules.
package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/logrelay/logrelay/pkg/collector"
	"github.com/logrelay/logrelay/pkg/relay"
)

// Config holds CLI configuration for logrelay.
type Config struct {
	// Agents is the ordered list of collector endpoints (host:port).
	Agents []string

	// Source is the file to read records from; empty means stdin.
	Source string

	// Headers are extra key=value pairs stamped on every record.
	Headers map[string]string

	BatchSize   int
	Delay       time.Duration
	Retries     int
	DialTimeout time.Duration

	Debug bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BatchSize:   1,
		Delay:       relay.DefaultDelay,
		Retries:     relay.DefaultRetries,
		DialTimeout: collector.DefaultDialTimeout,
		Headers:     map[string]string{},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required (--agents)")
	}
	if _, err := collector.ParseAgents(c.Agents); err != nil {
		return err
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}

// ParsedAgents returns the agent list in wire form.
func (c *Config) ParsedAgents() ([]collector.Agent, error) {
	return collector.ParseAgents(c.Agents)
}

// ParseHeaders parses repeated key=value flags into a header map.
func ParseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, want key=value", p)
		}
		headers[k] = v
	}
	return headers, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
