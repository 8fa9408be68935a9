package relay

import (
	"time"

	"github.com/logrelay/logrelay/pkg/collector"
)

// Defaults applied by SetDefaults and by Deliver when called with zero
// delay or retries.
const (
	// DefaultDelay is the default pause between retry attempts.
	DefaultDelay = 500 * time.Millisecond

	// DefaultRetries is the default number of attempts per agent.
	DefaultRetries = 3
)

// Config holds the construction parameters for a Manager.
type Config struct {
	// Agents is the ordered list of candidate collectors. Must be non-empty.
	// The order is fixed for the lifetime of the manager and defines
	// failover precedence.
	Agents []collector.Agent

	// BatchSize is the number of events per batch. Values <= 1 disable
	// batching and every record is sent individually.
	BatchSize int

	// Delay is the pause between retry attempts against one agent.
	Delay time.Duration

	// Retries is the number of attempts per agent before moving on.
	Retries int

	// DialTimeout bounds each connection attempt.
	DialTimeout time.Duration
}

// SetDefaults normalizes zero or out-of-range values.
func (c *Config) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = collector.DefaultDialTimeout
	}
}
