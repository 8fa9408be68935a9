// Package logrelay delivers log records to remote collector agents.
//
// Example usage:
//
//	agents, err := logrelay.ParseAgents([]string{"collector1:4141", "collector2:4141"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr, err := logrelay.New(logrelay.Config{Agents: agents, BatchSize: 50})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Release()
//	err = mgr.Deliver(ctx, logrelay.Record{Body: []byte("hello")}, 0, 0)
package logrelay

import (
	"github.com/logrelay/logrelay/pkg/collector"
	"github.com/logrelay/logrelay/pkg/relay"
)

// Agent identifies a single collector endpoint.
type Agent = collector.Agent

// Record is one log record handed to a Manager for delivery.
type Record = relay.Record

// Config holds the delivery settings for a Manager.
// Zero fields are filled with defaults by New.
type Config = relay.Config

// Manager owns the connection to the current agent and drives batching,
// retry, and failover for every delivered record.
type Manager = relay.Manager

// Option customizes a Manager at construction.
type Option = relay.Option

// New creates a Manager for the given configuration.
func New(cfg Config, opts ...Option) (*Manager, error) {
	return relay.New(cfg, opts...)
}

// ParseAgent parses a single "host:port" endpoint.
func ParseAgent(s string) (Agent, error) {
	return collector.ParseAgent(s)
}

// ParseAgents parses an ordered list of "host:port" endpoints.
func ParseAgents(specs []string) ([]Agent, error) {
	return collector.ParseAgents(specs)
}
