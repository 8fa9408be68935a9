package ports

import (
	"context"

	"github.com/logrelay/logrelay/pkg/collector"
)

// Transport is one live connection to a collector agent. A manager holds at
// most one open Transport at a time.
type Transport interface {
	// Client binds an RPC client to the transport.
	Client() collector.Client

	// Close tears down the connection. Safe to call once.
	Close() error
}

// Dialer opens transports to collector agents.
type Dialer interface {
	// Dial connects to the agent, blocking until the transport is usable
	// or the dialer's timeout elapses. Returns an error for unreachable
	// agents; the caller treats that as "try the next agent".
	Dial(ctx context.Context, agent collector.Agent) (Transport, error)
}
