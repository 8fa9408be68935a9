package relay

import "errors"

// Errors returned by the public API, checkable with errors.Is.
var (
	// ErrNoAgents is returned by New when the agent list is empty.
	ErrNoAgents = errors.New("logrelay: at least one agent is required")

	// ErrNoAgentsAvailable is returned by Deliver when no agent could be
	// connected, so nothing was sent.
	ErrNoAgentsAvailable = errors.New("logrelay: no collector agents are available")

	// ErrExhausted is returned by Deliver when every agent failed after the
	// full retry and failover sweep. The payload of this call is lost;
	// escalation is the caller's responsibility.
	ErrExhausted = errors.New("logrelay: all collector agents exhausted")
)
