package collector

import (
	"fmt"
	"net"
	"strconv"
)

// Agent identifies one candidate collector endpoint. Immutable.
type Agent struct {
	Host string
	Port int
}

// Addr returns the agent's dial address in host:port form.
func (a Agent) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ParseAgent parses a "host:port" string into an Agent.
func ParseAgent(s string) (Agent, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Agent{}, fmt.Errorf("parse agent %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Agent{}, fmt.Errorf("parse agent %q: invalid port %q", s, portStr)
	}
	return Agent{Host: host, Port: port}, nil
}

// ParseAgents parses a list of "host:port" strings, preserving order.
func ParseAgents(specs []string) ([]Agent, error) {
	agents := make([]Agent, 0, len(specs))
	for _, s := range specs {
		a, err := ParseAgent(s)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}
