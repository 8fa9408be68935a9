package relay

import (
	"strings"

	"github.com/logrelay/logrelay/pkg/collector"
)

// registry is the ordered, immutable list of candidate collector agents.
// It defines both the initial connection target and the failover order.
type registry struct {
	agents []collector.Agent
}

func newRegistry(agents []collector.Agent) (registry, error) {
	if len(agents) == 0 {
		return registry{}, ErrNoAgents
	}
	return registry{agents: append([]collector.Agent(nil), agents...)}, nil
}

func (r registry) Len() int { return len(r.agents) }

func (r registry) At(i int) collector.Agent { return r.agents[i] }

// Name derives the composite manager name from the ordered agent list,
// e.g. "Relay[host1:4141,host2:4141]". Two managers share a name exactly
// when they target the same agents in the same order.
func (r registry) Name() string {
	var sb strings.Builder
	sb.WriteString("Relay[")
	for i, a := range r.agents {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(a.Addr())
	}
	sb.WriteString("]")
	return sb.String()
}
