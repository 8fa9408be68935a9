package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/logrelay/logrelay/internal/batch"
	"github.com/logrelay/logrelay/internal/ports"
	"github.com/logrelay/logrelay/pkg/collector"
	"github.com/logrelay/logrelay/pkg/log"
)

// Manager delivers records to a set of collector agents. It holds at most
// one live transport, bound to the current agent, and runs the whole
// delivery path under a single critical section.
type Manager struct {
	name      string
	registry  registry
	batchSize int
	delay     time.Duration
	retries   int

	dialer ports.Dialer
	logger log.Logger
	events *batch.Accumulator

	mu        sync.Mutex
	transport ports.Transport
	client    collector.Client
	current   int
}

// New creates a Manager for the configured agent set.
// It returns ErrNoAgents if the agent list is empty. An initial connection
// is attempted eagerly but its failure is only logged; the first Deliver
// will try again.
func New(cfg Config, opts ...Option) (*Manager, error) {
	cfg.SetDefaults()

	reg, err := newRegistry(cfg.Agents)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.dialer == nil {
		o.dialer = grpcDialer{d: collector.NewDialer(collector.WithDialTimeout(cfg.DialTimeout))}
	}

	m := &Manager{
		name:      reg.Name(),
		registry:  reg,
		batchSize: cfg.BatchSize,
		delay:     cfg.Delay,
		retries:   cfg.Retries,
		dialer:    o.dialer,
		logger:    o.logger,
		events:    batch.NewAccumulator(),
	}

	m.mu.Lock()
	if err := m.connectAny(context.Background()); err != nil {
		m.logger.Warn("initial connection failed, will retry on first delivery",
			log.String("manager", m.name), log.Err(err))
	}
	m.mu.Unlock()

	return m, nil
}

// Name returns the composite name derived from the ordered agent list.
func (m *Manager) Name() string { return m.name }

// Current returns the registry index of the agent presently believed
// reachable. Diagnostics only.
func (m *Manager) Current() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Pending returns the number of records buffered in the partial batch.
func (m *Manager) Pending() int { return m.events.Len() }

// BatchSize returns the normalized batch size.
func (m *Manager) BatchSize() int { return m.batchSize }

// Deliver sends one record. With batching enabled the record may instead be
// absorbed into the pending batch, in which case Deliver returns nil without
// touching the network and a later call sends the completed batch.
//
// delay and retries override the configured values; zero selects the
// defaults. A failing current agent is retried up to retries times with
// delay between attempts, then the remaining agents are tried in registry
// order, each with its own bounded retry loop and a fresh connection per
// attempt. The first agent that accepts the payload becomes current.
//
// Deliver blocks the caller; there is no background flush. If the sleep
// between retries is cut short by ctx, the delay is treated as elapsed and
// the loop continues. Only total exhaustion returns an error (wrapping
// ErrExhausted), after which the manager is left disconnected.
func (m *Manager) Deliver(ctx context.Context, rec Record, delay time.Duration, retries int) error {
	if delay <= 0 {
		delay = m.delay
	}
	if retries <= 0 {
		retries = m.retries
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if err := m.connectAny(ctx); err != nil {
			return err
		}
	}

	event := collector.NewEvent(rec.Body, rec.Headers)

	var events []*collector.Event
	if m.batchSize > 1 {
		events = m.events.AddAndGet(event, m.batchSize)
		if events == nil {
			// Absorbed into the pending batch.
			return nil
		}
	}

	primary := m.current
	err := m.sendWithRetry(ctx, m.client, event, events, delay, retries)
	if err == nil {
		return nil
	}
	m.logger.Warn("current agent exhausted",
		log.String("manager", m.name),
		log.String("agent", m.registry.At(primary).Addr()),
		log.Int("retries", retries),
		log.Err(err))

	// Walk the remaining agents once, in registry order, skipping the index
	// that just exhausted its retries.
	for i := 0; i < m.registry.Len(); i++ {
		if i == primary {
			continue
		}
		agent := m.registry.At(i)
		if err := m.failover(ctx, agent, i, event, events, delay, retries); err != nil {
			m.logger.Warn("failover agent exhausted",
				log.String("manager", m.name),
				log.String("agent", agent.Addr()),
				log.Err(err))
			continue
		}
		m.logger.Info("failed over to agent",
			log.String("manager", m.name),
			log.String("agent", agent.Addr()),
			log.Int("index", i))
		return nil
	}

	m.dropTransport()
	return fmt.Errorf("%s: %w", m.name, ErrExhausted)
}

// Release closes the open transport, if any, and clears the client so the
// next Deliver forces a fresh connection. Idempotent; close errors are
// logged, never escalated.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropTransport()
}

// connect binds a client to the agent, reusing the open transport when one
// exists and dialing otherwise. Callers that need a fresh connection must
// drop the transport first.
func (m *Manager) connect(ctx context.Context, agent collector.Agent) (collector.Client, error) {
	if m.transport == nil {
		t, err := m.dialer.Dial(ctx, agent)
		if err != nil {
			return nil, err
		}
		m.transport = t
	}
	return m.transport.Client(), nil
}

// connectAny walks the registry from index 0 and makes the first reachable
// agent current. Returns ErrNoAgentsAvailable when none connect.
func (m *Manager) connectAny(ctx context.Context) error {
	for i := 0; i < m.registry.Len(); i++ {
		agent := m.registry.At(i)
		client, err := m.connect(ctx, agent)
		if err != nil {
			m.logger.Warn("agent unavailable",
				log.String("manager", m.name),
				log.String("agent", agent.Addr()),
				log.Err(err))
			continue
		}
		m.client = client
		m.current = i
		return nil
	}
	m.logger.Error("unable to connect to any agent", log.String("manager", m.name))
	return ErrNoAgentsAvailable
}

// sendWithRetry attempts the payload against one client up to retries times,
// sleeping delay between attempts. The client and its transport are reused
// across attempts.
func (m *Manager) sendWithRetry(ctx context.Context, client collector.Client, event *collector.Event, events []*collector.Event, delay time.Duration, retries int) error {
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			m.sleep(ctx, delay)
		}
		lastErr = m.send(ctx, client, event, events)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// failover runs the bounded retry loop against one candidate agent, forcing
// a fresh connection for every attempt. On success the agent is promoted to
// current under its true registry index.
func (m *Manager) failover(ctx context.Context, agent collector.Agent, index int, event *collector.Event, events []*collector.Event, delay time.Duration, retries int) error {
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			m.sleep(ctx, delay)
		}
		m.dropTransport()
		client, err := m.connect(ctx, agent)
		if err != nil {
			lastErr = err
			continue
		}
		if err := m.send(ctx, client, event, events); err != nil {
			lastErr = err
			continue
		}
		m.client = client
		m.current = index
		return nil
	}
	return lastErr
}

// send issues one append call. A non-OK status is reported as an error so
// retry and failover treat it exactly like a transport failure.
func (m *Manager) send(ctx context.Context, client collector.Client, event *collector.Event, events []*collector.Event) error {
	var (
		status collector.Status
		err    error
	)
	if events != nil {
		status, err = client.AppendBatch(ctx, events)
	} else {
		status, err = client.Append(ctx, event)
	}
	if err != nil {
		return err
	}
	if !status.OK() {
		return fmt.Errorf("collector returned status %s", status)
	}
	return nil
}

// dropTransport closes the open transport, logging close failures, and
// clears the client.
func (m *Manager) dropTransport() {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			m.logger.Warn("transport close failed",
				log.String("manager", m.name), log.Err(err))
		}
		m.transport = nil
	}
	m.client = nil
}

// sleep pauses for the retry delay. A context cancellation ends the pause
// early and is treated as "delay elapsed"; the retry loop carries on.
func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
