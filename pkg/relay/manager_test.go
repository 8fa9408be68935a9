package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/logrelay/logrelay/internal/ports"
	"github.com/logrelay/logrelay/pkg/collector"
)

// fakeAgent scripts the behavior of one collector endpoint.
type fakeAgent struct {
	mu          sync.Mutex
	unreachable bool
	failSends   int  // number of leading send attempts to fail; -1 = all
	statusFail  bool // fail with a non-OK status instead of an error

	dials        int
	closes       int
	sendAttempts int
	singles      []*collector.Event
	batches      [][]*collector.Event
}

func (a *fakeAgent) send(ev *collector.Event, evs []*collector.Event) (collector.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendAttempts++
	if a.failSends == -1 || a.sendAttempts <= a.failSends {
		if a.statusFail {
			return collector.StatusFailed, nil
		}
		return collector.StatusUnknown, errors.New("rpc failure")
	}
	if evs != nil {
		a.batches = append(a.batches, evs)
	} else {
		a.singles = append(a.singles, ev)
	}
	return collector.StatusOK, nil
}

// fakeDialer hands out transports to fake agents and records dial order.
type fakeDialer struct {
	mu        sync.Mutex
	agents    map[string]*fakeAgent
	dialOrder []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{agents: make(map[string]*fakeAgent)}
}

func (d *fakeDialer) agent(addr string) *fakeAgent {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.agents[addr]
	if !ok {
		a = &fakeAgent{}
		d.agents[addr] = a
	}
	return a
}

func (d *fakeDialer) Dial(ctx context.Context, agent collector.Agent) (ports.Transport, error) {
	a := d.agent(agent.Addr())
	d.mu.Lock()
	d.dialOrder = append(d.dialOrder, agent.Addr())
	d.mu.Unlock()
	a.mu.Lock()
	a.dials++
	unreachable := a.unreachable
	a.mu.Unlock()
	if unreachable {
		return nil, errors.New("connection refused")
	}
	return &fakeTransport{a: a}, nil
}

type fakeTransport struct {
	a *fakeAgent
}

func (t *fakeTransport) Client() collector.Client { return &fakeClient{a: t.a} }

func (t *fakeTransport) Close() error {
	t.a.mu.Lock()
	t.a.closes++
	t.a.mu.Unlock()
	return nil
}

type fakeClient struct {
	a *fakeAgent
}

func (c *fakeClient) Append(ctx context.Context, ev *collector.Event) (collector.Status, error) {
	return c.a.send(ev, nil)
}

func (c *fakeClient) AppendBatch(ctx context.Context, evs []*collector.Event) (collector.Status, error) {
	return c.a.send(nil, evs)
}

func testAgents(n int) []collector.Agent {
	agents := make([]collector.Agent, n)
	for i := range agents {
		agents[i] = collector.Agent{Host: fmt.Sprintf("agent%d", i), Port: 4141}
	}
	return agents
}

func newTestManager(t *testing.T, d *fakeDialer, cfg Config) *Manager {
	t.Helper()
	if cfg.Delay == 0 {
		cfg.Delay = time.Millisecond
	}
	m, err := New(cfg, WithDialer(d))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return m
}

func TestNewRequiresAgents(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrNoAgents) {
		t.Fatalf("expected ErrNoAgents, got %v", err)
	}
}

func TestBatchSizeNormalized(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(1)
	m := newTestManager(t, d, Config{Agents: agents, BatchSize: -3})

	if m.BatchSize() != 1 {
		t.Fatalf("expected batch size 1, got %d", m.BatchSize())
	}
	if err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	a := d.agent(agents[0].Addr())
	if len(a.singles) != 1 || len(a.batches) != 0 {
		t.Fatalf("expected one single send and no batches, got %d singles %d batches", len(a.singles), len(a.batches))
	}
}

func TestBatchingFlushesEveryNth(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(1)
	m := newTestManager(t, d, Config{Agents: agents, BatchSize: 3})

	for i := 0; i < 7; i++ {
		rec := Record{Body: []byte(fmt.Sprintf("event-%d", i))}
		if err := m.Deliver(context.Background(), rec, 0, 0); err != nil {
			t.Fatalf("Deliver %d returned error: %v", i, err)
		}
	}

	a := d.agent(agents[0].Addr())
	if len(a.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(a.batches))
	}
	for i, b := range a.batches {
		if len(b) != 3 {
			t.Fatalf("batch %d has %d events, want 3", i, len(b))
		}
	}
	if len(a.singles) != 0 {
		t.Fatalf("expected no single sends, got %d", len(a.singles))
	}
	if m.Pending() != 1 {
		t.Fatalf("expected 1 pending event, got %d", m.Pending())
	}
	if got := string(a.batches[0][1].Body); got != "event-1" {
		t.Fatalf("batch order broken: got %q at position 1", got)
	}
}

func TestConnectAnySelectsFirstReachable(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(3)
	d.agent(agents[0].Addr()).unreachable = true
	d.agent(agents[1].Addr()).unreachable = true

	m := newTestManager(t, d, Config{Agents: agents})
	if err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if m.Current() != 2 {
		t.Fatalf("expected current agent 2, got %d", m.Current())
	}
	want := []string{agents[0].Addr(), agents[1].Addr(), agents[2].Addr()}
	for i, addr := range want {
		if d.dialOrder[i] != addr {
			t.Fatalf("dial order[%d] = %s, want %s", i, d.dialOrder[i], addr)
		}
	}
}

func TestPrimaryRetriedBeforeFailover(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(2)
	d.agent(agents[0].Addr()).failSends = -1

	m := newTestManager(t, d, Config{Agents: agents, Retries: 3, Delay: time.Millisecond})
	if err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	a0 := d.agent(agents[0].Addr())
	a1 := d.agent(agents[1].Addr())
	if a0.sendAttempts != 3 {
		t.Fatalf("primary attempted %d times, want 3", a0.sendAttempts)
	}
	if a1.sendAttempts != 1 {
		t.Fatalf("failover agent attempted %d times, want 1", a1.sendAttempts)
	}
	if m.Current() != 1 {
		t.Fatalf("expected current agent 1 after failover, got %d", m.Current())
	}
	if a0.closes == 0 {
		t.Fatal("primary transport was never closed during failover")
	}
}

func TestRetryDelayBetweenAttempts(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(1)
	d.agent(agents[0].Addr()).failSends = -1

	delay := 20 * time.Millisecond
	m := newTestManager(t, d, Config{Agents: agents, Retries: 3, Delay: delay})

	start := time.Now()
	err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	// 3 attempts means 2 inter-retry sleeps.
	if elapsed < 2*delay {
		t.Fatalf("elapsed %v, want at least %v", elapsed, 2*delay)
	}
}

func TestDoneContextCutsRetryDelayNotAttempts(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(2)
	d.agent(agents[0].Addr()).failSends = -1
	d.agent(agents[1].Addr()).failSends = -1

	delay := time.Second
	m := newTestManager(t, d, Config{Agents: agents, Retries: 3, Delay: delay})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := m.Deliver(ctx, Record{Body: []byte("x")}, 0, 0)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	// A done context ends each inter-retry sleep immediately; the attempts
	// themselves still run, on the primary and on the failover sweep alike.
	if got := d.agent(agents[0].Addr()).sendAttempts; got != 3 {
		t.Fatalf("primary attempted %d times, want 3", got)
	}
	if got := d.agent(agents[1].Addr()).sendAttempts; got != 3 {
		t.Fatalf("failover agent attempted %d times, want 3", got)
	}
	if elapsed >= delay {
		t.Fatalf("elapsed %v, want well under one %v delay", elapsed, delay)
	}
}

func TestExhaustionAttemptCountAndDisconnect(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(3)
	for _, a := range agents {
		d.agent(a.Addr()).failSends = -1
	}

	m := newTestManager(t, d, Config{Agents: agents, Retries: 2, Delay: time.Millisecond})
	err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	total := 0
	for _, a := range agents {
		total += d.agent(a.Addr()).sendAttempts
	}
	if total != 6 {
		t.Fatalf("total send attempts = %d, want agents*retries = 6", total)
	}
	if m.client != nil || m.transport != nil {
		t.Fatal("manager should be disconnected after exhaustion")
	}

	// Recovery: the next Deliver must run a fresh connectAny.
	for _, a := range agents {
		ag := d.agent(a.Addr())
		ag.mu.Lock()
		ag.failSends = 0
		ag.sendAttempts = 0
		ag.mu.Unlock()
	}
	if err := m.Deliver(context.Background(), Record{Body: []byte("y")}, 0, 0); err != nil {
		t.Fatalf("Deliver after exhaustion returned error: %v", err)
	}
	if m.Current() != 0 {
		t.Fatalf("expected reconnect to agent 0, got %d", m.Current())
	}
}

func TestDeliverAfterReleaseReconnects(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(1)
	m := newTestManager(t, d, Config{Agents: agents})

	if err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	m.Release()
	m.Release() // idempotent

	a := d.agent(agents[0].Addr())
	if a.closes != 1 {
		t.Fatalf("transport closed %d times, want 1", a.closes)
	}
	dialsBefore := a.dials
	if err := m.Deliver(context.Background(), Record{Body: []byte("y")}, 0, 0); err != nil {
		t.Fatalf("Deliver after Release returned error: %v", err)
	}
	if a.dials != dialsBefore+1 {
		t.Fatalf("expected a fresh dial after Release, dials went %d -> %d", dialsBefore, a.dials)
	}
}

func TestFailoverSkipsExhaustedIndexAndKeepsOrder(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(3)
	// Agent 0 never connects, so agent 1 becomes the initial current agent.
	d.agent(agents[0].Addr()).unreachable = true
	d.agent(agents[1].Addr()).failSends = -1

	m := newTestManager(t, d, Config{Agents: agents, Retries: 2, Delay: time.Millisecond})
	if m.Current() != 1 {
		t.Fatalf("expected initial current agent 1, got %d", m.Current())
	}

	d.mu.Lock()
	d.dialOrder = nil
	d.mu.Unlock()

	if err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if m.Current() != 2 {
		t.Fatalf("expected current agent 2, got %d", m.Current())
	}
	// Agent 1 must not be re-dialed during this call's failover sweep, and
	// agent 0 must be tried before agent 2.
	a1 := agents[1].Addr()
	seen0 := false
	for _, addr := range d.dialOrder {
		if addr == a1 {
			t.Fatalf("failover re-dialed the exhausted agent %s", a1)
		}
		if addr == agents[0].Addr() {
			seen0 = true
		}
		if addr == agents[2].Addr() && !seen0 {
			t.Fatal("failover visited agent 2 before agent 0")
		}
	}
	dials0 := 0
	for _, addr := range d.dialOrder {
		if addr == agents[0].Addr() {
			dials0++
		}
	}
	if dials0 != 2 {
		t.Fatalf("unreachable agent dialed %d times during failover, want retries=2", dials0)
	}
}

func TestNonOKStatusDrivesFailover(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(2)
	a0 := d.agent(agents[0].Addr())
	a0.failSends = -1
	a0.statusFail = true

	m := newTestManager(t, d, Config{Agents: agents, Retries: 2, Delay: time.Millisecond})
	if err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if a0.sendAttempts != 2 {
		t.Fatalf("rejected agent attempted %d times, want 2", a0.sendAttempts)
	}
	if m.Current() != 1 {
		t.Fatalf("expected failover to agent 1, got %d", m.Current())
	}
}

func TestNoAgentsAvailable(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(2)
	d.agent(agents[0].Addr()).unreachable = true
	d.agent(agents[1].Addr()).unreachable = true

	m := newTestManager(t, d, Config{Agents: agents, BatchSize: 5})
	err := m.Deliver(context.Background(), Record{Body: []byte("x")}, 0, 0)
	if !errors.Is(err, ErrNoAgentsAvailable) {
		t.Fatalf("expected ErrNoAgentsAvailable, got %v", err)
	}
	// Nothing was sent and nothing was buffered.
	if m.Pending() != 0 {
		t.Fatalf("record buffered despite connect failure, pending = %d", m.Pending())
	}
}

func TestConcurrentDeliver(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(1)
	m := newTestManager(t, d, Config{Agents: agents})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := Record{Body: []byte(fmt.Sprintf("event-%d", i))}
			if err := m.Deliver(context.Background(), rec, 0, 0); err != nil {
				t.Errorf("Deliver %d returned error: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	a := d.agent(agents[0].Addr())
	if len(a.singles) != 10 {
		t.Fatalf("expected 10 delivered events, got %d", len(a.singles))
	}
}

func TestRecordCopiedIntoEvent(t *testing.T) {
	d := newFakeDialer()
	agents := testAgents(1)
	m := newTestManager(t, d, Config{Agents: agents})

	body := []byte("original")
	headers := map[string]string{"host": "node-1"}
	if err := m.Deliver(context.Background(), Record{Body: body, Headers: headers}, 0, 0); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	body[0] = 'X'
	headers["host"] = "mutated"

	a := d.agent(agents[0].Addr())
	ev := a.singles[0]
	if string(ev.Body) != "original" {
		t.Fatalf("event body aliases caller buffer: %q", ev.Body)
	}
	if ev.Headers["host"] != "node-1" {
		t.Fatalf("event headers alias caller map: %q", ev.Headers["host"])
	}
}
