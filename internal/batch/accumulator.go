package batch

import (
	"sync"

	"github.com/logrelay/logrelay/pkg/collector"
)

// Accumulator groups outgoing events into fixed-size batches. One instance
// is shared by every concurrent sender of a manager, so buffer mutation is
// guarded independently of the delivery critical section.
type Accumulator struct {
	mu     sync.Mutex
	events []*collector.Event
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// AddAndGet appends the event to the pending buffer. When the buffer reaches
// batchSize it is snapshotted, cleared, and the completed batch returned;
// otherwise nil is returned and the event stays buffered. A partial batch is
// never exposed.
func (a *Accumulator) AddAndGet(ev *collector.Event, batchSize int) []*collector.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = append(a.events, ev)
	if len(a.events) < batchSize {
		return nil
	}
	out := make([]*collector.Event, len(a.events))
	copy(out, a.events)
	a.events = a.events[:0]
	return out
}

// Len returns the number of events waiting in the pending buffer.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}
