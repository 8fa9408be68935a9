package batch

import (
	"fmt"
	"sync"
	"testing"

	"github.com/logrelay/logrelay/pkg/collector"
)

func TestAddAndGetReturnsOnlyFullBatches(t *testing.T) {
	a := NewAccumulator()

	for i := 0; i < 4; i++ {
		ev := collector.NewEvent([]byte{byte(i)}, nil)
		if got := a.AddAndGet(ev, 5); got != nil {
			t.Fatalf("call %d returned a batch of %d before the threshold", i, len(got))
		}
	}
	batch := a.AddAndGet(collector.NewEvent([]byte{4}, nil), 5)
	if len(batch) != 5 {
		t.Fatalf("expected a full batch of 5, got %d", len(batch))
	}
	if a.Len() != 0 {
		t.Fatalf("buffer not cleared after snapshot, len = %d", a.Len())
	}
	for i, ev := range batch {
		if ev.Body[0] != byte(i) {
			t.Fatalf("batch order broken at %d", i)
		}
	}
}

func TestSnapshotIsIndependentOfBuffer(t *testing.T) {
	a := NewAccumulator()
	a.AddAndGet(collector.NewEvent([]byte("a"), nil), 2)
	batch := a.AddAndGet(collector.NewEvent([]byte("b"), nil), 2)
	if len(batch) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(batch))
	}

	// Refilling the buffer must not disturb the returned snapshot.
	a.AddAndGet(collector.NewEvent([]byte("c"), nil), 2)
	if string(batch[0].Body) != "a" || string(batch[1].Body) != "b" {
		t.Fatal("snapshot mutated by later adds")
	}
}

func TestConcurrentAdds(t *testing.T) {
	a := NewAccumulator()
	const (
		workers   = 8
		perWorker = 100
		batchSize = 10
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		batches int
		events  int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ev := collector.NewEvent([]byte(fmt.Sprintf("%d-%d", w, i)), nil)
				if b := a.AddAndGet(ev, batchSize); b != nil {
					mu.Lock()
					batches++
					events += len(b)
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	want := workers * perWorker / batchSize
	if batches != want {
		t.Fatalf("got %d batches, want %d", batches, want)
	}
	if events+a.Len() != workers*perWorker {
		t.Fatalf("events lost: delivered %d, pending %d", events, a.Len())
	}
}
