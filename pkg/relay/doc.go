// Package relay delivers log records to remote collector agents with
// batching, bounded per-agent retry, and ordered failover.
//
// A Manager owns exactly one live transport at a time, bound to the
// "current" agent. Deliver sends a record (or the batch it completes) to the
// current agent, retrying a bounded number of times with a fixed delay
// between attempts; when the current agent is exhausted it walks the
// remaining agents in their configured order, promoting the first one that
// accepts the payload. Only total exhaustion surfaces as an error.
//
//	cfg := relay.Config{
//	    Agents:    agents,
//	    BatchSize: 50,
//	}
//	m, err := relay.New(cfg, relay.WithLogger(logger))
//	if err != nil { ... }
//	defer m.Release()
//
//	err = m.Deliver(ctx, relay.Record{Body: line, Headers: hdrs}, 0, 0)
//
// Managers are safe for concurrent use; the whole delivery path runs in a
// single critical section per manager, so successful sends preserve caller
// submission order.
package relay
