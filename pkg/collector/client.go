package collector

import "context"

// Client issues append calls against one collector agent.
// Implementations do not retry; retry and failover policy belongs to the
// delivery layer.
type Client interface {
	// Append delivers a single event and returns the collector's status.
	Append(ctx context.Context, ev *Event) (Status, error)

	// AppendBatch delivers an ordered batch of events in one call.
	AppendBatch(ctx context.Context, evs []*Event) (Status, error)
}

// Wire messages for the two unary calls. The reply carries only the status;
// collectors that reject a payload answer StatusFailed rather than an error
// so the caller can distinguish protocol rejection from transport failure.
type appendRequest struct {
	Event *Event `cbor:"event"`
}

type appendBatchRequest struct {
	Events []*Event `cbor:"events"`
}

type appendReply struct {
	Status Status `cbor:"status"`
}
