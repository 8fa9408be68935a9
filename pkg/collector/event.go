package collector

// Status is the collector's acknowledgment of an append call.
type Status string

// Wire status values.
const (
	StatusOK      Status = "OK"
	StatusFailed  Status = "FAILED"
	StatusUnknown Status = "UNKNOWN"
)

// OK reports whether the status indicates the send was accepted.
func (s Status) OK() bool { return s == StatusOK }

// Event is the wire representation of one log record.
type Event struct {
	Body    []byte            `cbor:"body"`
	Headers map[string]string `cbor:"headers"`
}

// NewEvent builds an Event from a record body and headers.
// Both are copied so the caller may reuse its buffers.
func NewEvent(body []byte, headers map[string]string) *Event {
	ev := &Event{
		Body:    append([]byte(nil), body...),
		Headers: make(map[string]string, len(headers)),
	}
	for k, v := range headers {
		ev.Headers[k] = v
	}
	return ev
}
