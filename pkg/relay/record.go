package relay

// Record is one log event as produced by the surrounding application.
// The delivery layer copies it into the wire representation and makes no
// assumptions about its origin.
type Record struct {
	// Body is the raw event payload.
	Body []byte

	// Headers carry event metadata forwarded verbatim to the collector.
	Headers map[string]string
}
