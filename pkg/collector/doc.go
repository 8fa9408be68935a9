// Package collector defines the wire contract between logrelay and a remote
// collector agent, plus the gRPC transport that carries it.
//
// The protocol is two unary calls:
//
//   - Append: deliver a single event
//   - AppendBatch: deliver an ordered batch of events
//
// Both return a Status; anything other than StatusOK is treated by the
// delivery layer the same as a transport failure.
//
// Messages are encoded with CBOR through a codec registered with the gRPC
// encoding registry, so both ends agree on the content-subtype without
// generated protobuf stubs.
//
// Use Dialer to obtain a Transport bound to one agent:
//
//	d := collector.NewDialer()
//	t, err := d.Dial(ctx, collector.Agent{Host: "10.0.0.1", Port: 4141})
//	if err != nil { ... }
//	defer t.Close()
//	status, err := t.Client().Append(ctx, ev)
//
// The server half (IngestServer, RegisterIngestServer) lets a Go process act
// as a collector agent, which the tests use to run the full path in-process.
package collector
