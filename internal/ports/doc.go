// Package ports defines the interfaces the delivery layer depends on.
//
// The orchestrator in pkg/relay never dials the network itself; it asks a
// Dialer for a Transport and binds a collector client to it. Production code
// wires the gRPC dialer from pkg/collector, tests wire fakes that count
// attempts and script failures.
package ports
