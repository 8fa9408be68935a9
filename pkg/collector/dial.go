package collector

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultDialTimeout bounds how long Dial waits for the connection to
// become ready before declaring the agent unreachable.
const DefaultDialTimeout = 5 * time.Second

// methodAppend and methodAppendBatch are the full gRPC method names of the
// collector ingest service.
const (
	methodAppend      = "/collector.Ingest/Append"
	methodAppendBatch = "/collector.Ingest/AppendBatch"
)

// Dialer opens gRPC transports to collector agents.
type Dialer struct {
	timeout time.Duration
	opts    []grpc.DialOption
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithDialTimeout overrides the readiness timeout for Dial.
func WithDialTimeout(d time.Duration) DialerOption {
	return func(dl *Dialer) { dl.timeout = d }
}

// WithDialOptions appends extra gRPC dial options, e.g. a context dialer
// for in-process transports in tests.
func WithDialOptions(opts ...grpc.DialOption) DialerOption {
	return func(dl *Dialer) { dl.opts = append(dl.opts, opts...) }
}

// NewDialer creates a Dialer with plaintext credentials and the CBOR codec.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{timeout: DefaultDialTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial opens a transport to the agent and blocks until the underlying
// connection is ready or the timeout elapses. An unreachable agent is
// reported as an error rather than deferred to the first call, so the
// caller can move on to the next candidate.
func (d *Dialer) Dial(ctx context.Context, agent Agent) (*Transport, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, d.opts...)

	// The passthrough scheme hands the raw host:port to the dialer,
	// skipping DNS resolution of the target name.
	cc, err := grpc.NewClient("passthrough:///"+agent.Addr(), opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", agent.Addr(), err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cc.Connect()
	for {
		s := cc.GetState()
		if s == connectivity.Ready {
			return &Transport{cc: cc, agent: agent}, nil
		}
		if s == connectivity.TransientFailure || s == connectivity.Shutdown {
			_ = cc.Close()
			return nil, fmt.Errorf("dial %s: connection %s", agent.Addr(), s)
		}
		if !cc.WaitForStateChange(waitCtx, s) {
			_ = cc.Close()
			return nil, fmt.Errorf("dial %s: %w", agent.Addr(), waitCtx.Err())
		}
	}
}

// Transport is a single live connection to one collector agent.
type Transport struct {
	cc    *grpc.ClientConn
	agent Agent
}

// Agent returns the endpoint this transport is bound to.
func (t *Transport) Agent() Agent { return t.agent }

// Client binds an RPC client to the transport.
func (t *Transport) Client() Client { return &grpcClient{cc: t.cc} }

// Close tears down the underlying connection.
func (t *Transport) Close() error { return t.cc.Close() }

// grpcClient invokes the ingest methods over a ClientConn.
type grpcClient struct {
	cc *grpc.ClientConn
}

func (c *grpcClient) Append(ctx context.Context, ev *Event) (Status, error) {
	var reply appendReply
	if err := c.cc.Invoke(ctx, methodAppend, &appendRequest{Event: ev}, &reply); err != nil {
		return StatusUnknown, err
	}
	return reply.Status, nil
}

func (c *grpcClient) AppendBatch(ctx context.Context, evs []*Event) (Status, error) {
	var reply appendReply
	if err := c.cc.Invoke(ctx, methodAppendBatch, &appendBatchRequest{Events: evs}, &reply); err != nil {
		return StatusUnknown, err
	}
	return reply.Status, nil
}
