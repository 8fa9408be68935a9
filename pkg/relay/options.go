package relay

import (
	"context"

	"github.com/logrelay/logrelay/internal/ports"
	"github.com/logrelay/logrelay/pkg/collector"
	"github.com/logrelay/logrelay/pkg/log"
)

// Option configures optional behavior of a Manager.
type Option func(*options)

type options struct {
	dialer ports.Dialer
	logger log.Logger
}

// WithDialer sets a custom dialer for opening agent transports.
// If not provided, the gRPC dialer from pkg/collector is used.
func WithDialer(d ports.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// grpcDialer adapts the concrete collector dialer to the ports seam.
type grpcDialer struct {
	d *collector.Dialer
}

func (g grpcDialer) Dial(ctx context.Context, agent collector.Agent) (ports.Transport, error) {
	t, err := g.d.Dial(ctx, agent)
	if err != nil {
		return nil, err
	}
	return t, nil
}
