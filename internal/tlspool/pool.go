// Package tlspool provides the TLS-terminated variant of the balanced pool.
// It wraps internal/pool with a custom TLS client configuration and, unlike
// the generic pool, hands back errors already normalized into the shared
// shape.
package tlspool

import (
	"context"
	cryptotls "crypto/tls"
	stderrors "errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"switchboard/internal/pool"
	"switchboard/pkg/core"
	"switchboard/pkg/errors"
)

// UpdateOp is this pool's native membership operation tag
type UpdateOp int

const (
	// OpAdd inserts or replaces an endpoint.
	OpAdd UpdateOp = iota
	// OpDelete removes an endpoint.
	OpDelete
)

// Update is this pool's native membership update representation
type Update struct {
	Op       UpdateOp
	Key      string
	Endpoint core.Endpoint
}

// Pool is a balanced pool whose connections are dialed through a caller-built
// TLS configuration.
type Pool struct {
	inner *pool.Pool
}

// New creates a TLS-terminated pool. tlsCfg must be non-nil; building it from
// declarative configuration is the builder's job (pkg/tls).
func New(tlsCfg *cryptotls.Config, cfg pool.Config, queueCap int, logger *slog.Logger) *Pool {
	rt := pool.NewTransport(cfg)
	rt.TLSClientConfig = tlsCfg
	return &Pool{
		inner: pool.NewWithTransport(cfg, queueCap, "https", rt, logger),
	}
}

// SetGauge attaches a membership gauge.
func (p *Pool) SetGauge(g prometheus.Gauge) {
	p.inner.SetGauge(g)
}

// Offer forwards one update into the pool's queue, blocking for backpressure.
// Returns false once the pool is closed.
func (p *Pool) Offer(u Update) bool {
	iu := pool.Update{Key: u.Key, Endpoint: u.Endpoint}
	switch u.Op {
	case OpAdd:
		iu.Op = pool.OpAdd
	case OpDelete:
		iu.Op = pool.OpDelete
	}
	return p.inner.Offer(iu)
}

// Ready reports whether a call can currently be issued.
func (p *Pool) Ready(ctx context.Context) error {
	return normalizeReadiness(p.inner.Ready(ctx))
}

// Call issues one request against the next member.
func (p *Pool) Call(ctx context.Context, req *core.Request) *Pending {
	return &Pending{inner: p.inner.Call(ctx, req)}
}

// Size returns the current membership count.
func (p *Pool) Size() int {
	return p.inner.Size()
}

// Close shuts the pool down. Idempotent.
func (p *Pool) Close() {
	p.inner.Close()
}

// Pending wraps the inner pending handle and normalizes its native errors.
type Pending struct {
	inner *pool.Pending
}

// Done is closed when the call has completed.
func (pd *Pending) Done() <-chan struct{} {
	return pd.inner.Done()
}

// Wait blocks until the call completes or ctx is done. Not safe for
// concurrent use from multiple goroutines.
func (pd *Pending) Wait(ctx context.Context) (*core.Response, error) {
	resp, err := pd.inner.Wait(ctx)
	return resp, normalizeCall(err)
}

func normalizeReadiness(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, pool.ErrNoEndpoints):
		return errors.NewError(errors.ErrorTypeUnavailable, "no endpoints available").
			WithCause(err)
	default:
		return errors.NewError(errors.ErrorTypeReadiness, "backend cannot serve calls").
			WithCause(err)
	}
}

func normalizeCall(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, pool.ErrNoEndpoints):
		return errors.NewError(errors.ErrorTypeUnavailable, "no endpoints available").
			WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewError(errors.ErrorTypeTimeout, "call deadline exceeded").
			WithCause(err)
	default:
		return errors.NewError(errors.ErrorTypeCall, "call failed").
			WithCause(err)
	}
}
