// Package channel provides one calling capability over a closed set of
// transport backends: a generic balanced pool, a TLS-terminated pool, and an
// externally supplied implementation. A channel's active backend is fixed at
// construction; membership updates reach pool backends through a change
// bridge that translates the generic event stream into each pool's native
// update queue.
package channel

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"switchboard/internal/pool"
	"switchboard/internal/tlspool"
	"switchboard/pkg/core"
	"switchboard/pkg/errors"
	"switchboard/pkg/metrics"
)

type backendKind int

const (
	kindPool backendKind = iota
	kindTLS
	kindCustom
)

func (k backendKind) String() string {
	switch k {
	case kindPool:
		return "pool"
	case kindTLS:
		return "tls"
	default:
		return "custom"
	}
}

// Channel is the unified calling capability. Exactly one backend variant is
// active, fixed at construction. A Channel is safe to share across
// concurrently issuing call sites; all cross-call serialization lives inside
// the backend.
type Channel struct {
	kind   backendKind
	pool   *pool.Pool
	tls    *tlspool.Pool
	custom Backend

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Ready reports whether a call may currently be issued. It must be polled to
// completion before Call; backend-specific readiness failures are wrapped
// into the shared error shape at this boundary. A channel with no endpoints
// fails fast rather than blocking.
func (c *Channel) Ready(ctx context.Context) error {
	switch c.kind {
	case kindPool:
		return wrapPoolReadiness(c.pool.Ready(ctx))
	case kindTLS:
		return c.tls.Ready(ctx)
	default:
		return c.custom.Ready(ctx)
	}
}

// Call issues one fully formed request against the active backend. Dispatch
// is a single tag switch; there are no retries and no selection logic at this
// layer. ctx governs the in-flight request, which is how callers layer
// timeouts and cancellation.
func (c *Channel) Call(ctx context.Context, req *core.Request) *PendingCall {
	backend := c.kind.String()
	if c.metrics != nil {
		c.metrics.CallsTotal.WithLabelValues(backend).Inc()
	}
	ctx, span := c.tracer.Start(ctx, "channel.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("switchboard.backend", backend)))

	pc := newPendingCall(c.kind, span, c.metrics)
	switch c.kind {
	case kindPool:
		pc.pool = c.pool.Call(ctx, req)
	case kindTLS:
		pc.tls = c.tls.Call(ctx, req)
	default:
		cp := &customPending{done: make(chan struct{})}
		backend := c.custom
		go func() {
			defer close(cp.done)
			cp.resp, cp.err = backend.Call(ctx, req)
		}()
		pc.custom = cp
	}

	// Finish the span and record metrics when the backend completes, whether
	// or not the pending call is ever awaited.
	go pc.observe()
	return pc
}

// Close tears down an owned pool backend: its update queue closes and the
// change bridge terminates. For the custom variant it delegates to the
// backend when that implements io.Closer.
func (c *Channel) Close() error {
	switch c.kind {
	case kindPool:
		c.pool.Close()
		return nil
	case kindTLS:
		c.tls.Close()
		return nil
	default:
		if closer, ok := c.custom.(io.Closer); ok {
			return closer.Close()
		}
		return nil
	}
}

func wrapPoolReadiness(err error) error {
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

func wrapPoolCall(err error) error {
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
