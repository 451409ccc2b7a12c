package channel

import (
	"context"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"switchboard/internal/pool"
	"switchboard/internal/tlspool"
	"switchboard/pkg/core"
	"switchboard/pkg/errors"
	"switchboard/pkg/metrics"
)

type customPending struct {
	done chan struct{}
	resp *core.Response
	err  error
}

// PendingCall represents one issued, not-yet-completed request. It holds the
// active backend's native pending handle without erasure: exactly one of the
// variant fields is set, matching the channel's backend kind.
//
// Abandoning a PendingCall (discarding it without awaiting) never blocks;
// whether the in-flight request is canceled at the network layer is
// backend-defined. Wait must not be called from two goroutines at once;
// waiting again after an interrupted wait is fine.
type PendingCall struct {
	kind   backendKind
	pool   *pool.Pending
	tls    *tlspool.Pending
	custom *customPending

	span    trace.Span
	metrics *metrics.Metrics
	started time.Time
}

func newPendingCall(kind backendKind, span trace.Span, m *metrics.Metrics) *PendingCall {
	return &PendingCall{
		kind:    kind,
		span:    span,
		metrics: m,
		started: time.Now(),
	}
}

// Done is closed when the call has reached its terminal result.
func (pc *PendingCall) Done() <-chan struct{} {
	switch pc.kind {
	case kindPool:
		return pc.pool.Done()
	case kindTLS:
		return pc.tls.Done()
	default:
		return pc.custom.done
	}
}

// Wait blocks until the call completes or ctx is done. An interrupted wait
// returns ctx's error and leaves the call in flight; a completed call's
// result is cached and returned on every subsequent Wait.
func (pc *PendingCall) Wait(ctx context.Context) (*core.Response, error) {
	select {
	case <-pc.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return pc.terminal()
}

// terminal reads the cached result. Only valid after Done is closed. Generic
// pool errors are normalized into the shared shape here; the TLS pool and
// custom backends already produce it.
func (pc *PendingCall) terminal() (*core.Response, error) {
	switch pc.kind {
	case kindPool:
		resp, err := pc.pool.Wait(context.Background())
		return resp, wrapPoolCall(err)
	case kindTLS:
		return pc.tls.Wait(context.Background())
	default:
		return pc.custom.resp, pc.custom.err
	}
}

// observe runs once per issued call: it waits for the terminal result and
// records span status, latency, and error counters. Abandonment by the caller
// does not leak the span.
func (pc *PendingCall) observe() {
	<-pc.Done()
	_, err := pc.terminal()

	backend := pc.kind.String()
	if pc.metrics != nil {
		pc.metrics.CallDuration.WithLabelValues(backend).Observe(time.Since(pc.started).Seconds())
		if err != nil {
			pc.metrics.CallErrors.WithLabelValues(backend, errorLabel(err)).Inc()
		}
	}
	if err != nil {
		pc.span.RecordError(err)
		pc.span.SetStatus(otelcodes.Error, err.Error())
	} else {
		pc.span.SetStatus(otelcodes.Ok, "")
	}
	pc.span.End()
}

func errorLabel(err error) string {
	for _, t := range []errors.ErrorType{
		errors.ErrorTypeUnavailable,
		errors.ErrorTypeTimeout,
		errors.ErrorTypeReadiness,
		errors.ErrorTypeCall,
	} {
		if errors.IsType(err, t) {
			return string(t)
		}
	}
	return string(errors.ErrorTypeInternal)
}
