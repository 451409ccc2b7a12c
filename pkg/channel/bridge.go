package channel

import (
	"log/slog"

	"switchboard/internal/pool"
	"switchboard/internal/tlspool"
	"switchboard/pkg/core"
	"switchboard/pkg/metrics"
)

// runBridge forwards changes from the externally facing sink into a backend's
// native update queue, one at a time, in receipt order. It terminates when
// the sink is closed (no producers remain) or when a forward fails because
// the backend queue closed; the latter is ordinary teardown, not an error,
// and is never reported upward. Forwards block for backpressure and are never
// retried, so each event reaches the backend at most once.
func runBridge[U any](
	sink <-chan Change[string, core.Endpoint],
	translate func(Change[string, core.Endpoint]) U,
	forward func(U) bool,
	backend string,
	logger *slog.Logger,
	m *metrics.Metrics,
) {
	for change := range sink {
		if !forward(translate(change)) {
			logger.Debug("change bridge stopping: backend queue closed", "backend", backend)
			return
		}
		if m != nil {
			m.ChangesForwarded.WithLabelValues(backend, change.Op.String()).Inc()
		}
	}
	logger.Debug("change bridge stopping: sink closed", "backend", backend)
}

// translatePool re-tags a generic change into the generic pool's native
// update. Keys and values pass through untouched.
func translatePool(c Change[string, core.Endpoint]) pool.Update {
	u := pool.Update{Key: c.Key, Endpoint: c.Value}
	switch c.Op {
	case Insert:
		u.Op = pool.OpAdd
	case Remove:
		u.Op = pool.OpDelete
	}
	return u
}

// translateTLS re-tags a generic change into the TLS pool's native update.
func translateTLS(c Change[string, core.Endpoint]) tlspool.Update {
	u := tlspool.Update{Key: c.Key, Endpoint: c.Value}
	switch c.Op {
	case Insert:
		u.Op = tlspool.OpAdd
	case Remove:
		u.Op = tlspool.OpDelete
	}
	return u
}
