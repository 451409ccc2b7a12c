package channel

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	"switchboard/internal/pool"
	"switchboard/internal/tlspool"
	"switchboard/pkg/core"
	"switchboard/pkg/errors"
	"switchboard/pkg/metrics"
	tlsutil "switchboard/pkg/tls"
)

const tracerName = "switchboard/channel"

// Updater is the change sink handle returned by the pool builders. Its
// capacity equals the buffer size given at construction. Closing it signals
// end-of-updates and terminates the bridge.
type Updater = chan<- Change[string, core.Endpoint]

// PoolBuilder constructs a channel backed by the generic balanced pool.
type PoolBuilder struct {
	// Pool carries transport and timeout knobs; zero values get defaults.
	Pool pool.Config
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics
}

// Build returns a live channel and its change sink. The channel is callable
// immediately and the sink accepts updates immediately, before any insert has
// occurred; a call issued while the pool is still empty fails fast with the
// no-endpoints error.
func (b PoolBuilder) Build(bufferSize int) (*Channel, Updater, error) {
	if err := checkBufferSize(bufferSize); err != nil {
		return nil, nil, err
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := pool.New(b.Pool, bufferSize, logger)
	if b.Metrics != nil {
		p.SetGauge(b.Metrics.Endpoints.WithLabelValues("pool"))
	}

	sink := make(chan Change[string, core.Endpoint], bufferSize)
	go runBridge(sink, translatePool, p.Offer, "pool", logger, b.Metrics)

	ch := &Channel{
		kind:    kindPool,
		pool:    p,
		logger:  logger,
		metrics: b.Metrics,
		tracer:  otel.Tracer(tracerName),
	}
	return ch, sink, nil
}

// TLSBuilder constructs a channel backed by the TLS-terminated pool.
type TLSBuilder struct {
	// TLS is the declarative client TLS configuration; nil means secure
	// defaults with system roots.
	TLS *tlsutil.Config
	// Pool carries transport and timeout knobs; zero values get defaults.
	Pool pool.Config
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics
}

// Build returns a live channel and its change sink. A TLS configuration that
// cannot be materialized (unreadable CA file, bad client keypair) fails
// synchronously with a construction error.
func (b TLSBuilder) Build(bufferSize int) (*Channel, Updater, error) {
	if err := checkBufferSize(bufferSize); err != nil {
		return nil, nil, err
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tlsCfg, err := tlsutil.NewClientConfig(b.TLS)
	if err != nil {
		return nil, nil, errors.NewError(errors.ErrorTypeConstruction, "build TLS client configuration").
			WithCause(err)
	}

	p := tlspool.New(tlsCfg, b.Pool, bufferSize, logger)
	if b.Metrics != nil {
		p.SetGauge(b.Metrics.Endpoints.WithLabelValues("tls"))
	}

	sink := make(chan Change[string, core.Endpoint], bufferSize)
	go runBridge(sink, translateTLS, p.Offer, "tls", logger, b.Metrics)

	ch := &Channel{
		kind:    kindTLS,
		tls:     p,
		logger:  logger,
		metrics: b.Metrics,
		tracer:  otel.Tracer(tracerName),
	}
	return ch, sink, nil
}

// NewCustom wraps an externally supplied backend. The backend owns its own
// endpoint management, so there is no change sink and no bridge; it must be
// safe for concurrent use if the returned channel is shared.
func NewCustom(backend Backend) *Channel {
	return &Channel{
		kind:   kindCustom,
		custom: backend,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
}

func checkBufferSize(n int) error {
	if n < 1 {
		return errors.NewError(errors.ErrorTypeConstruction, "buffer size must be positive").
			WithDetail("buffer_size", n)
	}
	return nil
}
