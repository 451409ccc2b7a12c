// Package pool implements a balanced backend pool: an ordered membership set
// maintained through a bounded update queue, with round-robin selection for
// each outgoing call. It is the native home of the generic backend's own
// update and error types; normalization into the shared error shape happens
// one layer up.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"switchboard/pkg/core"
)

// UpdateOp is the pool's native membership operation tag
type UpdateOp int

const (
	// OpAdd inserts or replaces an endpoint.
	OpAdd UpdateOp = iota
	// OpDelete removes an endpoint.
	OpDelete
)

// Update is the pool's native membership update representation
type Update struct {
	Op       UpdateOp
	Key      string
	Endpoint core.Endpoint
}

// Native pool errors. Callers above this package wrap them into the shared
// error shape.
var (
	ErrNoEndpoints = errors.New("no endpoints available")
	ErrClosed      = errors.New("pool is closed")
)

type member struct {
	key      string
	endpoint core.Endpoint
}

// Pool is a balanced endpoint pool. Membership changes arrive through a
// bounded queue and are applied in arrival order by a single goroutine; calls
// snapshot the membership and pick round-robin.
type Pool struct {
	cfg    Config
	scheme string
	client *http.Client
	logger *slog.Logger
	gauge  prometheus.Gauge

	updates   chan Update
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	members []member
	next    atomic.Uint64
}

// New creates a plain-HTTP pool with an update queue of capacity queueCap.
func New(cfg Config, queueCap int, logger *slog.Logger) *Pool {
	return newPool(cfg, queueCap, "http", NewTransport(cfg), logger)
}

// NewWithTransport creates a pool that dials through the given transport and
// scheme. Used for the TLS-terminated variant.
func NewWithTransport(cfg Config, queueCap int, scheme string, rt http.RoundTripper, logger *slog.Logger) *Pool {
	return newPool(cfg, queueCap, scheme, rt, logger)
}

func newPool(cfg Config, queueCap int, scheme string, rt http.RoundTripper, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		cfg:    cfg.withDefaults(),
		scheme: scheme,
		client: &http.Client{
			Transport: rt,
			// Don't follow redirects automatically
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger,
		updates: make(chan Update, queueCap),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// SetGauge attaches a membership gauge. Must be called before any update is
// offered.
func (p *Pool) SetGauge(g prometheus.Gauge) {
	p.gauge = g
}

// Offer forwards one update into the pool's queue, blocking for backpressure.
// It returns false once the pool is closed; it never drops or panics.
func (p *Pool) Offer(u Update) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.updates <- u:
		return true
	case <-p.done:
		return false
	}
}

// Ready reports whether a call can currently be issued. An empty pool fails
// fast with ErrNoEndpoints instead of blocking.
func (p *Pool) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	p.mu.RLock()
	n := len(p.members)
	p.mu.RUnlock()
	if n == 0 {
		return ErrNoEndpoints
	}
	return nil
}

// Close shuts the pool down: the update queue stops accepting, the apply
// goroutine exits, idle connections are released. Idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.client.CloseIdleConnections()
	})
}

func (p *Pool) run() {
	for {
		select {
		case u := <-p.updates:
			p.apply(u)
		case <-p.done:
			return
		}
	}
}

func (p *Pool) apply(u Update) {
	p.mu.Lock()
	switch u.Op {
	case OpAdd:
		replaced := false
		for i := range p.members {
			if p.members[i].key == u.Key {
				p.members[i].endpoint = u.Endpoint
				replaced = true
				break
			}
		}
		if !replaced {
			p.members = append(p.members, member{key: u.Key, endpoint: u.Endpoint})
		}
	case OpDelete:
		for i := range p.members {
			if p.members[i].key == u.Key {
				p.members = append(p.members[:i], p.members[i+1:]...)
				break
			}
		}
	}
	n := len(p.members)
	p.mu.Unlock()

	if p.gauge != nil {
		p.gauge.Set(float64(n))
	}
	p.logger.Debug("pool membership updated",
		"op", u.Op,
		"key", u.Key,
		"members", n)
}

// pick selects the next member round-robin
func (p *Pool) pick() (member, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.members) == 0 {
		return member{}, ErrNoEndpoints
	}
	index := p.next.Add(1) % uint64(len(p.members))
	return p.members[index], nil
}

// Size returns the current membership count.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.members)
}
