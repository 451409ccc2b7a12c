package pool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"switchboard/pkg/core"
)

// Pending is the pool's native in-flight call handle. It completes exactly
// once; results are cached after completion.
type Pending struct {
	done chan struct{}
	resp *core.Response
	err  error
}

// Done is closed when the call has completed.
func (pd *Pending) Done() <-chan struct{} {
	return pd.done
}

// Wait blocks until the call completes or ctx is done. Not safe for
// concurrent use from multiple goroutines; sequential re-waits return the
// cached result.
func (pd *Pending) Wait(ctx context.Context) (*core.Response, error) {
	select {
	case <-pd.done:
		return pd.resp, pd.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Call issues one request against the next member. The returned Pending
// resolves when the backend responds; abandoning it never blocks the caller.
// ctx governs the in-flight network request.
func (p *Pool) Call(ctx context.Context, req *core.Request) *Pending {
	pd := &Pending{done: make(chan struct{})}
	go func() {
		defer close(pd.done)
		pd.resp, pd.err = p.roundTrip(ctx, req)
	}()
	return pd
}

func (p *Pool) roundTrip(ctx context.Context, req *core.Request) (*core.Response, error) {
	select {
	case <-p.done:
		return nil, ErrClosed
	default:
	}

	m, err := p.pick()
	if err != nil {
		return nil, err
	}

	timeout := m.endpoint.Timeout
	if timeout == 0 {
		timeout = p.cfg.RequestTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := fmt.Sprintf("%s://%s%s", p.scheme, m.endpoint.Address, path)

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", m.key, err)
	}
	for name, vals := range req.Headers {
		for _, v := range vals {
			httpReq.Header.Add(name, v)
		}
	}
	if m.endpoint.Authority != "" {
		httpReq.Host = m.endpoint.Authority
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", m.key, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", m.key, err)
	}

	return &core.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}, nil
}
