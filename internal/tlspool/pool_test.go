package tlspool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"switchboard/internal/pool"
	"switchboard/pkg/core"
	"switchboard/pkg/errors"
	tlsutil "switchboard/pkg/tls"
)

func waitForSize(t *testing.T, p *Pool, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Size() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("pool size = %d, want %d", p.Size(), want)
}

func TestTLSPoolCall(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secure"))
	}))
	defer srv.Close()

	tlsCfg, err := tlsutil.NewClientConfig(&tlsutil.Config{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("build tls config: %v", err)
	}

	p := New(tlsCfg, pool.Config{}, 4, nil)
	defer p.Close()

	p.Offer(Update{Op: OpAdd, Key: "a", Endpoint: core.Endpoint{
		Address: strings.TrimPrefix(srv.URL, "https://"),
	}})
	waitForSize(t, p, 1)

	if err := p.Ready(context.Background()); err != nil {
		t.Fatalf("Ready() = %v, want nil", err)
	}

	pd := p.Call(context.Background(), &core.Request{Method: http.MethodGet, Path: "/"})
	resp, err := pd.Wait(context.Background())
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if string(resp.Body) != "secure" {
		t.Errorf("body = %q, want secure", resp.Body)
	}
}

func TestTLSPoolNormalizedErrors(t *testing.T) {
	tlsCfg, err := tlsutil.NewClientConfig(nil)
	if err != nil {
		t.Fatalf("build tls config: %v", err)
	}

	p := New(tlsCfg, pool.Config{}, 2, nil)

	if err := p.Ready(context.Background()); !errors.IsType(err, errors.ErrorTypeUnavailable) {
		t.Errorf("Ready() on empty pool = %v, want unavailable", err)
	}

	pd := p.Call(context.Background(), &core.Request{Path: "/"})
	if _, err := pd.Wait(context.Background()); !errors.IsType(err, errors.ErrorTypeUnavailable) {
		t.Errorf("Call() on empty pool = %v, want unavailable", err)
	}

	p.Close()
	if err := p.Ready(context.Background()); !errors.IsType(err, errors.ErrorTypeReadiness) {
		t.Errorf("Ready() after Close() = %v, want readiness", err)
	}
}

func TestTLSPoolRejectsUntrustedCert(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	// Default config does not trust the httptest CA.
	tlsCfg, err := tlsutil.NewClientConfig(nil)
	if err != nil {
		t.Fatalf("build tls config: %v", err)
	}

	p := New(tlsCfg, pool.Config{}, 2, nil)
	defer p.Close()

	p.Offer(Update{Op: OpAdd, Key: "a", Endpoint: core.Endpoint{
		Address: strings.TrimPrefix(srv.URL, "https://"),
	}})
	waitForSize(t, p, 1)

	pd := p.Call(context.Background(), &core.Request{Method: http.MethodGet, Path: "/"})
	if _, err := pd.Wait(context.Background()); !errors.IsType(err, errors.ErrorTypeCall) {
		t.Errorf("call with untrusted cert = %v, want call error", err)
	}
}
