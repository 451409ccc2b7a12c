package core

import "time"

// Request is the fixed request shape shared by every backend. The channel
// layer never interprets it beyond handing it to the active backend.
type Request struct {
	Method  string
	Path    string
	Headers map[string][]string
	Body    []byte
}

// Response is the fixed response shape shared by every backend.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Endpoint describes how to reach one backend instance. It is published by an
// external discovery source and consumed only by a backend pool; treat it as
// immutable once published.
type Endpoint struct {
	// Address is the host:port (or host) the pool connects to.
	Address string
	// Authority overrides the Host header / SNI name when set.
	Authority string
	// Timeout bounds a single call against this endpoint when non-zero.
	Timeout time.Duration
	// Metadata carries discovery-source annotations; opaque to the pool.
	Metadata map[string]string
}

// Header returns the first value for the named request header.
func (r *Request) Header(name string) string {
	if vals := r.Headers[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
