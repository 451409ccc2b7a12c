// Package grpc adapts a gRPC client connection to the externally supplied
// backend contract, so a *grpc.ClientConn can sit behind a channel next to
// the built-in pools. Requests carry raw message bytes; the adapter does not
// encode or decode payloads.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"switchboard/pkg/core"
	"switchboard/pkg/errors"
)

// Adapter wraps a *grpc.ClientConn as a channel backend
type Adapter struct {
	conn   *gogrpc.ClientConn
	logger *slog.Logger
}

// NewAdapter creates a backend adapter over an established client connection.
// The caller keeps ownership of the connection's lifecycle; closing the
// channel closes the connection through Close.
func NewAdapter(conn *gogrpc.ClientConn, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{conn: conn, logger: logger}
}

// Ready waits until the connection can carry a call. Idle counts as ready:
// the connection dials on first use.
func (a *Adapter) Ready(ctx context.Context) error {
	for {
		s := a.conn.GetState()
		switch s {
		case connectivity.Ready, connectivity.Idle:
			return nil
		case connectivity.Shutdown:
			return errors.NewError(errors.ErrorTypeReadiness, "backend cannot serve calls").
				WithCause(fmt.Errorf("grpc connection is shut down"))
		}
		if !a.conn.WaitForStateChange(ctx, s) {
			return errors.NewError(errors.ErrorTypeReadiness, "backend cannot serve calls").
				WithCause(ctx.Err())
		}
	}
}

// Call performs one unary invocation. The request path must be a gRPC method
// path (/package.Service/Method); headers map to outgoing metadata and the
// response header metadata maps back.
func (a *Adapter) Call(ctx context.Context, req *core.Request) (*core.Response, error) {
	if !isGRPCPath(req.Path) {
		return nil, errors.NewError(errors.ErrorTypeCall, "request path is not a gRPC method").
			WithDetail("path", req.Path)
	}

	if len(req.Headers) > 0 {
		md := metadata.MD{}
		for name, vals := range req.Headers {
			md.Append(strings.ToLower(name), vals...)
		}
		ctx = metadata.NewOutgoingContext(ctx, md)
	}

	var reply []byte
	var header metadata.MD
	err := a.conn.Invoke(ctx, req.Path, req.Body, &reply,
		gogrpc.ForceCodec(rawCodec{}),
		gogrpc.Header(&header))
	if err != nil {
		return nil, normalizeStatus(err)
	}

	return &core.Response{
		StatusCode: 200, // gRPC transports status out of band
		Headers:    map[string][]string(header),
		Body:       reply,
	}, nil
}

// Close closes the underlying connection.
func (a *Adapter) Close() error {
	return a.conn.Close()
}

func normalizeStatus(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable:
		return errors.NewError(errors.ErrorTypeUnavailable, "no endpoints available").
			WithCause(err)
	case codes.DeadlineExceeded:
		return errors.NewError(errors.ErrorTypeTimeout, "call deadline exceeded").
			WithCause(err)
	default:
		return errors.NewError(errors.ErrorTypeCall, "call failed").
			WithCause(err).
			WithDetail("grpc_code", st.Code().String())
	}
}

// isGRPCPath checks if the path looks like a gRPC method
func isGRPCPath(path string) bool {
	// gRPC paths follow the pattern: /package.Service/Method
	if len(path) < 2 || path[0] != '/' {
		return false
	}

	dots := 0
	slashes := 0
	for _, c := range path {
		if c == '.' {
			dots++
		} else if c == '/' {
			slashes++
		}
	}

	return dots >= 1 && slashes == 2
}
