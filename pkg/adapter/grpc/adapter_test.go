package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"switchboard/pkg/channel"
	"switchboard/pkg/core"
	"switchboard/pkg/errors"
)

func TestRawCodec(t *testing.T) {
	payload := []byte{0x0a, 0x03, 'f', 'o', 'o'}

	out, err := rawCodec{}.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal([]byte) = %v", err)
	}
	if string(out) != string(payload) {
		t.Errorf("Marshal() = %v, want %v", out, payload)
	}

	var in []byte
	if err := (rawCodec{}).Unmarshal(payload, &in); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if string(in) != string(payload) {
		t.Errorf("Unmarshal() = %v, want %v", in, payload)
	}

	if _, err := (rawCodec{}).Marshal(struct{}{}); err == nil {
		t.Error("Marshal() should reject non-byte messages")
	}
	if err := (rawCodec{}).Unmarshal(payload, &struct{}{}); err == nil {
		t.Error("Unmarshal() should reject non-byte targets")
	}
}

func TestIsGRPCPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/test.Echo/Ping", true},
		{"/a.b.C/Method", true},
		{"/noservice", false},
		{"/too/many/slashes.x", false},
		{"nodots/nodots", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isGRPCPath(tt.path); got != tt.want {
			t.Errorf("isGRPCPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAdapterReadyStates(t *testing.T) {
	conn, err := gogrpc.NewClient("passthrough:///idle",
		gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}

	a := NewAdapter(conn, nil)
	if err := a.Ready(context.Background()); err != nil {
		t.Errorf("Ready() on idle conn = %v, want nil", err)
	}

	conn.Close()
	if err := a.Ready(context.Background()); !errors.IsType(err, errors.ErrorTypeReadiness) {
		t.Errorf("Ready() on closed conn = %v, want readiness error", err)
	}
}

func echoServer(t *testing.T) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := gogrpc.NewServer(
		gogrpc.ForceServerCodec(rawCodec{}),
		gogrpc.UnknownServiceHandler(func(_ any, stream gogrpc.ServerStream) error {
			var req []byte
			if err := stream.RecvMsg(&req); err != nil {
				return err
			}
			if string(req) == "fail" {
				return status.Error(codes.Unavailable, "backend down")
			}
			return stream.SendMsg(append([]byte("echo:"), req...))
		}),
	)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return lis
}

func dialBuf(t *testing.T, lis *bufconn.Listener) *gogrpc.ClientConn {
	t.Helper()
	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAdapterCall(t *testing.T) {
	lis := echoServer(t)
	a := NewAdapter(dialBuf(t, lis), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := a.Call(ctx, &core.Request{
		Path:    "/test.Echo/Ping",
		Headers: map[string][]string{"X-Trace": {"abc"}},
		Body:    []byte("hi"),
	})
	if err != nil {
		t.Fatalf("Call() = %v", err)
	}
	if string(resp.Body) != "echo:hi" {
		t.Errorf("body = %q, want echo:hi", resp.Body)
	}
}

func TestAdapterCallErrors(t *testing.T) {
	lis := echoServer(t)
	a := NewAdapter(dialBuf(t, lis), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := a.Call(ctx, &core.Request{Path: "/not-grpc"}); !errors.IsType(err, errors.ErrorTypeCall) {
		t.Errorf("Call() with bad path = %v, want call error", err)
	}

	_, err := a.Call(ctx, &core.Request{Path: "/test.Echo/Ping", Body: []byte("fail")})
	if !errors.IsType(err, errors.ErrorTypeUnavailable) {
		t.Errorf("Call() with unavailable status = %v, want unavailable", err)
	}
}

// The adapter satisfies the externally supplied backend contract end to end.
func TestAdapterBehindChannel(t *testing.T) {
	lis := echoServer(t)
	ch := channel.NewCustom(NewAdapter(dialBuf(t, lis), nil))
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ch.Ready(ctx); err != nil {
		t.Fatalf("Ready() = %v", err)
	}

	pc := ch.Call(ctx, &core.Request{Path: "/test.Echo/Ping", Body: []byte("via channel")})
	resp, err := pc.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if string(resp.Body) != "echo:via channel" {
		t.Errorf("body = %q, want echo:via channel", resp.Body)
	}
}
