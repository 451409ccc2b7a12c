package channel

import (
	"context"

	"switchboard/pkg/core"
)

// Backend is the contract an externally supplied transport must satisfy to be
// held by a Channel. Implementations must be safe for concurrent use when the
// Channel holding them is shared, and must return errors in the shared
// pkg/errors shape; the channel layer passes their results through unchanged.
type Backend interface {
	// Ready reports whether a call may currently be issued without
	// immediate rejection.
	Ready(ctx context.Context) error

	// Call performs one request/response exchange. ctx governs the
	// in-flight request.
	Call(ctx context.Context, req *core.Request) (*core.Response, error)
}
