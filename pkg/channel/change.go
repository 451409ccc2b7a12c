package channel

// Op is the generic membership-change tag. Backends carry their own native
// tags; the bridge translates at the boundary.
type Op int

const (
	// Insert announces a newly reachable endpoint.
	Insert Op = iota
	// Remove announces that an endpoint disappeared.
	Remove
)

// String returns the op name for logs and metric labels.
func (o Op) String() string {
	switch o {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is a keyed membership update in the reachable endpoint set. It is
// backend-ignorant: keys identify an endpoint (typically a URI), values
// describe how to reach it. Changes are delivered in arrival order and are
// never coalesced or deduplicated.
type Change[K comparable, V any] struct {
	Op    Op
	Key   K
	Value V
}
