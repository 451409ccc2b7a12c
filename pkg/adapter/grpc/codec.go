package grpc

import "fmt"

// rawCodec moves message bytes through grpc untouched. The channel layer's
// request shape carries pre-encoded payloads, so neither side needs protobuf
// types here.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case []byte:
		return m, nil
	case *[]byte:
		return *m, nil
	default:
		return nil, fmt.Errorf("raw codec: unsupported message type %T", v)
	}
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("raw codec: unsupported message type %T", v)
	}
	// grpc may reuse the receive buffer after we return
	*b = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string {
	return "raw"
}
