// Package codec encodes records and summaries for the transports that carry
// them off the simulator.
package codec

import (
	"fmt"
	"strings"
)

// Codec turns values into frames and back.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

const (
	NameJSON  = "json"
	NameProto = "proto"
)

// ByName returns the codec registered under name. The empty name selects
// JSON.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON{}, nil
	case NameProto, "protobuf":
		return Proto{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
