package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Proto encodes values as a google.protobuf.Struct wire message. Field names
// follow the JSON tags, so any consumer with the well-known types can decode
// frames without a generated schema.
type Proto struct{}

func (Proto) Name() string        { return NameProto }
func (Proto) ContentType() string { return "application/x-protobuf" }

func (Proto) Marshal(v any) ([]byte, error) {
	fields, err := toMap(v)
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("codec: proto struct: %w", err)
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("codec: proto marshal: %w", err)
	}
	return b, nil
}

func (Proto) Unmarshal(data []byte, v any) error {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("codec: proto unmarshal: %w", err)
	}
	b, err := json.Marshal(st.AsMap())
	if err != nil {
		return fmt.Errorf("codec: proto unmarshal: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("codec: proto unmarshal: %w", err)
	}
	return nil
}

// toMap flattens v through its JSON form into the generic shape structpb
// accepts.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: proto marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("codec: proto marshal: value is not an object: %w", err)
	}
	return m, nil
}

var _ Codec = Proto{}
