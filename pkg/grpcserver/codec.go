package grpcserver

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const CodecName = "json"

// JSONCodec lets services declare plain Go structs as messages.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
