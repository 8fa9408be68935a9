package collector

import (
	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype for CBOR-encoded messages.
const codecName = "cbor"

func init() {
	encoding.RegisterCodec(cborCodec{})
}

// cborCodec implements grpc encoding.Codec over fxamacker/cbor.
type cborCodec struct{}

func (cborCodec) Marshal(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

func (cborCodec) Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

func (cborCodec) Name() string { return codecName }
