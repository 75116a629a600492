package codec

import (
	"fmt"

	"github.com/tibrahul/Radicchio/types"
)

// Default returns the codec used when none is configured.
func Default() types.Codec {
	return JSON{}
}

// ByName returns the codec registered under name ("json" or "cbor").
//
// Returns:
//   - types.Codec: The codec
//   - error: types.ErrInvalidConfig for unknown names
func ByName(name string) (types.Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "cbor":
		return CBOR{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %q", types.ErrInvalidConfig, name)
	}
}

// DecodeAny decodes data into a generic value.
//
// Empty data decodes to nil so that timers created by other clients without a
// payload still read cleanly.
func DecodeAny(c types.Codec, data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	return v, nil
}
