package codec

import (
	"encoding/json"
	"fmt"

	"github.com/tibrahul/Radicchio/types"
)

// JSON is the default payload codec.
//
// Decoding into *any yields the usual encoding/json shapes: map[string]any,
// []any, float64, string, bool and nil.
type JSON struct{}

// Compile-time assertion that JSON implements Codec.
var _ types.Codec = JSON{}

// NewJSON returns the JSON codec.
func NewJSON() JSON {
	return JSON{}
}

// Name implements types.Codec.
func (JSON) Name() string { return "json" }

// Marshal implements types.Codec.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	return data, nil
}

// Unmarshal implements types.Codec.
func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: json: %w", types.ErrMalformedPayload, err)
	}

	return nil
}
