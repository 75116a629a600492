package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/tibrahul/Radicchio/types"
)

// cborEncMode encodes deterministically so equal payloads produce equal bytes.
var cborEncMode cbor.EncMode

// cborDecMode decodes maps into map[string]any so decoded payloads match the
// shapes the JSON codec produces.
var cborDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	cborEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create payload CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
		IndefLength:    cbor.IndefLengthAllowed,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	cborDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create payload CBOR decoder mode: %v", err))
	}
}

// CBOR is a compact binary payload codec.
type CBOR struct{}

// Compile-time assertion that CBOR implements Codec.
var _ types.Codec = CBOR{}

// NewCBOR returns the CBOR codec.
func NewCBOR() CBOR {
	return CBOR{}
}

// Name implements types.Codec.
func (CBOR) Name() string { return "cbor" }

// Marshal implements types.Codec.
func (CBOR) Marshal(v any) ([]byte, error) {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor encode payload: %w", err)
	}

	return data, nil
}

// Unmarshal implements types.Codec.
func (CBOR) Unmarshal(data []byte, v any) error {
	if err := cborDecMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: cbor: %w", types.ErrMalformedPayload, err)
	}

	return nil
}

// Encode marshals v with the package's canonical CBOR mode.
// Other packages use it for envelopes that travel next to payloads.
func Encode(v any) ([]byte, error) {
	return CBOR{}.Marshal(v)
}

// Decode unmarshals CBOR data into v with the package's decoder mode.
func Decode(data []byte, v any) error {
	return CBOR{}.Unmarshal(data, v)
}
