package types

// Codec is a reversible payload serialization.
//
// Unmarshal into *any must reproduce a value equal to the one passed to Marshal
// for every value the codec supports, including nil.
type Codec interface {
	// Name returns a short identifier such as "json" or "cbor".
	Name() string

	// Marshal serializes v.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes data into v.
	Unmarshal(data []byte, v any) error
}
