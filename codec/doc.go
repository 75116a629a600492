// Package codec provides types.Codec implementations for timer payloads.
//
// JSON is the default and keeps stored payloads readable from any client of
// the backing store. CBOR produces smaller payloads for binary-heavy data.
//
// Both codecs encode a nil payload as their null value, so nil round-trips as nil.
package codec
