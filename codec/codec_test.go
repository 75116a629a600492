package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tibrahul/Radicchio/types"
)

func TestByName(t *testing.T) {
	c, err := ByName("json")
	require.NoError(t, err)
	require.Equal(t, "json", c.Name())

	c, err = ByName("")
	require.NoError(t, err)
	require.Equal(t, "json", c.Name())

	c, err = ByName("cbor")
	require.NoError(t, err)
	require.Equal(t, "cbor", c.Name())

	_, err = ByName("xml")
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	require.Equal(t, "json", Default().Name())
}

func TestNilRoundTrip(t *testing.T) {
	for _, c := range []types.Codec{NewJSON(), NewCBOR()} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(nil)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			v, err := DecodeAny(c, data)
			require.NoError(t, err)
			require.Nil(t, v)
		})
	}
}

func TestDecodeAny_Empty(t *testing.T) {
	v, err := DecodeAny(NewJSON(), nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMalformedPayload(t *testing.T) {
	_, err := DecodeAny(NewJSON(), []byte("{not json"))
	require.ErrorIs(t, err, types.ErrMalformedPayload)

	_, err = DecodeAny(NewCBOR(), []byte{0xff, 0x00})
	require.ErrorIs(t, err, types.ErrMalformedPayload)
}

func TestCBOR_MapShape(t *testing.T) {
	c := NewCBOR()

	data, err := c.Marshal(map[string]any{"x": "y", "n": []any{"a", true}})
	require.NoError(t, err)

	v, err := DecodeAny(c, data)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"x": "y", "n": []any{"a", true}}, v)
}

func TestJSON_RoundTripStruct(t *testing.T) {
	type order struct {
		ID    string `json:"id"`
		Total int    `json:"total"`
	}

	c := NewJSON()
	data, err := c.Marshal(order{ID: "o-1", Total: 3})
	require.NoError(t, err)

	var got order
	require.NoError(t, c.Unmarshal(data, &got))
	require.Equal(t, order{ID: "o-1", Total: 3}, got)
}

// jsonValue draws JSON-representable values using only strings, bools and
// nested containers so decoded values compare equal without numeric widening.
func jsonValue() *rapid.Generator[any] {
	leaf := rapid.OneOf(
		rapid.Just[any](nil),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Map(rapid.String(), func(s string) any { return s }),
	)

	return rapid.OneOf(
		leaf,
		rapid.Map(rapid.SliceOfN(leaf, 1, 4), func(s []any) any { return s }),
		rapid.Map(rapid.MapOfN(rapid.StringN(1, 8, -1), leaf, 1, 4), func(m map[string]any) any { return m }),
	)
}

func TestRoundTrip_Property(t *testing.T) {
	for _, c := range []types.Codec{NewJSON(), NewCBOR()} {
		t.Run(c.Name(), func(t *testing.T) {
			rapid.Check(t, func(t *rapid.T) {
				in := jsonValue().Draw(t, "payload")

				data, err := c.Marshal(in)
				require.NoError(t, err)

				out, err := DecodeAny(c, data)
				require.NoError(t, err)
				require.Equal(t, in, out)
			})
		})
	}
}
