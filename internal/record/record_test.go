package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wesleyyan-sb/minikv/internal/errs"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Record{
		FromI32("a", -7),
		FromStr("b", "hello world"),
		FromBool("c", true),
		FromI64("d", 1<<40),
		FromF32("e", 3.5),
		FromF64("f", -2.25),
		FromByteArray("g", []byte{1, 2, 3, 4}),
		FromI32Array("h", []int32{1, -2, 3}),
		FromI64Array("i", []int64{1, -2, 3}),
		FromF32Array("j", []float32{1.5, -2.5}),
		FromF64Array("k", []float64{1.5, -2.5}),
		Tombstone("l"),
	}
	for _, rec := range cases {
		decoded, err := Decode(rec.Encode())
		require.NoError(t, err)
		require.Equal(t, rec.Key, decoded.Key)
		require.Equal(t, rec.Type, decoded.Type)
		require.Equal(t, rec.Value, decoded.Value)
	}
}

func TestTypedAccessors(t *testing.T) {
	v, err := FromI32("k", 42).I32()
	require.NoError(t, err)
	require.Equal(t, int32(42), v)

	s, err := FromStr("k", "hi").Str()
	require.NoError(t, err)
	require.Equal(t, "hi", s)

	arr, err := FromI32Array("k", []int32{1, 2, 3}).I32Array()
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, arr)
}

func TestTypeMismatch(t *testing.T) {
	_, err := FromI32("k", 1).Str()
	require.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestDataInvalid(t *testing.T) {
	bad := Record{Key: "k", Type: I32, Value: []byte{1, 2}}
	_, err := bad.I32()
	require.ErrorIs(t, err, errs.ErrDataInvalid)

	badArr := Record{Key: "k", Type: I32Array, Value: []byte{1, 2, 3}}
	_, err = badArr.I32Array()
	require.ErrorIs(t, err, errs.ErrDataInvalid)
}

func TestTombstoneReadsAsKeyNotFound(t *testing.T) {
	tomb := Tombstone("k")
	require.True(t, tomb.IsTombstone())
	_, err := tomb.I32()
	require.ErrorIs(t, err, errs.ErrKeyNotFound)
	_, err = tomb.Str()
	require.ErrorIs(t, err, errs.ErrKeyNotFound)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	require.Error(t, err)

	_, err = Decode([]byte{byte(STR), 0, 5, 'a', 'b'})
	require.Error(t, err)
}
