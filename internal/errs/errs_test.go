package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesOnKindOnly(t *testing.T) {
	err := Newf(KeyNotFound, "key %q", "foo")
	require.True(t, errors.Is(err, ErrKeyNotFound))
	require.False(t, errors.Is(err, ErrTypeMismatch))
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	underlying := errors.New("boom")
	wrapped := Wrap(IOError, underlying)
	require.ErrorIs(t, wrapped, underlying)
	require.Equal(t, "boom", wrapped.Reason)
}

func TestWrapNilReturnsBareError(t *testing.T) {
	wrapped := Wrap(IOError, nil)
	require.Nil(t, wrapped.Err)
	require.Equal(t, "IOError", wrapped.Error())
}

func TestErrorStringIncludesReason(t *testing.T) {
	err := Newf(DataInvalid, "bad length %d", 7)
	require.Equal(t, "DataInvalid: bad length 7", err.Error())
}
