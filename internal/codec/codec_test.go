package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wesleyyan-sb/minikv/internal/record"
)

func TestCRC8RoundTrip(t *testing.T) {
	c := CRC8{}
	rec := record.FromI32("key1", 1)
	payload := rec.Encode()

	frame, err := c.EncodeFrame(payload, 0)
	require.NoError(t, err)

	decoded, consumed, err := c.DecodeFrame(frame, 0)
	require.NoError(t, err)
	require.Equal(t, len(frame), consumed)
	require.NotNil(t, decoded)
	require.Equal(t, rec.Key, decoded.Key)
	require.Equal(t, rec.Value, decoded.Value)
}

func TestCRC8SkipsCorruptFrameButAdvances(t *testing.T) {
	c := CRC8{}
	rec := record.FromI32("key1", 1)
	frame, err := c.EncodeFrame(rec.Encode(), 0)
	require.NoError(t, err)

	corrupt := append([]byte(nil), frame...)
	corrupt[len(corrupt)-1] ^= 0xFF // flip the stored CRC byte

	decoded, consumed, err := c.DecodeFrame(corrupt, 0)
	require.NoError(t, err)
	require.Nil(t, decoded)
	require.Equal(t, len(frame), consumed)
}

func TestCRC8TruncatedHeaderIsFatal(t *testing.T) {
	c := CRC8{}
	_, _, err := c.DecodeFrame([]byte{0, 0}, 0)
	require.Error(t, err)
}

// fakeStream is a deterministic Stream stand-in so codec tests don't
// depend on the keystream package's concrete EAX construction.
type fakeStream struct{ fail bool }

func (f fakeStream) Seal(plaintext []byte, counter uint32) ([]byte, error) {
	out := make([]byte, len(plaintext)+1)
	copy(out, plaintext)
	out[len(plaintext)] = byte(counter)
	return out, nil
}

func (f fakeStream) Open(ciphertext []byte, counter uint32) ([]byte, error) {
	if f.fail || len(ciphertext) == 0 || ciphertext[len(ciphertext)-1] != byte(counter) {
		return nil, errAuth
	}
	return ciphertext[:len(ciphertext)-1], nil
}

var errAuth = &authError{}

type authError struct{}

func (*authError) Error() string { return "auth failed" }

func TestAEADRoundTrip(t *testing.T) {
	c := AEAD{Stream: fakeStream{}}
	rec := record.FromStr("key1", "value1")
	payload := rec.Encode()

	frame, err := c.EncodeFrame(payload, 5)
	require.NoError(t, err)

	decoded, consumed, err := c.DecodeFrame(frame, 5)
	require.NoError(t, err)
	require.Equal(t, len(frame), consumed)
	require.NotNil(t, decoded)
	require.Equal(t, rec.Key, decoded.Key)
}

func TestAEADAuthFailureSkipsFrame(t *testing.T) {
	c := AEAD{Stream: fakeStream{}}
	rec := record.FromStr("key1", "value1")
	frame, err := c.EncodeFrame(rec.Encode(), 5)
	require.NoError(t, err)

	// wrong position: the fake stream's per-position tag check fails.
	decoded, consumed, err := c.DecodeFrame(frame, 6)
	require.NoError(t, err)
	require.Nil(t, decoded)
	require.Equal(t, len(frame), consumed)
}
