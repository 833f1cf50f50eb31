// Package codec implements the two framed-record wire formats: an
// unencrypted CRC8-checked frame and an AEAD-encrypted frame keyed by
// frame position. Both share one interface so the writer and replay path
// stay agnostic to which is active.
package codec

import (
	"encoding/binary"

	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/record"
)

// Codec frames and unframes a record payload. position is the zero-based
// ordinal of the frame within the file; the CRC variant ignores it, the
// AEAD variant uses it as the counter.
type Codec interface {
	// EncodeFrame wraps payload (a record.Record's Encode() output) into a
	// self-contained frame.
	EncodeFrame(payload []byte, position uint32) ([]byte, error)
	// DecodeFrame reads one frame from the head of buf. A non-nil error
	// means the frame's length prefix itself could not be trusted and
	// replay must stop. A nil rec with nil err means the frame's integrity
	// check failed (CRC mismatch or AEAD auth failure); consumed is still
	// valid so replay can skip the frame and continue.
	DecodeFrame(buf []byte, position uint32) (rec *record.Record, consumed int, err error)
}

// Stream is the AEAD capability the encrypted codec wraps. keystream.Stream
// satisfies it; declared here (rather than imported) to avoid the
// codec<->keystream packages depending on each other's concrete types.
type Stream interface {
	Seal(plaintext []byte, counter uint32) ([]byte, error)
	Open(ciphertext []byte, counter uint32) ([]byte, error)
}

// --- CRC8 variant ---

// CRC8 frames payloads as u32(len(payload)+1) | payload | crc8(payload).
type CRC8 struct{}

func (CRC8) EncodeFrame(payload []byte, _ uint32) ([]byte, error) {
	frame := make([]byte, 4+len(payload)+1)
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)+1))
	copy(frame[4:], payload)
	frame[4+len(payload)] = crc8AUTOSAR(payload)
	return frame, nil
}

func (CRC8) DecodeFrame(buf []byte, _ uint32) (*record.Record, int, error) {
	if len(buf) < 4 {
		return nil, 0, errs.New(errs.DecodeFailed)
	}
	lenPlusCRC := int(binary.BigEndian.Uint32(buf[:4]))
	consumed := 4 + lenPlusCRC
	if lenPlusCRC < 1 || len(buf) < consumed {
		return nil, 0, errs.New(errs.DecodeFailed)
	}
	payload := buf[4 : 4+lenPlusCRC-1]
	storedCRC := buf[4+lenPlusCRC-1]
	if crc8AUTOSAR(payload) != storedCRC {
		return nil, consumed, nil
	}
	rec, err := record.Decode(payload)
	if err != nil {
		return nil, consumed, nil
	}
	return &rec, consumed, nil
}

// --- AEAD variant ---

// AEAD frames payloads as u32(len(ciphertext)) | ciphertext, where
// ciphertext is stream.Seal(payload, position).
type AEAD struct {
	Stream Stream
}

func (c AEAD) EncodeFrame(payload []byte, position uint32) ([]byte, error) {
	cipherBytes, err := c.Stream.Seal(payload, position)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 4+len(cipherBytes))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(cipherBytes)))
	copy(frame[4:], cipherBytes)
	return frame, nil
}

func (c AEAD) DecodeFrame(buf []byte, position uint32) (*record.Record, int, error) {
	if len(buf) < 4 {
		return nil, 0, errs.New(errs.DecodeFailed)
	}
	cipherLen := int(binary.BigEndian.Uint32(buf[:4]))
	consumed := 4 + cipherLen
	if len(buf) < consumed {
		return nil, 0, errs.New(errs.DecodeFailed)
	}
	cipherBytes := buf[4:consumed]
	payload, err := c.Stream.Open(cipherBytes, position)
	if err != nil {
		return nil, consumed, nil
	}
	rec, err := record.Decode(payload)
	if err != nil {
		return nil, consumed, nil
	}
	return &rec, consumed, nil
}
