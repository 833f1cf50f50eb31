// Package keystream implements the encrypted builds' AEAD stream: AES-128
// in EAX mode, keyed by a persistent 11-byte nonce and a 32-bit big-endian
// frame-position counter, built on crypto/aes + crypto/cipher.
package keystream

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"math"
	"os"

	"github.com/natefinch/atomic"

	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/minikvlog"
)

const (
	// NonceSize is the length of the persisted per-store nonce.
	NonceSize = 11

	// CounterMax is the first frame position that Seal and Open refuse;
	// every position below it may be sealed or opened. Sealing at this
	// position would make the next position wrap the 32-bit counter back to
	// a value already used under this nonce.
	CounterMax = math.MaxUint32

	logTag = "minikv:keystream"
)

// Stream is the per-Store AEAD keystream state. Seal/Open are stateless
// given (key, nonce, counter); Stream only bundles the prepared cipher and
// persisted nonce for convenient reuse by the writer.
type Stream struct {
	block cipher.Block
	nonce [NonceSize]byte
}

// New builds a Stream directly from a 16-byte key and 11-byte nonce,
// bypassing meta-file persistence. Used by tests and by callers that
// manage the meta file themselves.
func New(key []byte, nonce [NonceSize]byte) (*Stream, error) {
	block, err := newAESBlock(key)
	if err != nil {
		return nil, err
	}
	return &Stream{block: block, nonce: nonce}, nil
}

// Open loads (or, if absent/invalid, generates and persists) the nonce at
// metaPath and returns a ready Stream. A missing, unreadable, or
// wrong-length meta file is treated as "start over": a fresh nonce is
// generated and all ciphertext written under the previous nonce becomes
// unreadable, which is why this path always logs a warning.
func Open(key []byte, metaPath string) (*Stream, error) {
	block, err := newAESBlock(key)
	if err != nil {
		return nil, err
	}
	nonce, err := loadOrInitNonce(metaPath)
	if err != nil {
		return nil, err
	}
	return &Stream{block: block, nonce: nonce}, nil
}

func loadOrInitNonce(metaPath string) ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	data, err := os.ReadFile(metaPath)
	if err == nil && len(data) == NonceSize {
		copy(nonce[:], data)
		return nonce, nil
	}
	if err != nil && !os.IsNotExist(err) {
		minikvlog.Warnf(logTag, "meta file %s unreadable (%v); regenerating nonce, existing ciphertext is now unrecoverable", metaPath, err)
	} else if err == nil {
		minikvlog.Warnf(logTag, "meta file %s has wrong length %d; regenerating nonce, existing ciphertext is now unrecoverable", metaPath, len(data))
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, errs.Wrap(errs.EncryptFailed, err)
	}
	if err := persistNonce(metaPath, nonce); err != nil {
		return nonce, err
	}
	return nonce, nil
}

// Reinit generates a fresh nonce and rewrites the meta file, as required
// after compaction (AEAD counters must never repeat under the same
// nonce). The Stream's cipher key is unchanged.
func (s *Stream) Reinit(metaPath string) error {
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errs.Wrap(errs.EncryptFailed, err)
	}
	if err := persistNonce(metaPath, nonce); err != nil {
		return err
	}
	s.nonce = nonce
	return nil
}

func persistNonce(metaPath string, nonce [NonceSize]byte) error {
	if err := atomic.WriteFile(metaPath, bytes.NewReader(nonce[:])); err != nil {
		return errs.Wrap(errs.IOError, err)
	}
	return nil
}

func frameNonce(base [NonceSize]byte, counter uint32) []byte {
	n := make([]byte, NonceSize+4)
	copy(n, base[:])
	binary.BigEndian.PutUint32(n[NonceSize:], counter)
	return n
}

// Seal encrypts plaintext at the given frame counter.
func (s *Stream) Seal(plaintext []byte, counter uint32) ([]byte, error) {
	if counter >= CounterMax {
		return nil, errs.Newf(errs.EncryptFailed, "counter overflow at position %d", counter)
	}
	return eaxSeal(s.block, frameNonce(s.nonce, counter), nil, plaintext), nil
}

// Open decrypts ciphertext sealed at the given frame counter.
func (s *Stream) Open(ciphertext []byte, counter uint32) ([]byte, error) {
	if counter >= CounterMax {
		return nil, errs.Newf(errs.DecryptFailed, "counter overflow at position %d", counter)
	}
	plaintext, err := eaxOpen(s.block, frameNonce(s.nonce, counter), nil, ciphertext)
	if err != nil {
		return nil, errs.Wrap(errs.DecryptFailed, err)
	}
	return plaintext, nil
}
