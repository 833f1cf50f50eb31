package kvstore

import (
	"encoding/hex"
	"fmt"

	"github.com/wesleyyan-sb/minikv/internal/fconfig"
)

// Options configures Open, mirroring FlashDB's config.Config/DefaultConfig
// defaulting pattern: start from DefaultOptions and overlay overrides,
// supplied programmatically rather than loaded from a JSON file (there is
// no server process here to configure out of band).
type Options struct {
	// PageSize is the growth granularity in bytes; clamped up to
	// fconfig.MinPageSize.
	PageSize int
	// Key, if non-empty, must be a 32-character hex string (128 bits) and
	// switches the store to the AEAD-encrypted codec.
	Key string
}

// DefaultOptions returns the zero-value-safe defaults: unencrypted, one
// page of minimum size.
func DefaultOptions() Options {
	return Options{PageSize: fconfig.MinPageSize}
}

func (o Options) pageSize() int {
	if o.PageSize < fconfig.MinPageSize {
		return fconfig.MinPageSize
	}
	return o.PageSize
}

// parseKey decodes a 32-hex-character key into 16 raw bytes. Per the
// public API contract, a malformed key is a programmer error: it panics
// rather than returning an error.
func parseKey(key string) []byte {
	raw, err := hex.DecodeString(key)
	if err != nil {
		panic(fmt.Sprintf("minikv: invalid key: %v", err))
	}
	if len(raw) != 16 {
		panic(fmt.Sprintf("minikv: invalid key: want 16 bytes, got %d", len(raw)))
	}
	return raw
}
