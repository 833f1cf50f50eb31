// Package minikv is a persistent, typed key-value store for small records
// and frequent overwrites, backed by a single memory-mapped append-only
// file with a dedicated single-writer I/O thread (see the internal
// packages under internal/ for the storage engine itself). This file is
// the thin public facade: a struct wrapping an inner implementation type,
// one doc-commented method per operation, error values re-exported.
package minikv

import (
	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/kvstore"
	"github.com/wesleyyan-sb/minikv/internal/minikvlog"
	"github.com/wesleyyan-sb/minikv/internal/record"
)

// DB is a handle to an open store directory. Multiple Opens of the same
// directory in one process share the same underlying Store (see
// internal/kvstore's interning table); each handle must be closed
// independently.
type DB struct {
	store *kvstore.Store
}

// Option configures Open.
type Option func(*kvstore.Options)

// WithPageSize sets the growth granularity in bytes (clamped up to a 4 KiB
// minimum).
func WithPageSize(bytes int) Option {
	return func(o *kvstore.Options) { o.PageSize = bytes }
}

// WithEncryptionKey switches the store to the AEAD-encrypted codec, keyed
// by a 32-hex-character (128-bit) string. A malformed key panics, per the
// public API contract.
func WithEncryptionKey(hexKey string) Option {
	return func(o *kvstore.Options) { o.Key = hexKey }
}

// Open opens or creates the store rooted at dir.
func Open(dir string, opts ...Option) (*DB, error) {
	o := kvstore.DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	store, err := kvstore.Open(dir, o)
	if err != nil {
		return nil, err
	}
	return &DB{store: store}, nil
}

// PutI32 stores an int32 value for key.
func (db *DB) PutI32(key string, v int32) error { return db.store.Put(record.FromI32(key, v)) }

// GetI32 retrieves the int32 value for key.
func (db *DB) GetI32(key string) (int32, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return 0, err
	}
	return rec.I32()
}

// PutStr stores a string value for key.
func (db *DB) PutStr(key, v string) error { return db.store.Put(record.FromStr(key, v)) }

// GetStr retrieves the string value for key.
func (db *DB) GetStr(key string) (string, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return "", err
	}
	return rec.Str()
}

// PutBool stores a bool value for key.
func (db *DB) PutBool(key string, v bool) error { return db.store.Put(record.FromBool(key, v)) }

// GetBool retrieves the bool value for key.
func (db *DB) GetBool(key string) (bool, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return false, err
	}
	return rec.Bool()
}

// PutI64 stores an int64 value for key.
func (db *DB) PutI64(key string, v int64) error { return db.store.Put(record.FromI64(key, v)) }

// GetI64 retrieves the int64 value for key.
func (db *DB) GetI64(key string) (int64, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return 0, err
	}
	return rec.I64()
}

// PutF32 stores a float32 value for key.
func (db *DB) PutF32(key string, v float32) error { return db.store.Put(record.FromF32(key, v)) }

// GetF32 retrieves the float32 value for key.
func (db *DB) GetF32(key string) (float32, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return 0, err
	}
	return rec.F32()
}

// PutF64 stores a float64 value for key.
func (db *DB) PutF64(key string, v float64) error { return db.store.Put(record.FromF64(key, v)) }

// GetF64 retrieves the float64 value for key.
func (db *DB) GetF64(key string) (float64, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return 0, err
	}
	return rec.F64()
}

// PutBytes stores a raw byte slice for key.
func (db *DB) PutBytes(key string, v []byte) error { return db.store.Put(record.FromByteArray(key, v)) }

// GetBytes retrieves the byte slice stored for key.
func (db *DB) GetBytes(key string) ([]byte, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return nil, err
	}
	return rec.ByteArray()
}

// PutI32Array stores a []int32 for key.
func (db *DB) PutI32Array(key string, v []int32) error {
	return db.store.Put(record.FromI32Array(key, v))
}

// GetI32Array retrieves the []int32 stored for key.
func (db *DB) GetI32Array(key string) ([]int32, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return nil, err
	}
	return rec.I32Array()
}

// PutI64Array stores a []int64 for key.
func (db *DB) PutI64Array(key string, v []int64) error {
	return db.store.Put(record.FromI64Array(key, v))
}

// GetI64Array retrieves the []int64 stored for key.
func (db *DB) GetI64Array(key string) ([]int64, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return nil, err
	}
	return rec.I64Array()
}

// PutF32Array stores a []float32 for key.
func (db *DB) PutF32Array(key string, v []float32) error {
	return db.store.Put(record.FromF32Array(key, v))
}

// GetF32Array retrieves the []float32 stored for key.
func (db *DB) GetF32Array(key string) ([]float32, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return nil, err
	}
	return rec.F32Array()
}

// PutF64Array stores a []float64 for key.
func (db *DB) PutF64Array(key string, v []float64) error {
	return db.store.Put(record.FromF64Array(key, v))
}

// GetF64Array retrieves the []float64 stored for key.
func (db *DB) GetF64Array(key string) ([]float64, error) {
	rec, err := db.store.Get(key)
	if err != nil {
		return nil, err
	}
	return rec.F64Array()
}

// Delete removes key. Deleting an already-absent key is a no-op.
func (db *DB) Delete(key string) error { return db.store.Delete(key) }

// ClearData discards the store's data and meta files and renders this and
// every other handle on the same directory inert. Idempotent.
func (db *DB) ClearData() error { return db.store.ClearData() }

// Close releases this handle. The underlying Store is only torn down once
// every handle on the same directory has been closed.
func (db *DB) Close() error { return db.store.Release() }

// Stats reports the store's current key count, on-disk frame count, and
// file size.
func (db *DB) Stats() (kvstore.Stats, error) { return db.store.Stats() }

// Batch groups several writes into one durability task.
type Batch struct{ inner *kvstore.Batch }

// NewBatch starts a Batch against db.
func (db *DB) NewBatch() *Batch { return &Batch{inner: db.store.NewBatch()} }

// PutI32 stages an int32 put.
func (b *Batch) PutI32(key string, v int32) { b.inner.Put(record.FromI32(key, v)) }

// PutStr stages a string put.
func (b *Batch) PutStr(key, v string) { b.inner.Put(record.FromStr(key, v)) }

// PutBool stages a bool put.
func (b *Batch) PutBool(key string, v bool) { b.inner.Put(record.FromBool(key, v)) }

// PutI64 stages an int64 put.
func (b *Batch) PutI64(key string, v int64) { b.inner.Put(record.FromI64(key, v)) }

// PutF32 stages a float32 put.
func (b *Batch) PutF32(key string, v float32) { b.inner.Put(record.FromF32(key, v)) }

// PutF64 stages a float64 put.
func (b *Batch) PutF64(key string, v float64) { b.inner.Put(record.FromF64(key, v)) }

// PutBytes stages a byte-slice put.
func (b *Batch) PutBytes(key string, v []byte) { b.inner.Put(record.FromByteArray(key, v)) }

// Delete stages a delete.
func (b *Batch) Delete(key string) { b.inner.Delete(key) }

// Commit applies every staged op to the index and posts one durability
// task for all of them.
func (b *Batch) Commit() error { return b.inner.Commit() }

// SetLogger replaces the package-wide active logger. Passing nil restores
// the default.
func SetLogger(l minikvlog.Logger) { minikvlog.SetLogger(l) }

// SetLogLevel sets the minimum level that reaches the active logger.
func SetLogLevel(level minikvlog.Level) { minikvlog.SetLevel(level) }

// Logger and Level re-export the logging facade's types so callers don't
// need to import internal/minikvlog directly.
type (
	Logger = minikvlog.Logger
	Level  = minikvlog.Level
)

// Log level constants, re-exported.
const (
	LogOff     = minikvlog.Off
	LogError   = minikvlog.Error
	LogWarn    = minikvlog.Warn
	LogInfo    = minikvlog.Info
	LogDebug   = minikvlog.Debug
	LogVerbose = minikvlog.Verbose
)

// Error kinds, re-exported so callers can match with errors.Is against a
// bare kind (e.g. errors.Is(err, minikv.ErrKeyNotFound)).
var (
	ErrKeyNotFound    = errs.ErrKeyNotFound
	ErrTypeMismatch   = errs.ErrTypeMismatch
	ErrDataInvalid    = errs.ErrDataInvalid
	ErrInstanceClosed = errs.ErrInstanceClosed
)
