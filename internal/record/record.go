// Package record implements the typed key/value tuple and its canonical
// self-describing byte encoding: type tag, then length-prefixed key, then
// length-prefixed value. The schema is hand-rolled rather than generated;
// this is the one place it needs to be stable, so it is written once and
// kept deliberately simple.
package record

import (
	"encoding/binary"
	"math"

	"github.com/wesleyyan-sb/minikv/internal/errs"
)

// Type enumerates the supported value shapes.
type Type uint8

const (
	I32 Type = iota
	STR
	BOOL
	I64
	F32
	F64
	ByteArray
	I32Array
	I64Array
	F32Array
	F64Array
	Deleted
)

func (t Type) String() string {
	switch t {
	case I32:
		return "I32"
	case STR:
		return "STR"
	case BOOL:
		return "BOOL"
	case I64:
		return "I64"
	case F32:
		return "F32"
	case F64:
		return "F64"
	case ByteArray:
		return "BYTE_ARRAY"
	case I32Array:
		return "I32_ARRAY"
	case I64Array:
		return "I64_ARRAY"
	case F32Array:
		return "F32_ARRAY"
	case F64Array:
		return "F64_ARRAY"
	case Deleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Record is the typed key/value tuple, before framing.
type Record struct {
	Key   string
	Type  Type
	Value []byte
}

// IsTombstone reports whether r marks a logical deletion.
func (r Record) IsTombstone() bool {
	return r.Type == Deleted
}

// Tombstone builds a DELETED record for key.
func Tombstone(key string) Record {
	return Record{Key: key, Type: Deleted}
}

// Encode serialises r into its canonical payload bytes: the bytes that get
// framed by the codec package. Schema: u8 type | u16be keyLen | key |
// u32be valueLen | value.
func (r Record) Encode() []byte {
	buf := make([]byte, 1+2+len(r.Key)+4+len(r.Value))
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint16(buf[1:3], uint16(len(r.Key)))
	off := 3
	copy(buf[off:], r.Key)
	off += len(r.Key)
	binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(r.Value)))
	off += 4
	copy(buf[off:], r.Value)
	return buf
}

// Decode parses payload produced by Encode, returning DecodeFailed on any
// malformed input.
func Decode(payload []byte) (Record, error) {
	if len(payload) < 3 {
		return Record{}, errs.Newf(errs.DecodeFailed, "payload too short: %d bytes", len(payload))
	}
	t := Type(payload[0])
	keyLen := int(binary.BigEndian.Uint16(payload[1:3]))
	off := 3
	if len(payload) < off+keyLen+4 {
		return Record{}, errs.Newf(errs.DecodeFailed, "truncated key/value header")
	}
	key := string(payload[off : off+keyLen])
	off += keyLen
	valLen := int(binary.BigEndian.Uint32(payload[off : off+4]))
	off += 4
	if len(payload) < off+valLen {
		return Record{}, errs.Newf(errs.DecodeFailed, "truncated value")
	}
	value := payload[off : off+valLen]
	return Record{Key: key, Type: t, Value: value}, nil
}

// Typed constructors.

func FromI32(key string, v int32) Record {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return Record{Key: key, Type: I32, Value: buf}
}

func FromStr(key, v string) Record {
	return Record{Key: key, Type: STR, Value: []byte(v)}
}

func FromBool(key string, v bool) Record {
	b := byte(0)
	if v {
		b = 1
	}
	return Record{Key: key, Type: BOOL, Value: []byte{b}}
}

func FromI64(key string, v int64) Record {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return Record{Key: key, Type: I64, Value: buf}
}

func FromF32(key string, v float32) Record {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(v))
	return Record{Key: key, Type: F32, Value: buf}
}

func FromF64(key string, v float64) Record {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return Record{Key: key, Type: F64, Value: buf}
}

func FromByteArray(key string, v []byte) Record {
	value := make([]byte, len(v))
	copy(value, v)
	return Record{Key: key, Type: ByteArray, Value: value}
}

func FromI32Array(key string, v []int32) Record {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(x))
	}
	return Record{Key: key, Type: I32Array, Value: buf}
}

func FromI64Array(key string, v []int64) Record {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(x))
	}
	return Record{Key: key, Type: I64Array, Value: buf}
}

func FromF32Array(key string, v []float32) Record {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return Record{Key: key, Type: F32Array, Value: buf}
}

func FromF64Array(key string, v []float64) Record {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return Record{Key: key, Type: F64Array, Value: buf}
}

// Typed accessors. Tombstones surface as KeyNotFound regardless of the
// requested type.

func (r Record) I32() (int32, error) {
	if r.IsTombstone() {
		return 0, errs.New(errs.KeyNotFound)
	}
	if r.Type != I32 {
		return 0, errs.New(errs.TypeMismatch)
	}
	if len(r.Value) != 4 {
		return 0, errs.New(errs.DataInvalid)
	}
	return int32(binary.BigEndian.Uint32(r.Value)), nil
}

func (r Record) Str() (string, error) {
	if r.IsTombstone() {
		return "", errs.New(errs.KeyNotFound)
	}
	if r.Type != STR {
		return "", errs.New(errs.TypeMismatch)
	}
	return string(r.Value), nil
}

func (r Record) Bool() (bool, error) {
	if r.IsTombstone() {
		return false, errs.New(errs.KeyNotFound)
	}
	if r.Type != BOOL {
		return false, errs.New(errs.TypeMismatch)
	}
	if len(r.Value) != 1 {
		return false, errs.New(errs.DataInvalid)
	}
	return r.Value[0] != 0, nil
}

func (r Record) I64() (int64, error) {
	if r.IsTombstone() {
		return 0, errs.New(errs.KeyNotFound)
	}
	if r.Type != I64 {
		return 0, errs.New(errs.TypeMismatch)
	}
	if len(r.Value) != 8 {
		return 0, errs.New(errs.DataInvalid)
	}
	return int64(binary.BigEndian.Uint64(r.Value)), nil
}

func (r Record) F32() (float32, error) {
	if r.IsTombstone() {
		return 0, errs.New(errs.KeyNotFound)
	}
	if r.Type != F32 {
		return 0, errs.New(errs.TypeMismatch)
	}
	if len(r.Value) != 4 {
		return 0, errs.New(errs.DataInvalid)
	}
	return math.Float32frombits(binary.BigEndian.Uint32(r.Value)), nil
}

func (r Record) F64() (float64, error) {
	if r.IsTombstone() {
		return 0, errs.New(errs.KeyNotFound)
	}
	if r.Type != F64 {
		return 0, errs.New(errs.TypeMismatch)
	}
	if len(r.Value) != 8 {
		return 0, errs.New(errs.DataInvalid)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(r.Value)), nil
}

func (r Record) ByteArray() ([]byte, error) {
	if r.IsTombstone() {
		return nil, errs.New(errs.KeyNotFound)
	}
	if r.Type != ByteArray {
		return nil, errs.New(errs.TypeMismatch)
	}
	out := make([]byte, len(r.Value))
	copy(out, r.Value)
	return out, nil
}

func (r Record) I32Array() ([]int32, error) {
	if r.IsTombstone() {
		return nil, errs.New(errs.KeyNotFound)
	}
	if r.Type != I32Array {
		return nil, errs.New(errs.TypeMismatch)
	}
	if len(r.Value)%4 != 0 {
		return nil, errs.New(errs.DataInvalid)
	}
	out := make([]int32, len(r.Value)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.Value[i*4:]))
	}
	return out, nil
}

func (r Record) I64Array() ([]int64, error) {
	if r.IsTombstone() {
		return nil, errs.New(errs.KeyNotFound)
	}
	if r.Type != I64Array {
		return nil, errs.New(errs.TypeMismatch)
	}
	if len(r.Value)%8 != 0 {
		return nil, errs.New(errs.DataInvalid)
	}
	out := make([]int64, len(r.Value)/8)
	for i := range out {
		out[i] = int64(binary.BigEndian.Uint64(r.Value[i*8:]))
	}
	return out, nil
}

func (r Record) F32Array() ([]float32, error) {
	if r.IsTombstone() {
		return nil, errs.New(errs.KeyNotFound)
	}
	if r.Type != F32Array {
		return nil, errs.New(errs.TypeMismatch)
	}
	if len(r.Value)%4 != 0 {
		return nil, errs.New(errs.DataInvalid)
	}
	out := make([]float32, len(r.Value)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(r.Value[i*4:]))
	}
	return out, nil
}

func (r Record) F64Array() ([]float64, error) {
	if r.IsTombstone() {
		return nil, errs.New(errs.KeyNotFound)
	}
	if r.Type != F64Array {
		return nil, errs.New(errs.TypeMismatch)
	}
	if len(r.Value)%8 != 0 {
		return nil, errs.New(errs.DataInvalid)
	}
	out := make([]float64, len(r.Value)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(r.Value[i*8:]))
	}
	return out, nil
}
