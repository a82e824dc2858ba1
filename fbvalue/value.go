// Package fbvalue defines the tagged value model shared by every Firebird
// driver implementation: SQL parameter/column values, fetched columns, and
// the small enumerations (statement kind, dialect, transaction isolation
// and operation) that the driver contract and the session engine pass
// around without interpreting.
package fbvalue

import "fmt"

// MaxInlineTextLen is the largest Text value that is marshaled as inline
// TEXT. Anything longer goes over the wire as a BLOB.
const MaxInlineTextLen = 32767

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInteger
	KindFloating
	KindTimestamp
	KindBinary
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloating:
		return "floating"
	case KindTimestamp:
		return "timestamp"
	case KindBinary:
		return "binary"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a tagged union over the SQL value domain a Firebird driver
// understands: text, 64-bit integer, 64-bit float, naive timestamp, binary,
// boolean, or null. Only the field matching Kind is meaningful.
type Value struct {
	kind      Kind
	text      string
	integer   int64
	floating  float64
	timestamp Timestamp
	binary    []byte
	boolean   bool
}

// Timestamp is a naive (zone-less) date-time, mirroring the wire
// representation of a Firebird TIMESTAMP column. Calendar conversion and
// formatting are left to callers; this layer only carries the value.
type Timestamp struct {
	Year, Month, Day          int
	Hour, Minute, Second      int
	Nanosecond                int
}

// Null is the zero Value and reports Kind() == KindNull.
var Null = Value{}

// Text builds a Value holding a string. Long strings (> MaxInlineTextLen
// UTF-8 bytes) are marshaled via the BLOB path; see SQLVar.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Integer builds a Value holding a 64-bit signed integer.
func Integer(i int64) Value { return Value{kind: KindInteger, integer: i} }

// Floating builds a Value holding a 64-bit float.
func Floating(f float64) Value { return Value{kind: KindFloating, floating: f} }

// TimestampValue builds a Value holding a naive timestamp.
func TimestampValue(t Timestamp) Value { return Value{kind: KindTimestamp, timestamp: t} }

// Binary builds a Value holding an opaque byte sequence.
func Binary(b []byte) Value { return Value{kind: KindBinary, binary: b} }

// Boolean builds a Value holding a bool. Only meaningful against Firebird
// 3.0+ servers; older servers reject the SQL_BOOLEAN type code.
func Boolean(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

// Kind reports which variant is populated.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string payload and whether v is a Text value.
func (v Value) Text() (string, bool) { return v.text, v.kind == KindText }

// Integer returns the int64 payload and whether v is an Integer value.
func (v Value) Integer() (int64, bool) { return v.integer, v.kind == KindInteger }

// Floating returns the float64 payload and whether v is a Floating value.
func (v Value) Floating() (float64, bool) { return v.floating, v.kind == KindFloating }

// Timestamp returns the timestamp payload and whether v is a Timestamp value.
func (v Value) Timestamp() (Timestamp, bool) { return v.timestamp, v.kind == KindTimestamp }

// Binary returns the byte payload and whether v is a Binary value.
func (v Value) Binary() ([]byte, bool) { return v.binary, v.kind == KindBinary }

// Boolean returns the bool payload and whether v is a Boolean value.
func (v Value) Boolean() (bool, bool) { return v.boolean, v.kind == KindBoolean }

// FromInt widens any signed host integer up to 32 bits to Integer(int64).
func FromInt[T ~int8 | ~int16 | ~int32 | ~int](i T) Value { return Integer(int64(i)) }

// FromInt64 preserves a 64-bit signed host integer as Integer(int64).
func FromInt64(i int64) Value { return Integer(i) }

// FromUint widens any unsigned host integer up to 32 bits to Integer(int64).
func FromUint[T ~uint8 | ~uint16 | ~uint32 | ~uint](u T) Value { return Integer(int64(u)) }

// FromFloat widens any host float to Floating(float64).
func FromFloat[T ~float32 | ~float64](f T) Value { return Floating(float64(f)) }

// FromBool builds a Boolean Value from a host bool.
func FromBool(b bool) Value { return Boolean(b) }

// FromBytes builds a Binary Value from a host byte slice.
func FromBytes(b []byte) Value { return Binary(b) }

// FromPtr is the Option<T>-equivalent conversion: a nil pointer becomes
// Null, a non-nil pointer converts *v with convert.
func FromPtr[T any](p *T, convert func(T) Value) Value {
	if p == nil {
		return Null
	}
	return convert(*p)
}

// Values widens a slice of host primitives into Value using the rules of
// §4.2: signed/unsigned integers <= 32 bits and int64 go to Integer,
// float32/float64 go to Floating, []byte goes to Binary, bool goes to
// Boolean, string goes to Text, nil goes to Null. Anything else panics,
// since it indicates a caller bug rather than a recoverable condition.
func Values(args ...any) []Value {
	out := make([]Value, len(args))
	for i, a := range args {
		out[i] = fromAny(a)
	}
	return out
}

func fromAny(a any) Value {
	switch t := a.(type) {
	case nil:
		return Null
	case Value:
		return t
	case string:
		return Text(t)
	case int:
		return Integer(int64(t))
	case int8:
		return Integer(int64(t))
	case int16:
		return Integer(int64(t))
	case int32:
		return Integer(int64(t))
	case int64:
		return Integer(t)
	case uint:
		return Integer(int64(t))
	case uint8:
		return Integer(int64(t))
	case uint16:
		return Integer(int64(t))
	case uint32:
		return Integer(int64(t))
	case float32:
		return Floating(float64(t))
	case float64:
		return Floating(t)
	case bool:
		return Boolean(t)
	case []byte:
		return Binary(t)
	default:
		panic(fmt.Sprintf("fbvalue: unsupported host type %T", a))
	}
}

// SQLVar returns the Firebird SQLVAR (type-code, subtype-code) pair this
// value marshals to. The low bit of the type code signals nullability in
// the Firebird convention, which is why every code here is odd.
func (v Value) SQLVar() (typeCode, subtypeCode int) {
	switch v.kind {
	case KindText:
		if len(v.text) > MaxInlineTextLen {
			return sqlBlob + 1, 1
		}
		return sqlText + 1, 0
	case KindInteger:
		return sqlInt64 + 1, 0
	case KindFloating:
		return sqlDouble + 1, 0
	case KindTimestamp:
		return sqlTimestamp + 1, 0
	case KindBinary:
		return sqlBlob + 1, 0
	case KindBoolean:
		return sqlBoolean + 1, 0
	case KindNull:
		fallthrough
	default:
		return sqlText + 1, 0
	}
}

// Firebird SQLVAR base type codes (ibase.h conventions). Only the codes
// this layer marshals against are declared; the full table belongs to a
// concrete driver's wire codec.
const (
	sqlText      = 452
	sqlInt64     = 580
	sqlDouble    = 480
	sqlTimestamp = 510
	sqlBlob      = 520
	sqlBoolean   = 32764
)

// Column is a single fetched cell: a Value plus the nullability bit the
// server reported for this row position. A NULL cell carries Value ==
// Null and Null == true; a non-NULL cell carries the real Value and
// Null == false.
type Column struct {
	Value Value
	Null  bool
}
