package schema

import (
	"strconv"
	"time"

	"github.com/andreyvit/packdb/bytepack"
	"github.com/google/uuid"
)

// FieldValue holds a single value of one of the storable kinds. FieldValues
// are comparable with == and usable as map keys; equality is structural.
type FieldValue struct {
	kind Kind
	num  int64 // IntI32, Timestamp (unix seconds)
	b    bool
	text string
	id   uuid.UUID
}

func IntValue(v int32) FieldValue {
	return FieldValue{kind: IntI32, num: int64(v)}
}

func BoolValue(v bool) FieldValue {
	return FieldValue{kind: Bool, b: v}
}

// TimestampValue truncates t to whole seconds.
func TimestampValue(t time.Time) FieldValue {
	return FieldValue{kind: Timestamp, num: t.Unix()}
}

func UnixValue(sec int64) FieldValue {
	return FieldValue{kind: Timestamp, num: sec}
}

func TextValue(v string) FieldValue {
	return FieldValue{kind: Text, text: v}
}

func RecordIDValue(id uuid.UUID) FieldValue {
	return FieldValue{kind: RecordID, id: id}
}

// ZeroValue returns the value an unset field of type t holds.
func ZeroValue(t FieldTy) FieldValue {
	return FieldValue{kind: t.Kind}
}

func (v FieldValue) Kind() Kind { return v.kind }
func (v FieldValue) IsValid() bool { return v.kind != KindInvalid }
func (v FieldValue) Int() int32 { return int32(v.num) }
func (v FieldValue) Bool() bool { return v.b }
func (v FieldValue) Unix() int64 { return v.num }
func (v FieldValue) Text() string { return v.text }
func (v FieldValue) ID() uuid.UUID { return v.id }
func (v FieldValue) Time() time.Time { return time.Unix(v.num, 0).UTC() }

func (v FieldValue) String() string {
	switch v.kind {
	case IntI32:
		return strconv.FormatInt(v.num, 10)
	case Bool:
		return strconv.FormatBool(v.b)
	case Timestamp:
		return v.Time().Format(time.RFC3339)
	case Text:
		return strconv.Quote(v.text)
	case RecordID:
		return v.id.String()
	default:
		return "<invalid>"
	}
}

// CheckType returns a *WrongTypeError unless v can be stored in a field of type t.
func (v FieldValue) CheckType(t FieldTy) error {
	if v.kind != t.Kind {
		return &WrongTypeError{Expected: t, Actual: v.kind}
	}
	return nil
}

// PackValue writes v into a field of type t at off.
func (t FieldTy) PackValue(p *bytepack.Packer, off uint32, v FieldValue) error {
	if err := v.CheckType(t); err != nil {
		return err
	}
	switch t.Kind {
	case IntI32:
		bytepack.Int32.Pack(p, off, int32(v.num))
	case Bool:
		bytepack.Bool.Pack(p, off, v.b)
	case Timestamp:
		bytepack.Int64.Pack(p, off, v.num)
	case Text:
		bytepack.String.Pack(p, off, v.text)
	case RecordID:
		bytepack.UUID.Pack(p, off, v.id)
	}
	return nil
}

// UnpackValue reads a field of type t at off.
func (t FieldTy) UnpackValue(u bytepack.Unpacker, off uint32) (FieldValue, error) {
	switch t.Kind {
	case IntI32:
		v, err := bytepack.Int32.Unpack(u, off)
		return IntValue(v), err
	case Bool:
		v, err := bytepack.Bool.Unpack(u, off)
		return BoolValue(v), err
	case Timestamp:
		v, err := bytepack.Int64.Unpack(u, off)
		return UnixValue(v), err
	case Text:
		v, err := bytepack.String.Unpack(u, off)
		return TextValue(v), err
	case RecordID:
		v, err := bytepack.UUID.Unpack(u, off)
		return RecordIDValue(v), err
	default:
		return FieldValue{}, bytepack.Malformedf(off, "cannot unpack field of type %v", t)
	}
}
