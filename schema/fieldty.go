package schema

import (
	"fmt"
	"unicode/utf8"

	"github.com/andreyvit/packdb/bytepack"
)

// Kind enumerates the closed set of storable field types.
type Kind uint8

const (
	KindInvalid Kind = iota
	IntI32
	Bool
	Timestamp
	Text
	RecordID
)

func (k Kind) String() string {
	switch k {
	case IntI32:
		return "IntI32"
	case Bool:
		return "Bool"
	case Timestamp:
		return "Timestamp"
	case Text:
		return "Text"
	case RecordID:
		return "RecordId"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// FieldTy is a storable field type. Table is set only for RecordID and names
// the referenced table.
type FieldTy struct {
	Kind  Kind
	Table string
}

var (
	TyIntI32    = FieldTy{Kind: IntI32}
	TyBool      = FieldTy{Kind: Bool}
	TyTimestamp = FieldTy{Kind: Timestamp}
	TyText      = FieldTy{Kind: Text}
)

// TyRecordID is the type of a reference to a record of table.
func TyRecordID(table string) FieldTy {
	return FieldTy{Kind: RecordID, Table: table}
}

// ByteCount is the size of the field in a record's fixed region.
func (t FieldTy) ByteCount() uint32 {
	switch t.Kind {
	case IntI32:
		return 4
	case Bool:
		return 1
	case Timestamp:
		return 8
	case Text:
		return bytepack.PointerBytes
	case RecordID:
		return 16
	default:
		panic(fmt.Errorf("invalid field type %v", t))
	}
}

// Indexable reports whether values of this type have a sortable index key.
func (t FieldTy) Indexable() bool {
	switch t.Kind {
	case IntI32, Bool, Timestamp, RecordID:
		return true
	default:
		return false
	}
}

func (t FieldTy) Valid() bool {
	switch t.Kind {
	case IntI32, Bool, Timestamp, Text:
		return t.Table == ""
	case RecordID:
		return t.Table != ""
	default:
		return false
	}
}

func (t FieldTy) String() string {
	if t.Kind == RecordID {
		return fmt.Sprintf("RecordId(%s)", t.Table)
	}
	return t.Kind.String()
}

var (
	tagIntI32    = bytepack.MakeTag("i32 ")
	tagBool      = bytepack.MakeTag("bool")
	tagTimestamp = bytepack.MakeTag("dati")
	tagText      = bytepack.MakeTag("text")
	tagRecordID  = bytepack.MakeTag("rcrd")
)

// FieldTyCodec persists field types as tagged pointers: scalar kinds are
// inline tags, RecordID carries the referenced table name as its payload.
var FieldTyCodec bytepack.Codec[FieldTy] = fieldTyCodec{}

type fieldTyCodec struct{}

func (fieldTyCodec) PackBytes() uint32 { return bytepack.PointerBytes }

func (fieldTyCodec) Pack(p *bytepack.Packer, off uint32, t FieldTy) {
	switch t.Kind {
	case IntI32:
		bytepack.PutInlineTag(p, off, tagIntI32)
	case Bool:
		bytepack.PutInlineTag(p, off, tagBool)
	case Timestamp:
		bytepack.PutInlineTag(p, off, tagTimestamp)
	case Text:
		bytepack.PutInlineTag(p, off, tagText)
	case RecordID:
		bytepack.PutTaggedBytes(p, off, tagRecordID, []byte(t.Table))
	default:
		panic(fmt.Errorf("cannot pack invalid field type %v", t))
	}
}

func (fieldTyCodec) Unpack(u bytepack.Unpacker, off uint32) (FieldTy, error) {
	tv, err := u.Tagged(off)
	if err != nil {
		return FieldTy{}, err
	}
	if tv.Inline {
		switch tv.Tag {
		case tagIntI32:
			return TyIntI32, nil
		case tagBool:
			return TyBool, nil
		case tagTimestamp:
			return TyTimestamp, nil
		case tagText:
			return TyText, nil
		}
	} else if tv.Tag == tagRecordID {
		if len(tv.Payload) == 0 || !utf8.Valid(tv.Payload) {
			return FieldTy{}, bytepack.Malformedf(tv.PayloadOffset, "invalid referenced table name")
		}
		return TyRecordID(string(tv.Payload)), nil
	}
	return FieldTy{}, bytepack.Malformedf(off, "unknown field type tag %v (inline=%v)", tv.Tag, tv.Inline)
}
