package bytepack

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// PointerBytes is the packed size of a Pointer.
const PointerBytes = 8

// Pointer references a byte range of a packed buffer.
type Pointer struct {
	Offset uint32
	Len    uint32
}

// Null is the pointer used for absent optional values.
var Null = Pointer{}

// Tag is a 4-byte discriminant of a tagged enum variant.
type Tag [4]byte

// MakeTag converts a 4-character string into a Tag. It panics on any other length.
func MakeTag(s string) Tag {
	if len(s) != 4 {
		panic(fmt.Errorf("bytepack: tag %q must be exactly 4 bytes", s))
	}
	var t Tag
	copy(t[:], s)
	return t
}

func (t Tag) String() string {
	return strconv.Quote(string(t[:]))
}

// Inline returns the pointer that encodes a payload-less tagged variant.
func Inline(tag Tag) Pointer {
	return Pointer{Offset: 0, Len: binary.BigEndian.Uint32(tag[:])}
}

func (p Pointer) IsNull() bool {
	return p == Null
}

// InlineTag reports the tag stored in an inline pointer.
func (p Pointer) InlineTag() (Tag, bool) {
	if p.Offset != 0 {
		return Tag{}, false
	}
	var t Tag
	binary.BigEndian.PutUint32(t[:], p.Len)
	return t, true
}

func (p Pointer) End() uint64 {
	return uint64(p.Offset) + uint64(p.Len)
}

func (p Pointer) String() string {
	if p.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("@%d+%d", p.Offset, p.Len)
}

func putPointer(buf []byte, ptr Pointer) {
	binary.BigEndian.PutUint32(buf[0:4], ptr.Offset)
	binary.BigEndian.PutUint32(buf[4:8], ptr.Len)
}

func readPointer(buf []byte) Pointer {
	return Pointer{
		Offset: binary.BigEndian.Uint32(buf[0:4]),
		Len:    binary.BigEndian.Uint32(buf[4:8]),
	}
}
