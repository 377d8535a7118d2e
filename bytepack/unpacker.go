package bytepack

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed is matched by every decoding failure.
var ErrMalformed = errors.New("malformed packed data")

// DecodeError describes why packed bytes could not be decoded.
type DecodeError struct {
	Off uint32
	Msg string
}

func decodeErrf(off uint32, format string, args ...any) error {
	return &DecodeError{Off: off, Msg: fmt.Sprintf(format, args...)}
}

// Malformedf reports malformed data found by a codec defined outside this package.
func Malformedf(off uint32, format string, args ...any) error {
	return decodeErrf(off, format, args...)
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bytepack: %s at offset %d", e.Msg, e.Off)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformed
}

// Unpacker reads values out of a packed buffer. All reads are bounds-checked.
type Unpacker struct {
	buf []byte
}

func NewUnpacker(buf []byte) Unpacker {
	return Unpacker{buf: buf}
}

func (u Unpacker) Bytes() []byte {
	return u.buf
}

func (u Unpacker) Len() uint32 {
	return uint32(len(u.buf))
}

// Raw returns n bytes at off without copying.
func (u Unpacker) Raw(off, n uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(u.buf)) {
		return nil, decodeErrf(off, "reading %d bytes past end of %d-byte buffer", n, len(u.buf))
	}
	return u.buf[off:end], nil
}

func (u Unpacker) Pointer(off uint32) (Pointer, error) {
	b, err := u.Raw(off, PointerBytes)
	if err != nil {
		return Null, err
	}
	return readPointer(b), nil
}

// Deref returns the bytes referenced by ptr.
func (u Unpacker) Deref(ptr Pointer) ([]byte, error) {
	if ptr.End() > uint64(len(u.buf)) {
		return nil, decodeErrf(ptr.Offset, "pointer %v out of bounds of %d-byte buffer", ptr, len(u.buf))
	}
	return u.buf[ptr.Offset:ptr.End()], nil
}

// BytesAt reads the pointer at off and returns the bytes it references.
func (u Unpacker) BytesAt(off uint32) ([]byte, error) {
	ptr, err := u.Pointer(off)
	if err != nil {
		return nil, err
	}
	return u.Deref(ptr)
}

func (u Unpacker) Uint8(off uint32) (uint8, error) {
	b, err := u.Raw(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (u Unpacker) Uint16(off uint32) (uint16, error) {
	b, err := u.Raw(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (u Unpacker) Uint32(off uint32) (uint32, error) {
	b, err := u.Raw(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (u Unpacker) Uint64(off uint32) (uint64, error) {
	b, err := u.Raw(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (u Unpacker) uint(off, size uint32) (uint64, error) {
	switch size {
	case 1:
		v, err := u.Uint8(off)
		return uint64(v), err
	case 2:
		v, err := u.Uint16(off)
		return uint64(v), err
	case 4:
		v, err := u.Uint32(off)
		return uint64(v), err
	case 8:
		return u.Uint64(off)
	default:
		panic(fmt.Errorf("bytepack: invalid integer size %d", size))
	}
}

// Fields binds a field format to the fixed region starting at base.
func (u Unpacker) Fields(f *Format, base uint32) FieldUnpacker {
	return FieldUnpacker{u: u, format: f, base: base}
}
