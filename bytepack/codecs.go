package bytepack

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Codec packs and unpacks values of T. PackBytes is the size of the fixed
// region of T and never changes for a given codec.
type Codec[T any] interface {
	PackBytes() uint32
	Pack(p *Packer, off uint32, v T)
	Unpack(u Unpacker, off uint32) (T, error)
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

var (
	Uint8  Codec[uint8]  = intCodec[uint8]{1}
	Uint16 Codec[uint16] = intCodec[uint16]{2}
	Uint32 Codec[uint32] = intCodec[uint32]{4}
	Uint64 Codec[uint64] = intCodec[uint64]{8}
	Int8   Codec[int8]   = intCodec[int8]{1}
	Int16  Codec[int16]  = intCodec[int16]{2}
	Int32  Codec[int32]  = intCodec[int32]{4}
	Int64  Codec[int64]  = intCodec[int64]{8}

	Bool   Codec[bool]      = boolCodec{}
	String Codec[string]    = stringCodec{}
	Bytes  Codec[[]byte]    = bytesCodec{}
	Time   Codec[time.Time] = timeCodec{}
	UUID   Codec[uuid.UUID] = uuidCodec{}
)

type intCodec[T integer] struct {
	size uint32
}

func (c intCodec[T]) PackBytes() uint32 { return c.size }

func (c intCodec[T]) Pack(p *Packer, off uint32, v T) {
	p.putUint(off, c.size, uint64(v))
}

func (c intCodec[T]) Unpack(u Unpacker, off uint32) (T, error) {
	v, err := u.uint(off, c.size)
	return T(v), err
}

type boolCodec struct{}

func (boolCodec) PackBytes() uint32 { return 1 }

func (boolCodec) Pack(p *Packer, off uint32, v bool) {
	if v {
		p.PutUint8(off, 1)
	} else {
		p.PutUint8(off, 0)
	}
}

func (boolCodec) Unpack(u Unpacker, off uint32) (bool, error) {
	b, err := u.Uint8(off)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, decodeErrf(off, "invalid bool byte 0x%02x", b)
	}
}

type stringCodec struct{}

func (stringCodec) PackBytes() uint32 { return PointerBytes }

func (stringCodec) Pack(p *Packer, off uint32, v string) {
	p.PutBytesIndirect(off, []byte(v))
}

func (stringCodec) Unpack(u Unpacker, off uint32) (string, error) {
	b, err := u.BytesAt(off)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", decodeErrf(off, "string is not valid UTF-8")
	}
	return string(b), nil
}

type bytesCodec struct{}

func (bytesCodec) PackBytes() uint32 { return PointerBytes }

func (bytesCodec) Pack(p *Packer, off uint32, v []byte) {
	p.PutBytesIndirect(off, v)
}

func (bytesCodec) Unpack(u Unpacker, off uint32) ([]byte, error) {
	b, err := u.BytesAt(off)
	if err != nil {
		return nil, err
	}
	return slices.Clone(b), nil
}

// timeCodec stores whole seconds since the Unix epoch; sub-second precision is dropped.
type timeCodec struct{}

func (timeCodec) PackBytes() uint32 { return 8 }

func (timeCodec) Pack(p *Packer, off uint32, v time.Time) {
	p.PutUint64(off, uint64(v.Unix()))
}

func (timeCodec) Unpack(u Unpacker, off uint32) (time.Time, error) {
	v, err := u.Uint64(off)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(v), 0).UTC(), nil
}

type uuidCodec struct{}

func (uuidCodec) PackBytes() uint32 { return 16 }

func (uuidCodec) Pack(p *Packer, off uint32, v uuid.UUID) {
	p.PutRaw(off, v[:])
}

func (uuidCodec) Unpack(u Unpacker, off uint32) (uuid.UUID, error) {
	b, err := u.Raw(off, 16)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(b), nil
}

// Option packs a nil *T as a NULL pointer, and a non-nil one as a pointer to
// a freshly reserved fixed region of inner.
func Option[T any](inner Codec[T]) Codec[*T] {
	return optionCodec[T]{inner}
}

type optionCodec[T any] struct {
	inner Codec[T]
}

func (c optionCodec[T]) PackBytes() uint32 { return PointerBytes }

func (c optionCodec[T]) Pack(p *Packer, off uint32, v *T) {
	if v == nil {
		p.PutPointer(off, Null)
		return
	}
	size := c.inner.PackBytes()
	o := p.Reserve(size)
	c.inner.Pack(p, o, *v)
	p.PutPointer(off, Pointer{Offset: o, Len: size})
}

func (c optionCodec[T]) Unpack(u Unpacker, off uint32) (*T, error) {
	ptr, err := u.Pointer(off)
	if err != nil {
		return nil, err
	}
	if ptr.IsNull() {
		return nil, nil
	}
	if ptr.Offset == 0 {
		return nil, decodeErrf(off, "optional value has zero offset and length %d", ptr.Len)
	}
	if ptr.Len != c.inner.PackBytes() {
		return nil, decodeErrf(off, "optional value has length %d, wanted %d", ptr.Len, c.inner.PackBytes())
	}
	if _, err := u.Deref(ptr); err != nil {
		return nil, err
	}
	v, err := c.inner.Unpack(u, ptr.Offset)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Pair is the value type of PairOf.
type Pair[A, B any] struct {
	First  A
	Second B
}

// PairOf concatenates the fixed regions of a and b.
func PairOf[A, B any](a Codec[A], b Codec[B]) Codec[Pair[A, B]] {
	return pairCodec[A, B]{a, b}
}

type pairCodec[A, B any] struct {
	a Codec[A]
	b Codec[B]
}

func (c pairCodec[A, B]) PackBytes() uint32 {
	return c.a.PackBytes() + c.b.PackBytes()
}

func (c pairCodec[A, B]) Pack(p *Packer, off uint32, v Pair[A, B]) {
	c.a.Pack(p, off, v.First)
	c.b.Pack(p, off+c.a.PackBytes(), v.Second)
}

func (c pairCodec[A, B]) Unpack(u Unpacker, off uint32) (Pair[A, B], error) {
	var v Pair[A, B]
	var err error
	v.First, err = c.a.Unpack(u, off)
	if err != nil {
		return v, err
	}
	v.Second, err = c.b.Unpack(u, off+c.a.PackBytes())
	if err != nil {
		return v, err
	}
	return v, nil
}

// PackValue packs v into a new buffer.
func PackValue[T any](c Codec[T], v T) []byte {
	p := NewPacker(c.PackBytes())
	c.Pack(p, 0, v)
	return p.Bytes()
}

// UnpackValue unpacks a value packed by PackValue.
func UnpackValue[T any](c Codec[T], data []byte) (T, error) {
	if uint64(len(data)) < uint64(c.PackBytes()) {
		var zero T
		return zero, decodeErrf(0, "buffer of %d bytes is shorter than fixed region of %d bytes", len(data), c.PackBytes())
	}
	return c.Unpack(NewUnpacker(data), 0)
}

func mustHaveSize(what string, size uint32) {
	if size == 0 {
		panic(fmt.Errorf("bytepack: %s must have non-zero fixed size", what))
	}
}
