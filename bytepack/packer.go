package bytepack

import (
	"encoding/binary"
	"fmt"
)

// Packer builds a packed buffer: a fixed region allocated up front, followed
// by an append-only dynamic region.
type Packer struct {
	buf []byte
}

// NewPacker returns a packer whose buffer starts with fixed zero bytes.
func NewPacker(fixed uint32) *Packer {
	p := &Packer{}
	p.buf = ensureCapacity(nil, int(fixed)+64)
	_, p.buf = grow(p.buf, int(fixed))
	return p
}

// Bytes returns the packed buffer. The packer must not be used afterwards.
func (p *Packer) Bytes() []byte {
	return p.buf
}

func (p *Packer) Len() uint32 {
	return uint32(len(p.buf))
}

// Reserve appends n zero bytes to the dynamic region and returns their offset.
func (p *Packer) Reserve(n uint32) uint32 {
	off, buf := grow(p.buf, int(n))
	p.buf = buf
	return uint32(off)
}

// PushDynamic appends data to the dynamic region and returns a pointer to it.
func (p *Packer) PushDynamic(data []byte) Pointer {
	off := len(p.buf)
	p.buf = appendRaw(p.buf, data)
	return Pointer{Offset: uint32(off), Len: uint32(len(data))}
}

// PutBytesIndirect pushes data and writes the pointer to it at off.
func (p *Packer) PutBytesIndirect(off uint32, data []byte) {
	p.PutPointer(off, p.PushDynamic(data))
}

func (p *Packer) PutPointer(off uint32, ptr Pointer) {
	putPointer(p.slot(off, PointerBytes), ptr)
}

func (p *Packer) PutRaw(off uint32, data []byte) {
	copy(p.slot(off, uint32(len(data))), data)
}

func (p *Packer) PutUint8(off uint32, v uint8) {
	p.slot(off, 1)[0] = v
}

func (p *Packer) PutUint16(off uint32, v uint16) {
	binary.BigEndian.PutUint16(p.slot(off, 2), v)
}

func (p *Packer) PutUint32(off uint32, v uint32) {
	binary.BigEndian.PutUint32(p.slot(off, 4), v)
}

func (p *Packer) PutUint64(off uint32, v uint64) {
	binary.BigEndian.PutUint64(p.slot(off, 8), v)
}

func (p *Packer) putUint(off, size uint32, v uint64) {
	switch size {
	case 1:
		p.PutUint8(off, uint8(v))
	case 2:
		p.PutUint16(off, uint16(v))
	case 4:
		p.PutUint32(off, uint32(v))
	case 8:
		p.PutUint64(off, v)
	default:
		panic(fmt.Errorf("bytepack: invalid integer size %d", size))
	}
}

// slot returns the already-allocated bytes [off, off+n). Writing outside of
// allocated space is a programming error.
func (p *Packer) slot(off, n uint32) []byte {
	end := uint64(off) + uint64(n)
	if end > uint64(len(p.buf)) {
		panic(fmt.Errorf("bytepack: write of %d bytes at %d exceeds buffer of %d bytes", n, off, len(p.buf)))
	}
	return p.buf[off:end]
}

// Fields binds a field format to the fixed region starting at base.
func (p *Packer) Fields(f *Format, base uint32) FieldPacker {
	return FieldPacker{p: p, format: f, base: base}
}
