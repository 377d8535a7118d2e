package bytepack

import (
	"cmp"
	"slices"
)

// Slice packs elements contiguously in a reserved dynamic block.
func Slice[T any](elem Codec[T]) Codec[[]T] {
	mustHaveSize("slice element", elem.PackBytes())
	return sliceCodec[T]{elem}
}

type sliceCodec[T any] struct {
	elem Codec[T]
}

func (c sliceCodec[T]) PackBytes() uint32 { return PointerBytes }

func (c sliceCodec[T]) Pack(p *Packer, off uint32, v []T) {
	size := c.elem.PackBytes()
	total := uint32(len(v)) * size
	o := p.Reserve(total)
	for i, item := range v {
		c.elem.Pack(p, o+uint32(i)*size, item)
	}
	p.PutPointer(off, Pointer{Offset: o, Len: total})
}

func (c sliceCodec[T]) Unpack(u Unpacker, off uint32) ([]T, error) {
	ptr, n, err := unpackBlock(u, off, c.elem.PackBytes())
	if err != nil {
		return nil, err
	}
	size := c.elem.PackBytes()
	result := make([]T, n)
	for i := range result {
		result[i], err = c.elem.Unpack(u, ptr.Offset+uint32(i)*size)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func unpackBlock(u Unpacker, off, size uint32) (Pointer, int, error) {
	ptr, err := u.Pointer(off)
	if err != nil {
		return Null, 0, err
	}
	if ptr.Len%size != 0 {
		return Null, 0, decodeErrf(off, "collection length %d is not a multiple of element size %d", ptr.Len, size)
	}
	if _, err := u.Deref(ptr); err != nil {
		return Null, 0, err
	}
	return ptr, int(ptr.Len / size), nil
}

// Map packs entries as (key, value) pairs sorted by key, so equal maps pack
// to equal bytes.
func Map[K cmp.Ordered, V any](key Codec[K], value Codec[V]) Codec[map[K]V] {
	return mapCodec[K, V]{PairOf(key, value)}
}

type mapCodec[K cmp.Ordered, V any] struct {
	entry Codec[Pair[K, V]]
}

func (c mapCodec[K, V]) PackBytes() uint32 { return PointerBytes }

func (c mapCodec[K, V]) Pack(p *Packer, off uint32, m map[K]V) {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	size := c.entry.PackBytes()
	total := uint32(len(keys)) * size
	o := p.Reserve(total)
	for i, k := range keys {
		c.entry.Pack(p, o+uint32(i)*size, Pair[K, V]{k, m[k]})
	}
	p.PutPointer(off, Pointer{Offset: o, Len: total})
}

func (c mapCodec[K, V]) Unpack(u Unpacker, off uint32) (map[K]V, error) {
	size := c.entry.PackBytes()
	ptr, n, err := unpackBlock(u, off, size)
	if err != nil {
		return nil, err
	}
	result := make(map[K]V, n)
	for i := 0; i < n; i++ {
		eoff := ptr.Offset + uint32(i)*size
		e, err := c.entry.Unpack(u, eoff)
		if err != nil {
			return nil, err
		}
		if _, dup := result[e.First]; dup {
			return nil, decodeErrf(eoff, "duplicate map key %v", e.First)
		}
		result[e.First] = e.Second
	}
	return result, nil
}
