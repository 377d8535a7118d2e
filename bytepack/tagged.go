package bytepack

// TaggedValue is a decoded tagged pointer.
type TaggedValue struct {
	Tag    Tag
	Inline bool

	// Payload is empty for inline variants.
	Payload []byte

	// PayloadOffset is the absolute offset of Payload, for unpacking nested
	// values whose own pointers are absolute.
	PayloadOffset uint32
}

// PutInlineTag writes a payload-less variant.
func PutInlineTag(p *Packer, off uint32, tag Tag) {
	p.PutPointer(off, Inline(tag))
}

// PutTaggedBytes writes a variant whose payload is raw bytes.
func PutTaggedBytes(p *Packer, off uint32, tag Tag, payload []byte) {
	tagPtr := p.PushDynamic(tag[:])
	p.PushDynamic(payload)
	p.PutPointer(off, Pointer{Offset: tagPtr.Offset, Len: 4 + uint32(len(payload))})
}

// PutTaggedNested writes a variant whose payload is a packed value of c.
func PutTaggedNested[T any](p *Packer, off uint32, tag Tag, c Codec[T], v T) {
	tagPtr := p.PushDynamic(tag[:])
	size := c.PackBytes()
	o := p.Reserve(size)
	c.Pack(p, o, v)
	p.PutPointer(off, Pointer{Offset: tagPtr.Offset, Len: 4 + size})
}

// Tagged reads the tagged pointer at off.
func (u Unpacker) Tagged(off uint32) (TaggedValue, error) {
	ptr, err := u.Pointer(off)
	if err != nil {
		return TaggedValue{}, err
	}
	if tag, ok := ptr.InlineTag(); ok {
		return TaggedValue{Tag: tag, Inline: true}, nil
	}
	if ptr.Len < 4 {
		return TaggedValue{}, decodeErrf(off, "tagged pointer %v is too short for a tag", ptr)
	}
	data, err := u.Deref(ptr)
	if err != nil {
		return TaggedValue{}, err
	}
	return TaggedValue{
		Tag:           Tag(data[:4]),
		Payload:       data[4:],
		PayloadOffset: ptr.Offset + 4,
	}, nil
}

// UnpackNested unpacks the payload of a variant written by PutTaggedNested.
func UnpackNested[T any](u Unpacker, tv TaggedValue, c Codec[T]) (T, error) {
	if tv.Inline || uint32(len(tv.Payload)) != c.PackBytes() {
		var zero T
		return zero, decodeErrf(tv.PayloadOffset, "variant %v payload is %d bytes, wanted %d", tv.Tag, len(tv.Payload), c.PackBytes())
	}
	return c.Unpack(u, tv.PayloadOffset)
}
