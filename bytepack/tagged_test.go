package bytepack

import "testing"

func TestTaggedInline(t *testing.T) {
	p := NewPacker(8)
	PutInlineTag(p, 0, MakeTag("bool"))
	deepEqual(t, p.Bytes(), x("00000000 626f6f6c"))

	tv := must(NewUnpacker(p.Bytes()).Tagged(0))
	deepEqual(t, tv.Inline, true)
	deepEqual(t, tv.Tag, MakeTag("bool"))
	deepEqual(t, len(tv.Payload), 0)
}

func TestTaggedBytes(t *testing.T) {
	p := NewPacker(8)
	PutTaggedBytes(p, 0, MakeTag("rcrd"), []byte("user"))
	deepEqual(t, p.Bytes(), x("00000008 00000008 72637264 75736572"))

	tv := must(NewUnpacker(p.Bytes()).Tagged(0))
	deepEqual(t, tv.Inline, false)
	deepEqual(t, tv.Tag, MakeTag("rcrd"))
	deepEqual(t, string(tv.Payload), "user")
	deepEqual(t, tv.PayloadOffset, uint32(12))
}

func TestTaggedNested(t *testing.T) {
	p := NewPacker(8)
	PutTaggedNested(p, 0, MakeTag("optn"), String, "abc")
	u := NewUnpacker(p.Bytes())

	tv := must(u.Tagged(0))
	deepEqual(t, tv.Tag, MakeTag("optn"))
	deepEqual(t, must(UnpackNested(u, tv, String)), "abc")

	_, err := UnpackNested(u, tv, Uint32)
	isMalformed(t, err)
}

func TestTaggedMalformed(t *testing.T) {
	_, err := NewUnpacker(x("00000008 00000002 0000")).Tagged(0)
	isMalformed(t, err)

	_, err = NewUnpacker(x("00000008 00000010 72637264")).Tagged(0)
	isMalformed(t, err)
}

func TestPointerInlineTag(t *testing.T) {
	ptr := Inline(MakeTag("i32 "))
	deepEqual(t, ptr.Offset, uint32(0))
	tag, ok := ptr.InlineTag()
	deepEqual(t, ok, true)
	deepEqual(t, tag, MakeTag("i32 "))

	_, ok = Pointer{Offset: 8, Len: 4}.InlineTag()
	deepEqual(t, ok, false)

	deepEqual(t, Null.IsNull(), true)
	deepEqual(t, Pointer{Offset: 8, Len: 4}.String(), "@8+4")
}

func TestMakeTagPanicsOnWrongLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("** MakeTag(\"abc\") did not panic")
		}
	}()
	MakeTag("abc")
}
