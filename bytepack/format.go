package bytepack

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrUnknownField is matched by lookups of names a Format does not declare.
var ErrUnknownField = errors.New("unknown field")

// Field declares a named slot of a fixed region.
type Field struct {
	Name string
	Size uint32
}

// FieldPointer locates a declared field. Pointer.Len is the field size.
type FieldPointer struct {
	Name    string
	Pointer Pointer
	Index   int
}

// Format is an immutable table of field offsets, computed by accumulating
// field sizes left to right.
type Format struct {
	fields []FieldPointer
	byName []int // indices into fields, sorted by name then declaration order
	fixed  uint32
}

func NewFormat(fields ...Field) *Format {
	f := &Format{
		fields: make([]FieldPointer, len(fields)),
		byName: make([]int, len(fields)),
	}
	var off uint32
	for i, fld := range fields {
		f.fields[i] = FieldPointer{
			Name:    fld.Name,
			Pointer: Pointer{Offset: off, Len: fld.Size},
			Index:   i,
		}
		f.byName[i] = i
		off += fld.Size
	}
	f.fixed = off
	sort.SliceStable(f.byName, func(a, b int) bool {
		return f.fields[f.byName[a]].Name < f.fields[f.byName[b]].Name
	})
	return f
}

// Field finds a field by name. With duplicate names, the first declaration wins.
func (f *Format) Field(name string) (FieldPointer, bool) {
	i := sort.Search(len(f.byName), func(i int) bool {
		return f.fields[f.byName[i]].Name >= name
	})
	if i < len(f.byName) && f.fields[f.byName[i]].Name == name {
		return f.fields[f.byName[i]], true
	}
	return FieldPointer{}, false
}

// Fields returns the fields in declaration order.
func (f *Format) Fields() []FieldPointer {
	return slices.Clone(f.fields)
}

func (f *Format) Len() int {
	return len(f.fields)
}

// FixedBytes is the total size of all declared fields.
func (f *Format) FixedBytes() uint32 {
	return f.fixed
}

func (f *Format) String() string {
	var buf strings.Builder
	for i, fp := range f.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s@%d+%d", fp.Name, fp.Pointer.Offset, fp.Pointer.Len)
	}
	return buf.String()
}

// FieldPacker writes named fields of a Format relative to a base offset.
type FieldPacker struct {
	p      *Packer
	format *Format
	base   uint32
}

// FieldUnpacker reads named fields of a Format relative to a base offset.
type FieldUnpacker struct {
	u      Unpacker
	format *Format
	base   uint32
}

func (fp FieldPacker) Packer() *Packer { return fp.p }

func (fu FieldUnpacker) Unpacker() Unpacker { return fu.u }

func lookupField(f *Format, name string, size uint32) (FieldPointer, error) {
	fld, ok := f.Field(name)
	if !ok {
		return fld, fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	if fld.Pointer.Len != size {
		panic(fmt.Errorf("bytepack: field %q is %d bytes, codec packs %d", name, fld.Pointer.Len, size))
	}
	return fld, nil
}

// PackField packs v into the named field. A codec whose size differs from the
// declared field size is a programming error and panics.
func PackField[T any](fp FieldPacker, name string, c Codec[T], v T) error {
	fld, err := lookupField(fp.format, name, c.PackBytes())
	if err != nil {
		return err
	}
	c.Pack(fp.p, fp.base+fld.Pointer.Offset, v)
	return nil
}

// UnpackField reads the named field.
func UnpackField[T any](fu FieldUnpacker, name string, c Codec[T]) (T, error) {
	fld, err := lookupField(fu.format, name, c.PackBytes())
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Unpack(fu.u, fu.base+fld.Pointer.Offset)
}
