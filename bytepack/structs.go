package bytepack

import "fmt"

// StructField describes one field of a StructCodec. Create with FieldOf.
type StructField[T any] interface {
	fieldName() string
	fieldSize() uint32
	pack(p *Packer, off uint32, v *T)
	unpack(u Unpacker, off uint32, v *T) error
}

// FieldOf declares a struct field packed with c. ref returns a pointer to the
// field within the struct.
func FieldOf[T, F any](name string, c Codec[F], ref func(v *T) *F) StructField[T] {
	return &structField[T, F]{name, c, ref}
}

type structField[T, F any] struct {
	name  string
	codec Codec[F]
	ref   func(v *T) *F
}

func (f *structField[T, F]) fieldName() string { return f.name }
func (f *structField[T, F]) fieldSize() uint32 { return f.codec.PackBytes() }

func (f *structField[T, F]) pack(p *Packer, off uint32, v *T) {
	f.codec.Pack(p, off, *f.ref(v))
}

func (f *structField[T, F]) unpack(u Unpacker, off uint32, v *T) error {
	fv, err := f.codec.Unpack(u, off)
	if err != nil {
		return err
	}
	*f.ref(v) = fv
	return nil
}

// StructCodec packs a struct as the concatenation of its declared fields.
type StructCodec[T any] struct {
	fields []StructField[T]
	format *Format
}

func Struct[T any](fields ...StructField[T]) *StructCodec[T] {
	decl := make([]Field, len(fields))
	for i, f := range fields {
		decl[i] = Field{Name: f.fieldName(), Size: f.fieldSize()}
	}
	return &StructCodec[T]{
		fields: fields,
		format: NewFormat(decl...),
	}
}

func (c *StructCodec[T]) Format() *Format {
	return c.format
}

func (c *StructCodec[T]) PackBytes() uint32 {
	return c.format.FixedBytes()
}

func (c *StructCodec[T]) Pack(p *Packer, off uint32, v T) {
	for i, f := range c.fields {
		f.pack(p, off+c.format.fields[i].Pointer.Offset, &v)
	}
}

func (c *StructCodec[T]) Unpack(u Unpacker, off uint32) (T, error) {
	var v T
	for i, f := range c.fields {
		if err := f.unpack(u, off+c.format.fields[i].Pointer.Offset, &v); err != nil {
			return v, fmt.Errorf("%s: %w", f.fieldName(), err)
		}
	}
	return v, nil
}
