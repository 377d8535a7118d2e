package schema

import (
	"strings"

	"github.com/andreyvit/packdb/bytepack"
)

type Named[T any] struct {
	Name  string
	Value T
}

type TableFieldDef struct {
	Ty       FieldTy
	HasIndex bool
}

// TableDef is the persisted definition of a table. Field order defines the
// record layout.
type TableDef struct {
	Fields           []Named[TableFieldDef]
	MainDisplayField *uint32
}

func FieldDef(name string, ty FieldTy) Named[TableFieldDef] {
	return Named[TableFieldDef]{name, TableFieldDef{Ty: ty}}
}

func IndexedFieldDef(name string, ty FieldTy) Named[TableFieldDef] {
	return Named[TableFieldDef]{name, TableFieldDef{Ty: ty, HasIndex: true}}
}

func NewTableDef(fields ...Named[TableFieldDef]) TableDef {
	return TableDef{Fields: fields}
}

// WithDisplayField returns a copy of d with the main display field set to the
// field at position pos.
func (d TableDef) WithDisplayField(pos uint32) TableDef {
	d.MainDisplayField = &pos
	return d
}

// Validate checks the definition without regard to other tables. References
// to tables that are not registered are allowed.
func (d TableDef) Validate() error {
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return defErrf("", "empty field name")
		}
		if seen[f.Name] {
			return defErrf(f.Name, "duplicate field")
		}
		if strings.Contains(f.Name, IndexNameSep) {
			return defErrf(f.Name, "field name contains %q", IndexNameSep)
		}
		seen[f.Name] = true
		if !f.Value.Ty.Valid() {
			return defErrf(f.Name, "invalid type %v", f.Value.Ty)
		}
		if f.Value.HasIndex && !f.Value.Ty.Indexable() {
			return defErrf(f.Name, "type %v cannot be indexed", f.Value.Ty)
		}
	}
	if d.MainDisplayField != nil && int(*d.MainDisplayField) >= len(d.Fields) {
		return defErrf("", "main display field %d out of range", *d.MainDisplayField)
	}
	return nil
}

func (d TableDef) Equal(o TableDef) bool {
	if len(d.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range d.Fields {
		if f != o.Fields[i] {
			return false
		}
	}
	if (d.MainDisplayField == nil) != (o.MainDisplayField == nil) {
		return false
	}
	return d.MainDisplayField == nil || *d.MainDisplayField == *o.MainDisplayField
}

var namedFieldDefCodec = bytepack.Struct(
	bytepack.FieldOf("name", bytepack.String, func(v *Named[TableFieldDef]) *string { return &v.Name }),
	bytepack.FieldOf("ty", FieldTyCodec, func(v *Named[TableFieldDef]) *FieldTy { return &v.Value.Ty }),
	bytepack.FieldOf("has_index", bytepack.Bool, func(v *Named[TableFieldDef]) *bool { return &v.Value.HasIndex }),
)

// TableDefCodec packs table definitions with the same codec machinery as
// records, so schema storage is self-hosted.
var TableDefCodec bytepack.Codec[TableDef] = bytepack.Struct(
	bytepack.FieldOf("fields", bytepack.Slice[Named[TableFieldDef]](namedFieldDefCodec), func(v *TableDef) *[]Named[TableFieldDef] { return &v.Fields }),
	bytepack.FieldOf("main_display_field", bytepack.Option(bytepack.Uint32), func(v *TableDef) **uint32 { return &v.MainDisplayField }),
)

func PackTableDef(d TableDef) []byte {
	return bytepack.PackValue(TableDefCodec, d)
}

func UnpackTableDef(data []byte) (TableDef, error) {
	return bytepack.UnpackValue(TableDefCodec, data)
}
