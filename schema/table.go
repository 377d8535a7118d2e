package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andreyvit/packdb/bytepack"
)

// FieldData is a compiled field: its definition plus its position in the
// record layout.
type FieldData struct {
	Name     string
	Ty       FieldTy
	HasIndex bool
	Pos      int
	Offset   uint32
}

// Table is a TableDef compiled for reading and writing records.
type Table struct {
	Name   string
	Def    TableDef
	Fields []*FieldData
	Format *bytepack.Format
}

// ValidTableName reports whether name can be used for a table. Names starting
// with '$' or '#' are reserved for internal regions, and ':' separates the
// table and field parts of an index name.
func ValidTableName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "$") && !strings.HasPrefix(name, "#") &&
		!strings.Contains(name, IndexNameSep)
}

func Compile(name string, def TableDef) (*Table, error) {
	if !ValidTableName(name) {
		return nil, &DefError{Table: name, Msg: "invalid table name"}
	}
	if err := def.Validate(); err != nil {
		if de, ok := err.(*DefError); ok {
			de.Table = name
		}
		return nil, err
	}

	decl := make([]bytepack.Field, len(def.Fields))
	for i, f := range def.Fields {
		decl[i] = bytepack.Field{Name: f.Name, Size: f.Value.Ty.ByteCount()}
	}
	format := bytepack.NewFormat(decl...)

	tbl := &Table{
		Name:   name,
		Def:    def,
		Fields: make([]*FieldData, len(def.Fields)),
		Format: format,
	}
	for i, fp := range format.Fields() {
		f := def.Fields[i]
		tbl.Fields[i] = &FieldData{
			Name:     f.Name,
			Ty:       f.Value.Ty,
			HasIndex: f.Value.HasIndex,
			Pos:      i,
			Offset:   fp.Pointer.Offset,
		}
	}
	return tbl, nil
}

// Field returns nil if the table has no such field.
func (t *Table) Field(name string) *FieldData {
	fp, ok := t.Format.Field(name)
	if !ok {
		return nil
	}
	return t.Fields[fp.Index]
}

func (t *Table) HasField(name string) bool {
	return t.Field(name) != nil
}

func (t *Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

func (t *Table) FixedBytes() uint32 {
	return t.Format.FixedBytes()
}

// DisplayField returns the main display field, or nil if none is set.
func (t *Table) DisplayField() *FieldData {
	if t.Def.MainDisplayField == nil {
		return nil
	}
	return t.Fields[*t.Def.MainDisplayField]
}

func (t *Table) String() string {
	return t.Name
}

// Pack builds record bytes from field values. Missing fields hold their zero
// value.
func (t *Table) Pack(values map[string]FieldValue) ([]byte, error) {
	for name := range values {
		if t.Field(name) == nil {
			return nil, &UnknownFieldError{Table: t.Name, Field: name}
		}
	}
	p := bytepack.NewPacker(t.FixedBytes())
	for _, f := range t.Fields {
		v, ok := values[f.Name]
		if !ok {
			v = ZeroValue(f.Ty)
		}
		if err := f.Ty.PackValue(p, f.Offset, v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
		}
	}
	return p.Bytes(), nil
}

// Unpack decodes every field of a record.
func (t *Table) Unpack(data []byte) (map[string]FieldValue, error) {
	if err := t.checkSize(data); err != nil {
		return nil, err
	}
	u := bytepack.NewUnpacker(data)
	result := make(map[string]FieldValue, len(t.Fields))
	for _, f := range t.Fields {
		v, err := f.Ty.UnpackValue(u, f.Offset)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
		}
		result[f.Name] = v
	}
	return result, nil
}

// ReadField decodes a single field without decoding the rest of the record.
func (t *Table) ReadField(data []byte, f *FieldData) (FieldValue, error) {
	if err := t.checkSize(data); err != nil {
		return FieldValue{}, err
	}
	v, err := f.Ty.UnpackValue(bytepack.NewUnpacker(data), f.Offset)
	if err != nil {
		return FieldValue{}, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
	}
	return v, nil
}

func (t *Table) checkSize(data []byte) error {
	if uint64(len(data)) < uint64(t.FixedBytes()) {
		return bytepack.Malformedf(0, "%s record of %d bytes is shorter than fixed region of %d bytes", t.Name, len(data), t.FixedBytes())
	}
	return nil
}

// Describe formats a decoded record for logs and dumps.
func (t *Table) Describe(data []byte) string {
	values, err := t.Unpack(data)
	if err != nil {
		return fmt.Sprintf("** ERROR: %v", err)
	}
	var buf strings.Builder
	buf.WriteByte('{')
	for i, f := range t.Fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.Name)
		buf.WriteString(": ")
		buf.WriteString(values[f.Name].String())
	}
	buf.WriteByte('}')
	return buf.String()
}

type UnknownFieldError struct {
	Table string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("table %s has no field %q", e.Table, e.Field)
}

// SortedNames returns the keys of m in ascending order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
