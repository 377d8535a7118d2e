package expr

import (
	"github.com/andreyvit/packdb/schema"
)

// Ty is the static type of an expression: a field type, or a whole record of
// a table when Table is set.
type Ty struct {
	Field schema.FieldTy
	Table *schema.Table
}

func FieldType(ft schema.FieldTy) Ty {
	return Ty{Field: ft}
}

func TableType(tbl *schema.Table) Ty {
	return Ty{Table: tbl}
}

var (
	tyInt       = FieldType(schema.TyIntI32)
	tyBool      = FieldType(schema.TyBool)
	tyTimestamp = FieldType(schema.TyTimestamp)
	tyText      = FieldType(schema.TyText)
)

func (t Ty) IsTable() bool {
	return t.Table != nil
}

// Is reports whether t is the field type of kind k.
func (t Ty) Is(k schema.Kind) bool {
	return t.Table == nil && t.Field.Kind == k
}

func (t Ty) Equal(o Ty) bool {
	if t.Table != nil || o.Table != nil {
		return t.Table != nil && o.Table != nil && t.Table.Name == o.Table.Name
	}
	return t.Field == o.Field
}

func (t Ty) String() string {
	if t.Table != nil {
		return "Table(" + t.Table.Name + ")"
	}
	return t.Field.String()
}
