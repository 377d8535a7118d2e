package expr

import (
	"fmt"

	"github.com/andreyvit/packdb/schema"
)

// Value is the result of evaluating an expression: a field value, or a whole
// record when Record is set.
type Value struct {
	Field  schema.FieldValue
	Record *RecordValue
}

// RecordValue is a record together with the table it belongs to.
type RecordValue struct {
	Table  *schema.Table
	Record schema.Record
}

func FieldVal(v schema.FieldValue) Value {
	return Value{Field: v}
}

func RecordVal(tbl *schema.Table, rec schema.Record) Value {
	return Value{Record: &RecordValue{Table: tbl, Record: rec}}
}

func (v Value) IsRecord() bool {
	return v.Record != nil
}

// Ty is the dynamic type of v. For record ids the referenced table is not
// known from the value alone and is left empty.
func (v Value) Ty() Ty {
	if v.Record != nil {
		return TableType(v.Record.Table)
	}
	return FieldType(schema.FieldTy{Kind: v.Field.Kind()})
}

func (v Value) String() string {
	if v.Record != nil {
		return fmt.Sprintf("%s/%v", v.Record.Table.Name, v.Record.Record.ID)
	}
	return v.Field.String()
}
