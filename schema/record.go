package schema

import (
	"github.com/google/uuid"
)

// Record is a stored row: a 128-bit id and the packed field bytes.
type Record struct {
	ID    uuid.UUID
	Bytes []byte
}

// NewID returns a new time-ordered (UUIDv7) record id.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// CreateRecord wraps already packed bytes with a fresh id.
func CreateRecord(data []byte) Record {
	return Record{ID: NewID(), Bytes: data}
}

// NewRecord packs values for tbl and assigns a fresh id.
func NewRecord(tbl *Table, values map[string]FieldValue) (Record, error) {
	data, err := tbl.Pack(values)
	if err != nil {
		return Record{}, err
	}
	return CreateRecord(data), nil
}

// Field reads a single field of the record.
func (r Record) Field(tbl *Table, f *FieldData) (FieldValue, error) {
	return tbl.ReadField(r.Bytes, f)
}

// Values decodes every field of the record.
func (r Record) Values(tbl *Table) (map[string]FieldValue, error) {
	return tbl.Unpack(r.Bytes)
}
