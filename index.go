package packdb

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

// IndexEntry is one index row: an indexed value and a record holding it.
type IndexEntry struct {
	Key schema.FieldValue
	ID  uuid.UUID
}

// IndexRange selects index rows by value. A nil bound is open. Entries with
// equal values come out in record id order (reversed when Reverse is set).
type IndexRange struct {
	Lower    *schema.FieldValue
	Upper    *schema.FieldValue
	LowerInc bool
	UpperInc bool
	Reverse  bool
}

func (r IndexRange) raw(t schema.FieldTy) (rawRange, error) {
	rr := rawRange{Reverse: r.Reverse}
	if r.Lower != nil {
		if err := r.Lower.CheckType(t); err != nil {
			return rawRange{}, err
		}
		rr.Lower = lowerBoundKey(*r.Lower, r.LowerInc)
		rr.LowerInc = r.LowerInc
	}
	if r.Upper != nil {
		if err := r.Upper.CheckType(t); err != nil {
			return rawRange{}, err
		}
		rr.Upper = upperBoundKey(*r.Upper, r.UpperInc)
		rr.UpperInc = r.UpperInc
	}
	return rr, nil
}

// IndexNames returns the names of all indices, sorted.
func (db *DB) IndexNames() []string {
	db.catLock.RLock()
	defer db.catLock.RUnlock()
	return slices.Clone(db.cat.indexNames)
}

func (db *DB) Index(name string) (*schema.IndexDef, error) {
	db.catLock.RLock()
	defer db.catLock.RUnlock()
	idx := db.cat.indices[name]
	if idx == nil {
		return nil, &IndexDoesNotExistError{name}
	}
	return idx, nil
}

// IndexQuery returns the rows of an index. For reference indices all rows
// are returned and the bounds are ignored; for other indices the result is
// limited to values in [min, max), where a nil bound is open.
func (db *DB) IndexQuery(name string, min, max *schema.FieldValue) ([]IndexEntry, error) {
	var result []IndexEntry
	err := db.read(func(tx *dbTx) error {
		idx, err := tx.index(name)
		if err != nil {
			return err
		}
		rang := IndexRange{Lower: min, Upper: max, LowerInc: true}
		if idx.IsReference() {
			rang = IndexRange{}
		}
		result, err = tx.indexScan(idx, rang)
		return err
	})
	return result, err
}

// IndexScan returns the index rows within rang.
func (db *DB) IndexScan(name string, rang IndexRange) ([]IndexEntry, error) {
	var result []IndexEntry
	err := db.read(func(tx *dbTx) error {
		idx, err := tx.index(name)
		if err != nil {
			return err
		}
		result, err = tx.indexScan(idx, rang)
		return err
	})
	return result, err
}

// IndexLookup returns the ids of the records whose indexed field equals key.
func (db *DB) IndexLookup(name string, key schema.FieldValue) ([]uuid.UUID, error) {
	var result []uuid.UUID
	err := db.read(func(tx *dbTx) error {
		idx, err := tx.index(name)
		if err != nil {
			return err
		}
		if err := key.CheckType(idx.FieldTy); err != nil {
			return err
		}
		return tx.eachIndexRow(idx, rawPrefix(appendSortableKey(nil, key)), func(_ schema.FieldValue, id uuid.UUID, _ []byte) {
			result = append(result, id)
		})
	})
	return result, err
}

func (tx *dbTx) indexScan(idx *schema.IndexDef, rang IndexRange) ([]IndexEntry, error) {
	raw, err := rang.raw(idx.FieldTy)
	if err != nil {
		return nil, err
	}
	var result []IndexEntry
	err = tx.eachIndexRow(idx, raw, func(v schema.FieldValue, id uuid.UUID, _ []byte) {
		result = append(result, IndexEntry{v, id})
	})
	return result, err
}

func (tx *dbTx) eachIndexRow(idx *schema.IndexDef, raw rawRange, f func(v schema.FieldValue, id uuid.UUID, key []byte)) error {
	cur := raw.newCursor(tx.bucket(idx.Name).Cursor(), tx.db.logger)
	for cur.Next() {
		v, id, err := decodeIndexRowKey(idx.FieldTy, cur.Key())
		if err != nil {
			return tableErrf(idx.Table, idx.Name, cur.Key(), err, "malformed index row")
		}
		f(v, id, cur.Key())
	}
	return nil
}

func (tx *dbTx) indexedValue(idx *schema.IndexDef, tbl *schema.Table, rec schema.Record) (schema.FieldValue, error) {
	f := tbl.Field(idx.Field)
	if f == nil {
		panic(fmt.Errorf("%s: table %s has no field %s", idx.Name, tbl.Name, idx.Field))
	}
	v, err := tbl.ReadField(rec.Bytes, f)
	if err != nil {
		return schema.FieldValue{}, tableErrf(tbl.Name, idx.Name, rec.ID[:], err, "cannot read indexed field")
	}
	return v, nil
}

// indexInsert adds the record to the index. A reference must point at an
// existing record of the referenced table.
func (tx *dbTx) indexInsert(idx *schema.IndexDef, tbl *schema.Table, rec schema.Record) error {
	v, err := tx.indexedValue(idx, tbl, rec)
	if err != nil {
		return err
	}
	if idx.IsReference() {
		target := idx.FieldTy.Table
		if !tx.recordExists(target, v.ID()) {
			return &RecordDoesNotExistError{target, v.ID()}
		}
	}

	key := appendIndexRowKey(tx.keyBuf(), v, rec.ID)
	if err := tx.bucket(idx.Name).Put(key, emptyIndexValue); err != nil {
		return engineErr("put index", err)
	}
	tx.logf("INDEX %s: %v => %v", idx.Name, v, rec.ID)
	return nil
}

func (tx *dbTx) indexDeleteValue(idx *schema.IndexDef, tbl *schema.Table, rec schema.Record) error {
	v, err := tx.indexedValue(idx, tbl, rec)
	if err != nil {
		return err
	}
	key := appendIndexRowKey(tx.keyBuf(), v, rec.ID)
	if err := tx.bucket(idx.Name).Delete(key); err != nil {
		return engineErr("delete index", err)
	}
	tx.logf("UNINDEX %s: %v => %v", idx.Name, v, rec.ID)
	return nil
}

// indexDeleteKey removes every row of a reference index that points at the
// deleted record id, then applies the index's on_delete action to the
// records those rows belong to.
func (tx *dbTx) indexDeleteKey(idx *schema.IndexDef, id uuid.UUID) error {
	var refs []uuid.UUID
	var keys [][]byte
	err := tx.eachIndexRow(idx, rawPrefix(appendSortableKey(tx.keyBuf(), schema.RecordIDValue(id))), func(_ schema.FieldValue, ref uuid.UUID, key []byte) {
		refs = append(refs, ref)
		keys = append(keys, bytes.Clone(key))
	})
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	b := tx.bucket(idx.Name)
	for _, key := range keys {
		if err := b.Delete(key); err != nil {
			return engineErr("delete index", err)
		}
	}
	tx.logf("UNINDEX %s: %v => %d records", idx.Name, id, len(refs))

	switch idx.OnDelete {
	case schema.OnDeleteCascade:
		owner, err := tx.table(idx.Table)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if _, err := tx.delete(owner, ref, true); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Errorf("%s: on_delete %v is not supported", idx.Name, idx.OnDelete))
	}
}

func (tx *dbTx) recordExists(table string, id uuid.UUID) bool {
	if tx.cat.tables[table] == nil {
		return false
	}
	return tx.bucket(table).Get(id[:]) != nil
}
