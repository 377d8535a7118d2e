package packdb

import (
	"bytes"

	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

// InsertRecord stores rec in table and runs the table's insert triggers in
// the same transaction. Nothing is written if any step fails.
func (db *DB) InsertRecord(table string, rec schema.Record) error {
	return db.update(func(tx *dbTx) error {
		tbl, err := tx.table(table)
		if err != nil {
			return err
		}
		return tx.insert(tbl, rec)
	})
}

// DeleteRecord removes the record and everything that cascades from it,
// returning the bytes of the removed record.
func (db *DB) DeleteRecord(table string, id uuid.UUID) ([]byte, error) {
	var old []byte
	err := db.update(func(tx *dbTx) error {
		tbl, err := tx.table(table)
		if err != nil {
			return err
		}
		old, err = tx.delete(tbl, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

// Get returns nil, nil if the record does not exist.
func (db *DB) Get(table string, id uuid.UUID) (*schema.Record, error) {
	var result *schema.Record
	err := db.read(func(tx *dbTx) error {
		tbl, err := tx.table(table)
		if err != nil {
			return err
		}
		data := tx.bucket(tbl.Name).Get(id[:])
		if data != nil {
			result = &schema.Record{ID: id, Bytes: bytes.Clone(data)}
		}
		return nil
	})
	return result, err
}

// GetAll returns every record of the table in id order.
func (db *DB) GetAll(table string) ([]schema.Record, error) {
	var result []schema.Record
	err := db.read(func(tx *dbTx) error {
		tbl, err := tx.table(table)
		if err != nil {
			return err
		}
		return tx.scanRecords(tbl, func(rec schema.Record) error {
			result = append(result, rec)
			return nil
		})
	})
	return result, err
}

// scanRecords calls f for every record of tbl. The record bytes are copied.
func (tx *dbTx) scanRecords(tbl *schema.Table, f func(rec schema.Record) error) error {
	c := tx.bucket(tbl.Name).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(k) != idBytes {
			return tableErrf(tbl.Name, "", k, nil, "invalid record key")
		}
		err := f(schema.Record{ID: uuid.UUID(k), Bytes: bytes.Clone(v)})
		if err != nil {
			return err
		}
	}
	return nil
}

func (tx *dbTx) insert(tbl *schema.Table, rec schema.Record) error {
	if _, err := tbl.Unpack(rec.Bytes); err != nil {
		return tableErrf(tbl.Name, "", rec.ID[:], err, "invalid record")
	}

	b := tx.bucket(tbl.Name)
	key := rec.ID[:]
	if b.Get(key) != nil {
		return &RecordExistsError{tbl.Name, rec.ID}
	}
	if err := b.Put(key, rec.Bytes); err != nil {
		return engineErr("put", err)
	}
	tx.logf("INSERT %s/%v %s", tbl.Name, rec.ID, tbl.Describe(rec.Bytes))
	tx.recordChange(OpInsert, tbl.Name, rec.ID, false)

	return tx.fire(tbl, schema.EventInsert, rec)
}

// delete removes a record and fires its delete triggers. Within one
// operation each record is deleted at most once; cascades that reach an
// already deleted record stop there.
func (tx *dbTx) delete(tbl *schema.Table, id uuid.UUID, cascade bool) ([]byte, error) {
	if tx.isDeleted(tbl.Name, id) {
		return nil, nil
	}
	b := tx.bucket(tbl.Name)
	data := b.Get(id[:])
	if data == nil {
		if cascade {
			return nil, tableErrf(tbl.Name, "", id[:], nil, "index refers to a missing record")
		}
		return nil, &RecordDoesNotExistError{tbl.Name, id}
	}
	old := bytes.Clone(data)

	if err := b.Delete(id[:]); err != nil {
		return nil, engineErr("delete", err)
	}
	tx.markDeleted(tbl.Name, id)
	if cascade {
		tx.logf("DELETE %s/%v (cascade)", tbl.Name, id)
	} else {
		tx.logf("DELETE %s/%v", tbl.Name, id)
	}
	tx.recordChange(OpDelete, tbl.Name, id, cascade)

	err := tx.fire(tbl, schema.EventDelete, schema.Record{ID: id, Bytes: old})
	if err != nil {
		return nil, err
	}
	return old, nil
}
