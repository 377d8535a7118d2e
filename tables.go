package packdb

import (
	"errors"
	"slices"
	"time"

	"github.com/andreyvit/packdb/schema"
)

// RegisterTable adds a table. Registering a table that already exists with
// an identical definition returns the existing table; a different definition
// fails with *TableConflictError.
func (db *DB) RegisterTable(name string, def schema.TableDef) (*schema.Table, error) {
	if _, err := schema.Compile(name, def); err != nil {
		return nil, err
	}

	db.catLock.Lock()
	defer db.catLock.Unlock()

	if existing := db.cat.tables[name]; existing != nil {
		if existing.Def.Equal(def) {
			return existing, nil
		}
		return nil, &TableConflictError{name}
	}

	cat, err := db.cat.with(name, def, db.triggers)
	if err != nil {
		return nil, err
	}
	tbl := cat.tables[name]

	_, err = db.write(cat, func(tx *dbTx) error {
		packed := schema.PackTableDef(def)
		if err := tx.bucket(tablesBucket).Put([]byte(name), packed); err != nil {
			return engineErr("put table", err)
		}
		if err := tx.createTableBuckets(tbl); err != nil {
			return err
		}
		now := time.Now()
		return tx.saveMeta(name, &tableMeta{
			SchemaHash:   schemaHash(packed),
			RegisteredAt: now,
			LastOpened:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	db.cat = cat
	db.logf("db: registered table %v", tbl)
	return tbl, nil
}

// DeleteTable removes a table with all of its records and indices. Tables
// that reference it are left alone; their references become dangling.
func (db *DB) DeleteTable(name string) error {
	db.catLock.Lock()
	defer db.catLock.Unlock()

	if db.cat.tables[name] == nil {
		return &TableDoesNotExistError{name}
	}
	oldIndices := db.cat.tableIndices(name)
	referencing := db.cat.referencing(name)

	cat, err := db.cat.without(name, db.triggers)
	if err != nil {
		return err
	}

	_, err = db.write(cat, func(tx *dbTx) error {
		if err := tx.deleteBucket(name); err != nil {
			return err
		}
		for _, idx := range oldIndices {
			if err := tx.deleteBucket(idx.Name); err != nil {
				return err
			}
		}
		if err := tx.bucket(tablesBucket).Delete([]byte(name)); err != nil {
			return engineErr("delete table", err)
		}
		if err := tx.bucket(metaBucket).Delete([]byte(name)); err != nil {
			return engineErr("delete meta", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.cat = cat
	db.logf("db: deleted table %s", name)
	for _, idx := range referencing {
		db.logf("db: WARNING: %s.%s still references deleted table %s", idx.Table, idx.Field, name)
	}
	return nil
}

// TableNames returns the registered table names in sorted order.
func (db *DB) TableNames() []string {
	db.catLock.RLock()
	defer db.catLock.RUnlock()
	return slices.Clone(db.cat.names)
}

// Table returns the compiled table, or *TableDoesNotExistError.
func (db *DB) Table(name string) (*schema.Table, error) {
	db.catLock.RLock()
	defer db.catLock.RUnlock()
	tbl := db.cat.tables[name]
	if tbl == nil {
		return nil, &TableDoesNotExistError{name}
	}
	return tbl, nil
}

func (tx *dbTx) createTableBuckets(tbl *schema.Table) error {
	if _, err := tx.stx.CreateBucket(tbl.Name); err != nil {
		return engineErr("create bucket", err)
	}
	for _, idx := range tx.cat.tableIndices(tbl.Name) {
		if _, err := tx.stx.CreateBucket(idx.Name); err != nil {
			return engineErr("create bucket", err)
		}
	}
	return nil
}

func (tx *dbTx) deleteBucket(name string) error {
	err := tx.stx.DeleteBucket(name)
	if errors.Is(err, ErrBucketNotFound) {
		tx.db.logf("db: bucket %s was already missing", name)
		return nil
	}
	if err != nil {
		return engineErr("delete bucket", err)
	}
	return nil
}
