package packdb

import (
	"testing"

	"github.com/andreyvit/packdb/schema"
)

func TestOpString(t *testing.T) {
	deepEqual(t, OpNone.String(), "none")
	deepEqual(t, OpInsert.String(), "insert")
	deepEqual(t, OpDelete.String(), "delete")
	deepEqual(t, Op(42).String(), "invalid op 42")
}

func TestChangeString(t *testing.T) {
	deepEqual(t, Change{OpInsert, "users", id(1), false}.String(), "insert users/"+id(1).String())
	deepEqual(t, Change{OpDelete, "items", id(2), true}.String(), "delete items/"+id(2).String()+" (cascade)")
}

func TestOnChange(t *testing.T) {
	var batches [][]Change
	db := setupMem(t, Options{
		OnChange: func(changes []Change) { batches = append(batches, changes) },
	})
	must(db.RegisterTable("users", usersDef))
	isempty(t, batches)

	insert(t, db, "users", id(1), vals{})
	must(db.DeleteRecord("users", id(1)))

	// Failed operations do not notify.
	if _, err := db.DeleteRecord("users", id(1)); err == nil {
		t.Fatalf("** second DeleteRecord succeeded")
	}
	rec := schema.Record{ID: id(2), Bytes: []byte{1}}
	if db.InsertRecord("users", rec) == nil {
		t.Fatalf("** InsertRecord(malformed) succeeded")
	}

	deepEqual(t, batches, [][]Change{
		{{OpInsert, "users", id(1), false}},
		{{OpDelete, "users", id(1), false}},
	})
}

func TestNoChangesTrackedWithoutOnChange(t *testing.T) {
	db := setupMem(t, Options{})
	must(db.RegisterTable("users", usersDef))
	rec := record(t, db, "users", id(1), vals{})
	err := db.update(func(tx *dbTx) error {
		ensure(tx.insert(must(tx.table("users")), rec))
		isempty(t, tx.changes)
		return nil
	})
	ensure(err)
}
