package packdb

import (
	"fmt"

	"github.com/google/uuid"
)

type Op int

const (
	OpNone   Op = 0
	OpInsert Op = 1
	OpDelete Op = 2
)

func (v Op) String() string {
	switch v {
	case OpNone:
		return "none"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

// Change describes one record written by a committed operation. Cascade is
// set for records deleted because a record they referenced was deleted.
type Change struct {
	Op      Op
	Table   string
	ID      uuid.UUID
	Cascade bool
}

func (chg Change) String() string {
	if chg.Cascade {
		return fmt.Sprintf("%v %s/%v (cascade)", chg.Op, chg.Table, chg.ID)
	}
	return fmt.Sprintf("%v %s/%v", chg.Op, chg.Table, chg.ID)
}

func (tx *dbTx) recordChange(op Op, table string, id uuid.UUID, cascade bool) {
	if tx.db.onChange == nil {
		return
	}
	tx.changes = append(tx.changes, Change{op, table, id, cascade})
}

// notify delivers changes of a committed transaction, in the order they were made.
func (db *DB) notify(changes []Change) {
	if db.onChange == nil || len(changes) == 0 {
		return
	}
	db.onChange(changes)
}
