package packdb

import (
	"fmt"

	"github.com/andreyvit/packdb/schema"
)

// fire runs every trigger registered on tbl for ev, in catalog order.
func (tx *dbTx) fire(tbl *schema.Table, ev schema.Event, rec schema.Record) error {
	for _, t := range tx.cat.triggers[tbl.Name] {
		if t.Event != ev {
			continue
		}
		if err := tx.runAction(tbl, t.Action, rec); err != nil {
			return err
		}
	}
	return nil
}

func (tx *dbTx) runAction(tbl *schema.Table, a schema.Action, rec schema.Record) error {
	if a.Kind == schema.ActionPrintln {
		tx.db.logf("%s", a.Text)
		return nil
	}

	idx, err := tx.index(a.Index)
	if err != nil {
		return err
	}
	switch a.Kind {
	case schema.ActionInsertIntoIndex:
		return tx.indexInsert(idx, tbl, rec)
	case schema.ActionDeleteValueFromIndex:
		return tx.indexDeleteValue(idx, tbl, rec)
	case schema.ActionDeleteKeyFromIndex:
		return tx.indexDeleteKey(idx, rec.ID)
	default:
		panic(fmt.Errorf("unknown trigger action %v", a))
	}
}
