package packdb

import (
	"fmt"
	"strings"

	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpStats
	DumpIndices
	DumpIndexRows

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var dumpSep = strings.Repeat("-", 60)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the contents of the database for debugging.
func (db *DB) Dump(f DumpFlags) (string, error) {
	var buf strings.Builder
	err := db.read(func(tx *dbTx) error {
		for _, name := range tx.cat.names {
			if err := tx.dumpTable(&buf, f, tx.cat.tables[name]); err != nil {
				return err
			}
		}
		return nil
	})
	return buf.String(), err
}

func (tx *dbTx) dumpTable(w *strings.Builder, f DumpFlags, tbl *schema.Table) error {
	prefix := tbl.Name
	s := tx.tableStats(tbl)

	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(w, rpadf('=', "== %s (%d rows) ", tbl.Name, s.Rows))
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: index_rows = %d, data_size = %d, data_alloc = %d, index_size = %d, index_alloc = %d, total_alloc = %d\n", prefix, s.IndexRows, s.DataSize, s.DataAlloc, s.IndexSize, s.IndexAlloc, s.TotalAlloc())
	}

	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(w, dumpSep)
		}
		var rowPos int
		err := tx.scanRecords(tbl, func(rec schema.Record) error {
			rowPos++
			fmt.Fprintf(w, "%s.%d = %v %s\n", prefix, rowPos, rec.ID, tbl.Describe(rec.Bytes))
			return nil
		})
		if err != nil {
			return err
		}
	}

	if f.Contains(DumpIndices) {
		for _, idx := range tx.cat.tableIndices(tbl.Name) {
			if err := tx.dumpIndex(w, f, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tx *dbTx) dumpIndex(w *strings.Builder, f DumpFlags, idx *schema.IndexDef) error {
	fmt.Fprintln(w, dumpSep)
	fmt.Fprintf(w, "%s (%v, on_delete %v)\n", idx.Name, idx.FieldTy, idx.OnDelete)

	if !f.Contains(DumpIndexRows) {
		return nil
	}
	var rowPos int
	return tx.eachIndexRow(idx, rawRange{}, func(v schema.FieldValue, id uuid.UUID, _ []byte) {
		rowPos++
		fmt.Fprintf(w, "%s.%d: %v => %v\n", idx.Name, rowPos, v, id)
	})
}

func rpadf(pad rune, format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	return rpad(s, 80, pad)
}
