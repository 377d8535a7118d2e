package packdb

import (
	"time"

	"github.com/andreyvit/packdb/schema"
)

type TableStats struct {
	Rows      int
	IndexRows int

	DataSize   int64
	DataAlloc  int64
	IndexSize  int64
	IndexAlloc int64

	SchemaHash   uint64
	RegisteredAt time.Time
	LastOpened   time.Time
}

func (ts *TableStats) TotalSize() int64 {
	return ts.DataSize + ts.IndexSize
}

func (ts *TableStats) TotalAlloc() int64 {
	return ts.DataAlloc + ts.IndexAlloc
}

// TableStats reports row counts and storage usage of a table and its indices.
func (db *DB) TableStats(name string) (TableStats, error) {
	var result TableStats
	err := db.read(func(tx *dbTx) error {
		tbl, err := tx.table(name)
		if err != nil {
			return err
		}
		result = tx.tableStats(tbl)
		meta, err := tx.loadMeta(name)
		if err != nil {
			return err
		}
		if meta != nil {
			result.SchemaHash = meta.SchemaHash
			result.RegisteredAt = meta.RegisteredAt
			result.LastOpened = meta.LastOpened
		}
		return nil
	})
	return result, err
}

func (tx *dbTx) tableStats(tbl *schema.Table) TableStats {
	bs := tx.bucket(tbl.Name).Stats()
	result := TableStats{
		Rows:      bs.KeyN,
		DataSize:  bs.LeafInuse,
		DataAlloc: bs.TotalAlloc(),
	}

	for _, idx := range tx.cat.tableIndices(tbl.Name) {
		bs = tx.bucket(idx.Name).Stats()
		result.IndexRows += bs.KeyN
		result.IndexSize += bs.LeafInuse
		result.IndexAlloc += bs.TotalAlloc()
	}
	return result
}
