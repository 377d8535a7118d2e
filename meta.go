package packdb

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// tableMeta is the bookkeeping document stored per table in the meta bucket.
type tableMeta struct {
	SchemaHash   uint64    `msgpack:"h"`
	RegisteredAt time.Time `msgpack:"r"`
	LastOpened   time.Time `msgpack:"o"`
}

func schemaHash(packedDef []byte) uint64 {
	return xxhash.Sum64(packedDef)
}

func (tx *dbTx) loadMeta(name string) (*tableMeta, error) {
	raw := tx.bucket(metaBucket).Get([]byte(name))
	if raw == nil {
		return nil, nil
	}
	meta := new(tableMeta)
	if err := msgpack.Unmarshal(raw, meta); err != nil {
		return nil, tableErrf(name, "", nil, err, "failed to decode table meta")
	}
	return meta, nil
}

func (tx *dbTx) saveMeta(name string, meta *tableMeta) error {
	raw, err := msgpack.Marshal(meta)
	if err != nil {
		return tableErrf(name, "", nil, err, "failed to encode table meta")
	}
	if err := tx.bucket(metaBucket).Put([]byte(name), raw); err != nil {
		return engineErr("put meta", err)
	}
	return nil
}

// touchMeta records that the table was seen with the given definition. A
// definition whose hash differs from the recorded one was changed without
// going through RegisterTable, which is logged and then accepted.
func (tx *dbTx) touchMeta(name string, packedDef []byte, now time.Time) error {
	meta, err := tx.loadMeta(name)
	if err != nil {
		return err
	}
	hash := schemaHash(packedDef)
	if meta == nil {
		tx.db.logf("db: table %s has no meta, recreating", name)
		meta = &tableMeta{SchemaHash: hash, RegisteredAt: now}
	} else if meta.SchemaHash != hash {
		tx.db.logf("db: WARNING: definition of table %s changed outside of RegisterTable (hash %016x, recorded %016x)", name, hash, meta.SchemaHash)
		meta.SchemaHash = hash
	}
	meta.LastOpened = now
	return tx.saveMeta(name, meta)
}
