package packdb

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

// dbTx is one storage transaction plus the catalog it runs against. Every
// public operation runs in exactly one dbTx; there is no multi-operation
// transaction API.
type dbTx struct {
	db        *DB
	stx       storageTx
	cat       *catalog
	writable  bool
	startTime time.Time
	stack     string

	changes []Change

	// deleted holds records removed by the current operation, so cascades
	// over cyclic references stop instead of deleting a record twice.
	deleted map[recordRef]struct{}

	keyBufs [][]byte
}

type recordRef struct {
	table string
	id    uuid.UUID
}

func (db *DB) beginTx(writable bool) (*dbTx, error) {
	if writable {
		db.PendingWriterCount.Add(1)
	}
	stx, err := db.store.BeginTx(writable)
	if writable {
		db.PendingWriterCount.Add(-1)
	}
	if err != nil {
		return nil, engineErr("begin", err)
	}

	tx := &dbTx{
		db:        db,
		stx:       stx,
		cat:       db.cat,
		writable:  writable,
		startTime: time.Now(),
	}
	if writable {
		db.WriterCount.Add(1)
	} else {
		db.ReaderCount.Add(1)
	}
	if trackTxns {
		tx.stack = string(debug.Stack())
		db.addTx(tx)
	}
	return tx, nil
}

// close rolls back the transaction unless it has been committed.
func (tx *dbTx) close() {
	if tx.stx == nil {
		return
	}
	if err := tx.stx.Rollback(); err != nil {
		tx.db.logf("db: rollback failed: %v", err)
	}
	tx.stx = nil

	if tx.writable {
		tx.db.WriterCount.Add(-1)
	} else {
		tx.db.ReaderCount.Add(-1)
	}
	if trackTxns {
		tx.db.removeTx(tx)
	}
	tx.release()
}

func (tx *dbTx) commit() error {
	size := tx.stx.Size()
	if err := tx.stx.Commit(); err != nil {
		return engineErr("commit", err)
	}
	tx.db.lastSize.Store(size)
	tx.db.WriteCount.Add(1)
	return nil
}

// read runs f in a read-only transaction with the catalog locked for reading.
func (db *DB) read(f func(tx *dbTx) error) error {
	db.catLock.RLock()
	defer db.catLock.RUnlock()

	tx, err := db.beginTx(false)
	if err != nil {
		return err
	}
	defer tx.close()
	db.ReadCount.Add(1)
	return safelyCall(f, tx)
}

// update runs a record-level mutation: the catalog is locked for reading,
// the transaction commits if f succeeds, and change notifications are
// delivered after the lock is released.
func (db *DB) update(f func(tx *dbTx) error) error {
	changes, err := func() ([]Change, error) {
		db.catLock.RLock()
		defer db.catLock.RUnlock()
		return db.write(nil, f)
	}()
	db.notify(changes)
	return err
}

// write runs f in a writable transaction and commits unless f fails. The
// caller must hold catLock. A non-nil cat replaces the current catalog for
// the duration of the transaction.
func (db *DB) write(cat *catalog, f func(tx *dbTx) error) ([]Change, error) {
	tx, err := db.beginTx(true)
	if err != nil {
		return nil, err
	}
	defer tx.close()
	if cat != nil {
		tx.cat = cat
	}

	err = safelyCall(f, tx)
	if err != nil {
		return nil, err
	}
	err = tx.commit()
	if err != nil {
		return nil, err
	}
	return tx.changes, nil
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func(*dbTx) error, tx *dbTx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func (tx *dbTx) logf(format string, args ...any) {
	if tx.db.verbose {
		tx.db.logf("db: "+format, args...)
	}
}

func (tx *dbTx) table(name string) (*schema.Table, error) {
	tbl := tx.cat.tables[name]
	if tbl == nil {
		return nil, &TableDoesNotExistError{name}
	}
	return tbl, nil
}

func (tx *dbTx) index(name string) (*schema.IndexDef, error) {
	idx := tx.cat.indices[name]
	if idx == nil {
		return nil, &IndexDoesNotExistError{name}
	}
	return idx, nil
}

// bucket returns a bucket that the catalog guarantees to exist.
func (tx *dbTx) bucket(name string) storageBucket {
	b := tx.stx.Bucket(name)
	if b == nil {
		panic(tableErrf(name, "", nil, nil, "bucket %q is missing", name))
	}
	return b
}

// keyBuf borrows a buffer that stays valid until the transaction ends.
func (tx *dbTx) keyBuf() []byte {
	buf := keyBytesPool.Get().([]byte)
	if tx.keyBufs == nil {
		tx.keyBufs = arrayOfBytesPool.Get().([][]byte)
	}
	tx.keyBufs = append(tx.keyBufs, buf)
	return buf[:0]
}

func (tx *dbTx) release() {
	if tx.keyBufs == nil {
		return
	}
	for i, buf := range tx.keyBufs {
		keyBytesPool.Put(buf[:0])
		tx.keyBufs[i] = nil
	}
	arrayOfBytesPool.Put(tx.keyBufs[:0])
	tx.keyBufs = nil
}

func (tx *dbTx) markDeleted(table string, id uuid.UUID) {
	if tx.deleted == nil {
		tx.deleted = make(map[recordRef]struct{})
	}
	tx.deleted[recordRef{table, id}] = struct{}{}
}

func (tx *dbTx) isDeleted(table string, id uuid.UUID) bool {
	_, found := tx.deleted[recordRef{table, id}]
	return found
}
