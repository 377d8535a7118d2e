package packdb

import (
	"bytes"
	"fmt"
	"log"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyvit/packdb/schema"
	"go.etcd.io/bbolt"
)

const trackTxns = true

type DB struct {
	store    storage
	bdb      *bbolt.DB
	logf     func(format string, args ...any)
	logger   *slog.Logger
	verbose  bool
	onChange func(changes []Change)
	triggers []schema.Trigger

	// catLock is always acquired before a storage transaction is started.
	// Record operations hold it for reading, schema changes for writing.
	catLock sync.RWMutex
	cat     *catalog

	lastSize           atomic.Int64
	ReaderCount        atomic.Int64
	WriterCount        atomic.Int64
	PendingWriterCount atomic.Int64
	ReadCount          atomic.Uint64
	WriteCount         atomic.Uint64

	txns     []*dbTx
	txnsLock sync.Mutex
}

type Options struct {
	// Logf receives log lines; defaults to log.Printf.
	Logf func(format string, args ...any)

	// Verbose logs every record and index mutation.
	Verbose bool

	// IsTesting trades durability for speed.
	IsTesting bool

	MmapSize int

	// InMemory keeps all data in memory; path is ignored.
	InMemory bool

	// OnChange is called after every committed record operation with the
	// records it inserted and deleted, cascades included.
	OnChange func(changes []Change)

	// Triggers are extra println triggers logged through Logf.
	Triggers []schema.Trigger
}

// Open opens or creates the database at path and loads the tables
// registered in it.
func Open(path string, opt Options) (*DB, error) {
	db := &DB{
		logf:     opt.Logf,
		logger:   slog.Default(),
		verbose:  opt.Verbose,
		onChange: opt.OnChange,
		triggers: opt.Triggers,
	}
	if db.logf == nil {
		db.logf = log.Printf
	}

	if opt.InMemory {
		db.store = newMemStorage()
	} else {
		bopt := *bbolt.DefaultOptions
		bopt.Timeout = 10 * time.Second
		if opt.IsTesting {
			bopt.NoSync = true
			bopt.NoFreelistSync = true
			bopt.InitialMmapSize = 1024 * 1024 * 5
		} else {
			bopt.InitialMmapSize = 1024 * 1024 * 1024
			bopt.FreelistType = bbolt.FreelistMapType
		}
		if opt.MmapSize != 0 {
			bopt.InitialMmapSize = opt.MmapSize
		}

		bdb, err := bbolt.Open(path, 0666, &bopt)
		if err != nil {
			return nil, fmt.Errorf("packdb: %w", err)
		}
		db.bdb = bdb
		db.store = newBoltStorage(bdb)
	}

	err := db.load()
	if err != nil {
		db.store.Close()
		return nil, err
	}
	return db, nil
}

// load reads the schema region, builds the catalog and refreshes table meta.
func (db *DB) load() error {
	db.catLock.Lock()
	defer db.catLock.Unlock()

	var cat *catalog
	_, err := db.write(&catalog{}, func(tx *dbTx) error {
		tables, err := tx.stx.CreateBucket(tablesBucket)
		if err != nil {
			return engineErr("create bucket", err)
		}
		_, err = tx.stx.CreateBucket(metaBucket)
		if err != nil {
			return engineErr("create bucket", err)
		}

		defs := make(map[string]schema.TableDef)
		packed := make(map[string][]byte)
		c := tables.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			name := string(k)
			def, err := schema.UnpackTableDef(v)
			if err != nil {
				return tableErrf(name, "", nil, err, "failed to decode table definition")
			}
			defs[name] = def
			packed[name] = bytes.Clone(v)
		}

		cat, err = buildCatalog(defs, db.triggers)
		if err != nil {
			return err
		}
		tx.cat = cat

		now := time.Now()
		for _, name := range cat.names {
			if err := tx.createTableBuckets(cat.tables[name]); err != nil {
				return err
			}
			if err := tx.touchMeta(name, packed[name], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.cat = cat
	db.logf("db: opened with %d tables", len(cat.names))
	return nil
}

// Bolt returns the underlying Bolt database, or nil for in-memory databases.
func (db *DB) Bolt() *bbolt.DB {
	return db.bdb
}

// Size returns the database size as of the last committed write.
func (db *DB) Size() int64 {
	return db.lastSize.Load()
}

func (db *DB) Close() error {
	err := db.store.Close()
	if err != nil {
		return fmt.Errorf("packdb: closing: %w", err)
	}
	return nil
}

func (db *DB) addTx(tx *dbTx) {
	db.txnsLock.Lock()
	defer db.txnsLock.Unlock()
	db.txns = append(db.txns, tx)
}

func (db *DB) removeTx(tx *dbTx) {
	db.txnsLock.Lock()
	defer db.txnsLock.Unlock()

	found := slices.Index(db.txns, tx)
	if found < 0 {
		panic("tx not found in list")
	}

	n := len(db.txns)
	db.txns[found] = db.txns[n-1]
	db.txns[n-1] = nil // ensure it gets collected
	db.txns = db.txns[:n-1]
}

func (db *DB) DescribeOpenTxns() string {
	if !trackTxns {
		return "OPEN TX TRACKING DISABLED"
	}

	db.txnsLock.Lock()
	txns := slices.Clone(db.txns)
	db.txnsLock.Unlock()

	if len(txns) == 0 {
		return "NO OPEN TRANSACTIONS"
	}

	slices.SortFunc(txns, func(a, b *dbTx) int {
		return a.startTime.Compare(b.startTime)
	})

	now := time.Now()

	var buf strings.Builder
	fmt.Fprintf(&buf, "%d OPEN TRANSACTIONS:\n", len(txns))
	for _, tx := range txns {
		ms := now.Sub(tx.startTime).Milliseconds()
		kind := "read"
		if tx.writable {
			kind = "write"
		}
		if ms < 100 {
			fmt.Fprintf(&buf, "\n---\n%s open for %d ms\n", kind, ms)
		} else {
			fmt.Fprintf(&buf, "\n---\n%s open for %d ms:\n%s", kind, ms, tx.stack)
		}
	}

	return buf.String()
}
