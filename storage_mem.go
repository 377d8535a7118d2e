package packdb

import (
	"bytes"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
)

var (
	errStorageClosed = errors.New("storage closed")
	errReadOnlyTx    = errors.New("tx not writable")
)

// memStorage is a transient in-memory storage. Every transaction works on a
// private snapshot; committing a writable one replaces the shared state.
// A writable transaction copies a bucket on its first write to it.
type memStorage struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[string]*memBucket
	closed  bool
	writer  bool
}

func newMemStorage() storage {
	s := &memStorage{buckets: make(map[string]*memBucket)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStorageClosed
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, errStorageClosed
		}
		s.writer = true
	}

	// Committed buckets are never mutated in place, so transactions share them.
	tx := &memTx{
		writable: writable,
		base:     s,
		buckets:  s.buckets,
	}
	if writable {
		tx.buckets = maps.Clone(s.buckets)
		tx.owned = make(map[*memBucket]bool)
	}
	return tx, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	s.cond.Broadcast()
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	buckets  map[string]*memBucket
	closed   bool

	// owned holds the buckets this tx created or copied, which it may modify.
	owned map[*memBucket]bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Bucket(name string) storageBucket {
	if tx.closed {
		panic("tx is closed")
	}
	if tx.buckets[name] == nil {
		return nil
	}
	return memBucketHandle{tx: tx, name: name}
}

func (tx *memTx) CreateBucket(name string) (storageBucket, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return nil, errReadOnlyTx
	}
	if tx.buckets[name] == nil {
		b := &memBucket{}
		tx.buckets[name] = b
		tx.owned[b] = true
	}
	return memBucketHandle{tx: tx, name: name}, nil
}

func (tx *memTx) DeleteBucket(name string) error {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return errReadOnlyTx
	}
	if tx.buckets[name] == nil {
		return ErrBucketNotFound
	}
	delete(tx.buckets, name)
	return nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return errReadOnlyTx
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return errStorageClosed
	}
	tx.base.buckets = tx.buckets
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

func (tx *memTx) Size() int64 {
	var n int64
	for _, b := range tx.buckets {
		n += b.size()
	}
	return n
}

type memBucket struct {
	items []memKV // sorted by key
}

type memKV struct {
	key   []byte
	value []byte
}

// clone copies the item list. Keys and values are never modified in place,
// so they are shared.
func (b *memBucket) clone() *memBucket {
	return &memBucket{items: slices.Clone(b.items)}
}

func (b *memBucket) size() int64 {
	var n int64
	for _, kv := range b.items {
		n += int64(len(kv.key) + len(kv.value))
	}
	return n
}

func (b *memBucket) search(key []byte) int {
	return sort.Search(len(b.items), func(i int) bool {
		return bytes.Compare(b.items[i].key, key) >= 0
	})
}

// memBucketHandle looks its bucket up by name on every call, so that it
// sees the copy made by the first write.
type memBucketHandle struct {
	tx   *memTx
	name string
}

func (h memBucketHandle) bucket() *memBucket {
	if b := h.tx.buckets[h.name]; b != nil {
		return b
	}
	return &memBucket{}
}

func (h memBucketHandle) mutable() (*memBucket, error) {
	if !h.tx.writable {
		return nil, errReadOnlyTx
	}
	b := h.tx.buckets[h.name]
	if b == nil {
		return nil, ErrBucketNotFound
	}
	if !h.tx.owned[b] {
		b = b.clone()
		h.tx.buckets[h.name] = b
		h.tx.owned[b] = true
	}
	return b, nil
}

func (h memBucketHandle) Get(key []byte) []byte {
	b := h.bucket()
	i, ok := b.find(key)
	if !ok {
		return nil
	}
	return b.items[i].value
}

func (h memBucketHandle) Put(key, value []byte) error {
	b, err := h.mutable()
	if err != nil {
		return err
	}
	// Bolt stores an empty value for a nil one; mirror that so Get can tell
	// a present key from a missing one.
	value = append([]byte{}, value...)

	i, ok := b.find(key)
	if ok {
		b.items[i].value = value
		return nil
	}
	b.items = slices.Insert(b.items, i, memKV{key: slices.Clone(key), value: value})
	return nil
}

func (h memBucketHandle) Delete(key []byte) error {
	b, err := h.mutable()
	if err != nil {
		return err
	}
	i, ok := b.find(key)
	if !ok {
		return nil
	}
	b.items = slices.Delete(b.items, i, i+1)
	return nil
}

func (h memBucketHandle) Cursor() storageCursor {
	return &memCursor{b: h.bucket(), pos: -1}
}

func (h memBucketHandle) Stats() bucketStats {
	b := h.bucket()
	inuse := b.size()
	return bucketStats{
		KeyN:      len(b.items),
		LeafInuse: inuse,
		LeafAlloc: inuse,
	}
}

func (b *memBucket) find(key []byte) (idx int, ok bool) {
	i := b.search(key)
	return i, i < len(b.items) && bytes.Equal(b.items[i].key, key)
}

type memCursor struct {
	b   *memBucket
	pos int
}

func (c *memCursor) at(pos int) ([]byte, []byte) {
	c.pos = pos
	if pos < 0 || pos >= len(c.b.items) {
		return nil, nil
	}
	kv := c.b.items[pos]
	return kv.key, kv.value
}

func (c *memCursor) First() ([]byte, []byte) {
	return c.at(0)
}

func (c *memCursor) Last() ([]byte, []byte) {
	return c.at(len(c.b.items) - 1)
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	return c.at(c.b.search(seek))
}

func (c *memCursor) SeekLast(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.Last()
	}
	limit := bytes.Clone(prefix)
	if !inc(limit) {
		// All-0xFF prefix: nothing sorts after its matches.
		return c.Last()
	}
	return c.at(c.b.search(limit) - 1)
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.pos >= len(c.b.items) {
		return nil, nil
	}
	return c.at(c.pos + 1)
}

func (c *memCursor) Prev() ([]byte, []byte) {
	if c.pos < 0 {
		return nil, nil
	}
	return c.at(c.pos - 1)
}
