package packdb

import (
	"errors"
	"os"
	"testing"

	"go.etcd.io/bbolt"
)

func eachStorage(t *testing.T, f func(t *testing.T, s storage)) {
	t.Run("bolt", func(t *testing.T) {
		f(t, setupBoltStorage(t))
	})
	t.Run("mem", func(t *testing.T) {
		s := newMemStorage()
		t.Cleanup(func() { s.Close() })
		f(t, s)
	})
}

func setupBoltStorage(t testing.TB) storage {
	dbFile := must(os.CreateTemp("", "packdb_storage_*.db"))
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	bdb := must(bbolt.Open(dbFile.Name(), 0666, &bbolt.Options{
		NoSync:          true,
		InitialMmapSize: 1024 * 1024,
	}))
	s := newBoltStorage(bdb)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageBasics(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		deepEqual(t, wtx.Writable(), true)
		if wtx.Bucket("b") != nil {
			t.Fatalf("** Bucket(b) before creation is non-nil")
		}
		b := must(wtx.CreateBucket("b"))
		ensure(b.Put([]byte("k1"), []byte("v1")))
		ensure(b.Put([]byte("k2"), []byte{}))
		deepEqual(t, string(b.Get([]byte("k1"))), "v1")
		again := must(wtx.CreateBucket("b"))
		deepEqual(t, string(again.Get([]byte("k1"))), "v1")
		ensure(wtx.Commit())
		ensure(wtx.Rollback())

		rtx := must(s.BeginTx(false))
		defer rtx.Rollback()
		deepEqual(t, rtx.Writable(), false)
		rb := nonNil(rtx.Bucket("b"))
		deepEqual(t, string(rb.Get([]byte("k1"))), "v1")
		if v := rb.Get([]byte("k2")); v == nil || len(v) != 0 {
			t.Errorf("** Get(k2) = %v, wanted non-nil empty value", v)
		}
		if rb.Get([]byte("k3")) != nil {
			t.Errorf("** Get(k3) is non-nil")
		}
		deepEqual(t, rb.Stats().KeyN, 2)
		if rb.Put([]byte("k3"), nil) == nil {
			t.Errorf("** Put in read-only tx succeeded")
		}
	})
}

func TestStorageRollback(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		ensure(must(wtx.CreateBucket("b")).Put([]byte("k1"), []byte("v1")))
		ensure(wtx.Commit())

		wtx = must(s.BeginTx(true))
		b := nonNil(wtx.Bucket("b"))
		ensure(b.Put([]byte("k2"), []byte("v2")))
		ensure(b.Delete([]byte("k1")))
		must(wtx.CreateBucket("c"))
		ensure(wtx.Rollback())

		rtx := must(s.BeginTx(false))
		defer rtx.Rollback()
		rb := nonNil(rtx.Bucket("b"))
		deepEqual(t, string(rb.Get([]byte("k1"))), "v1")
		if rb.Get([]byte("k2")) != nil {
			t.Errorf("** rolled back Put is visible")
		}
		if rtx.Bucket("c") != nil {
			t.Errorf("** rolled back CreateBucket is visible")
		}
	})
}

func TestStorageReaderIsolation(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		ensure(must(wtx.CreateBucket("b")).Put([]byte("k1"), []byte("v1")))
		ensure(wtx.Commit())

		rtx := must(s.BeginTx(false))
		defer rtx.Rollback()

		wtx = must(s.BeginTx(true))
		ensure(nonNil(wtx.Bucket("b")).Put([]byte("k1"), []byte("v2")))
		ensure(wtx.Commit())

		deepEqual(t, string(nonNil(rtx.Bucket("b")).Get([]byte("k1"))), "v1")

		rtx2 := must(s.BeginTx(false))
		defer rtx2.Rollback()
		deepEqual(t, string(nonNil(rtx2.Bucket("b")).Get([]byte("k1"))), "v2")
	})
}

func TestStorageDeleteBucket(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		defer wtx.Rollback()
		ensure(must(wtx.CreateBucket("b")).Put([]byte("k"), []byte("v")))
		ensure(wtx.DeleteBucket("b"))
		if wtx.Bucket("b") != nil {
			t.Errorf("** deleted bucket still exists")
		}
		err := wtx.DeleteBucket("b")
		if !errors.Is(err, ErrBucketNotFound) {
			t.Errorf("** DeleteBucket(missing) = %v, wanted ErrBucketNotFound", err)
		}
		b := must(wtx.CreateBucket("b"))
		if b.Get([]byte("k")) != nil {
			t.Errorf("** recreated bucket kept old keys")
		}
	})
}

func TestStorageCursor(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		defer wtx.Rollback()
		b := must(wtx.CreateBucket("b"))
		for _, k := range []string{"10", "1001", "1002", "11", "ff", "ff01", "ffff"} {
			ensure(b.Put(x(k), []byte(k)))
		}

		c := b.Cursor()
		k, v := c.First()
		deepEqual(t, hexstr(k), "10")
		deepEqual(t, string(v), "10")
		k, _ = c.Next()
		deepEqual(t, hexstr(k), "1001")
		k, _ = c.Prev()
		deepEqual(t, hexstr(k), "10")
		k, _ = c.Prev()
		deepEqual(t, hexstr(k), "<nil>")

		k, _ = c.Last()
		deepEqual(t, hexstr(k), "ffff")
		k, _ = c.Next()
		deepEqual(t, hexstr(k), "<nil>")

		k, _ = c.Seek(x("1003"))
		deepEqual(t, hexstr(k), "11")
		k, _ = c.Seek(x("ffff01"))
		deepEqual(t, hexstr(k), "<nil>")

		seekLast := []struct {
			prefix string
			want   string
		}{
			{"10", "1002"},
			{"1001", "1001"},
			{"1003", "1002"},
			{"11", "11"},
			{"12", "11"},
			{"ff", "ffff"},
			{"ffff", "ffff"},
			{"0f", "<nil>"},
			{"", "ffff"},
		}
		for _, tt := range seekLast {
			k, _ := b.Cursor().SeekLast(x(tt.prefix))
			if got := hexstr(k); got != tt.want {
				t.Errorf("** SeekLast(%s) = %s, wanted %s", tt.prefix, got, tt.want)
			}
		}

		c.SeekLast(x("10"))
		k, _ = c.Next()
		deepEqual(t, hexstr(k), "11")
	})
}

func TestStorageSize(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		defer wtx.Rollback()
		b := must(wtx.CreateBucket("b"))
		ensure(b.Put([]byte("key"), []byte("value")))
		if wtx.Size() <= 0 {
			t.Errorf("** Size() = %d, wanted positive", wtx.Size())
		}
	})
}

func TestMemStorageClosed(t *testing.T) {
	s := newMemStorage()
	ensure(s.Close())
	_, err := s.BeginTx(false)
	if !errors.Is(err, errStorageClosed) {
		t.Fatalf("** BeginTx after Close = %v, wanted errStorageClosed", err)
	}
}

func TestMemStorageCopiesOnWrite(t *testing.T) {
	s := newMemStorage().(*memStorage)
	wtx := must(s.BeginTx(true))
	ensure(must(wtx.CreateBucket("a")).Put([]byte("k"), []byte("a1")))
	ensure(must(wtx.CreateBucket("b")).Put([]byte("k"), []byte("b1")))
	ensure(wtx.Commit())
	a, b := s.buckets["a"], s.buckets["b"]

	rtx := must(s.BeginTx(false))
	defer rtx.Rollback()

	wtx = must(s.BeginTx(true))
	wa := nonNil(wtx.Bucket("a"))
	deepEqual(t, string(wa.Get([]byte("k"))), "a1")
	ensure(wa.Put([]byte("k"), []byte("a2")))
	ensure(wa.Put([]byte("k2"), []byte("x")))
	deepEqual(t, string(wa.Get([]byte("k"))), "a2")
	deepEqual(t, string(nonNil(wtx.Bucket("a")).Get([]byte("k2"))), "x")
	ensure(wtx.Commit())

	if s.buckets["b"] != b {
		t.Errorf("** unwritten bucket was copied")
	}
	if s.buckets["a"] == a {
		t.Errorf("** written bucket was not copied")
	}
	deepEqual(t, len(a.items), 1)
	deepEqual(t, string(nonNil(rtx.Bucket("a")).Get([]byte("k"))), "a1")

	wtx = must(s.BeginTx(true))
	defer wtx.Rollback()
	stale := nonNil(wtx.Bucket("b"))
	ensure(wtx.DeleteBucket("b"))
	if err := stale.Put([]byte("k"), nil); !errors.Is(err, ErrBucketNotFound) {
		t.Errorf("** Put into deleted bucket = %v, wanted ErrBucketNotFound", err)
	}
}
