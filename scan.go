package packdb

import (
	"bytes"
	"context"
	"log/slog"
)

const (
	debugLogRawScans = false
)

// rawRange defines a range of byte strings within a bucket, optionally
// restricted to keys starting with prefix. Nil bounds are open.
type rawRange struct {
	Prefix   []byte
	Lower    []byte
	Upper    []byte
	LowerInc bool
	UpperInc bool
	Reverse  bool
}

func rawPrefix(p []byte) rawRange { return rawRange{Prefix: p} }

func (r *rawRange) trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if debugLogRawScans {
		logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}

// start positions the cursor on the first key of the range.
func (r *rawRange) start(bcur storageCursor, logger *slog.Logger) ([]byte, []byte) {
	var k, v []byte
	if r.Reverse {
		upper := r.Upper
		if upper != nil {
			if r.Prefix != nil && !bytes.HasPrefix(upper, r.Prefix) {
				panic("upper bound does not match prefix")
			}
			k, v = bcur.SeekLast(upper)
			r.trace(logger, "SEEK to upper", hexAttr("upper", upper), hexAttr("key", k))
			// SeekLast may land on longer keys starting with upper, or on upper itself.
			for k != nil && r.aboveUpper(k) {
				k, v = bcur.Prev()
				r.trace(logger, "SKIP above upper", hexAttr("key", k))
			}
		} else if r.Prefix != nil {
			k, v = bcur.SeekLast(r.Prefix)
			r.trace(logger, "SEEK to prefix end", hexAttr("prefix", r.Prefix), hexAttr("key", k))
		} else {
			k, v = bcur.Last()
			r.trace(logger, "LAST", hexAttr("key", k))
		}
	} else {
		lower := r.Lower
		if lower != nil {
			if r.Prefix != nil && !bytes.HasPrefix(lower, r.Prefix) {
				panic("lower bound does not match prefix")
			}
			k, v = bcur.Seek(lower)
			r.trace(logger, "SEEK to lower", hexAttr("lower", lower), hexAttr("key", k))
			if k != nil && !r.LowerInc && bytes.Equal(k, lower) {
				k, v = bcur.Next()
				r.trace(logger, "SKIP lower", hexAttr("key", k))
			}
		} else if r.Prefix != nil {
			k, v = bcur.Seek(r.Prefix)
			r.trace(logger, "SEEK to prefix", hexAttr("prefix", r.Prefix), hexAttr("key", k))
		} else {
			k, v = bcur.First()
			r.trace(logger, "FIRST", hexAttr("key", k))
		}
	}
	if k == nil || !r.match(k, logger) {
		return nil, nil
	}
	return k, v
}

func (r *rawRange) aboveUpper(k []byte) bool {
	cmp := bytes.Compare(k, r.Upper)
	return cmp > 0 || (cmp == 0 && !r.UpperInc)
}

func (r *rawRange) next(bcur storageCursor, logger *slog.Logger) ([]byte, []byte) {
	var k, v []byte
	if r.Reverse {
		k, v = bcur.Prev()
		r.trace(logger, "PREV", hexAttr("key", k))
	} else {
		k, v = bcur.Next()
		r.trace(logger, "NEXT", hexAttr("key", k))
	}
	if k == nil || !r.match(k, logger) {
		return nil, nil
	}
	return k, v
}

// match checks the bound the scan is moving towards; the other one was
// handled by start.
func (r *rawRange) match(k []byte, logger *slog.Logger) bool {
	if r.Prefix != nil && !bytes.HasPrefix(k, r.Prefix) {
		r.trace(logger, "BAIL on prefix", hexAttr("prefix", r.Prefix), hexAttr("key", k))
		return false
	}
	if r.Reverse {
		if lower := r.Lower; lower != nil {
			cmp := bytes.Compare(k, lower)
			if cmp < 0 || (cmp == 0 && !r.LowerInc) {
				r.trace(logger, "BAIL on lower", hexAttr("lower", lower), hexAttr("key", k))
				return false
			}
		}
	} else {
		if r.Upper != nil && r.aboveUpper(k) {
			r.trace(logger, "BAIL on upper", hexAttr("upper", r.Upper), hexAttr("key", k))
			return false
		}
	}
	return true
}

func (r *rawRange) newCursor(bcur storageCursor, logger *slog.Logger) *rawRangeCursor {
	return &rawRangeCursor{rang: *r, bcur: bcur, logger: logger}
}

type rawRangeCursor struct {
	rang   rawRange
	bcur   storageCursor
	logger *slog.Logger
	k, v   []byte
	init   bool
}

func (c *rawRangeCursor) Next() bool {
	if c.init {
		c.k, c.v = c.rang.next(c.bcur, c.logger)
	} else {
		c.init = true
		c.k, c.v = c.rang.start(c.bcur, c.logger)
	}
	return c.k != nil
}

func (c *rawRangeCursor) Key() []byte   { return c.k }
func (c *rawRangeCursor) Value() []byte { return c.v }
