package packdb

import (
	"encoding/binary"
	"fmt"

	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

// Index rows are stored as keys of the form sortableKey(value) || recordID
// with an empty value, so a bucket holds any number of records per value and
// bytewise key order matches value order.

const idBytes = len(uuid.UUID{})

var emptyIndexValue = []byte{}

// sortableKeySize returns the length of the sortable encoding of t.
func sortableKeySize(t schema.FieldTy) int {
	switch t.Kind {
	case schema.RecordID:
		return idBytes
	case schema.Timestamp:
		return 8
	case schema.IntI32:
		return 4
	case schema.Bool:
		return 1
	default:
		panic(fmt.Errorf("type %v is not indexable", t))
	}
}

// appendSortableKey appends an order-preserving encoding of v: signed
// integers get their sign bit flipped and are stored big-endian.
func appendSortableKey(buf []byte, v schema.FieldValue) []byte {
	switch v.Kind() {
	case schema.RecordID:
		id := v.ID()
		return append(buf, id[:]...)
	case schema.Timestamp:
		return binary.BigEndian.AppendUint64(buf, uint64(v.Unix())^(1<<63))
	case schema.IntI32:
		return binary.BigEndian.AppendUint32(buf, uint32(v.Int())^(1<<31))
	case schema.Bool:
		if v.Bool() {
			return append(buf, 1)
		}
		return append(buf, 0)
	default:
		panic(fmt.Errorf("value %v is not indexable", v))
	}
}

func decodeSortableKey(t schema.FieldTy, data []byte) (schema.FieldValue, error) {
	if len(data) != sortableKeySize(t) {
		return schema.FieldValue{}, dataErrf(data, 0, nil, "%v index key has wrong length", t)
	}
	switch t.Kind {
	case schema.RecordID:
		return schema.RecordIDValue(uuid.UUID(data)), nil
	case schema.Timestamp:
		return schema.UnixValue(int64(binary.BigEndian.Uint64(data) ^ (1 << 63))), nil
	case schema.IntI32:
		return schema.IntValue(int32(binary.BigEndian.Uint32(data) ^ (1 << 31))), nil
	case schema.Bool:
		switch data[0] {
		case 0:
			return schema.BoolValue(false), nil
		case 1:
			return schema.BoolValue(true), nil
		}
		return schema.FieldValue{}, dataErrf(data, 0, nil, "invalid bool index key")
	}
	panic("unreachable")
}

func appendIndexRowKey(buf []byte, v schema.FieldValue, id uuid.UUID) []byte {
	buf = appendSortableKey(buf, v)
	return append(buf, id[:]...)
}

func decodeIndexRowKey(t schema.FieldTy, k []byte) (schema.FieldValue, uuid.UUID, error) {
	n := len(k) - idBytes
	if n < 0 {
		return schema.FieldValue{}, uuid.UUID{}, dataErrf(k, 0, nil, "index row key too short")
	}
	v, err := decodeSortableKey(t, k[:n])
	if err != nil {
		return schema.FieldValue{}, uuid.UUID{}, err
	}
	return v, uuid.UUID(k[n:]), nil
}

// Bounds pad the value with the lowest or highest possible id so that a
// byte range over row keys selects whole values.
var (
	minIDSuffix = make([]byte, idBytes)
	maxIDSuffix = []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
)

func lowerBoundKey(v schema.FieldValue, inclusive bool) []byte {
	buf := appendSortableKey(nil, v)
	if inclusive {
		return append(buf, minIDSuffix...)
	}
	return append(buf, maxIDSuffix...)
}

func upperBoundKey(v schema.FieldValue, inclusive bool) []byte {
	buf := appendSortableKey(nil, v)
	if inclusive {
		return append(buf, maxIDSuffix...)
	}
	return append(buf, minIDSuffix...)
}
