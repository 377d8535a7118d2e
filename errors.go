package packdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andreyvit/packdb/schema"
	"github.com/google/uuid"
)

var (
	ErrRecordDoesNotExist  = errors.New("record does not exist")
	ErrRecordExists        = errors.New("record already exists")
	ErrTableDoesNotExist   = errors.New("table does not exist")
	ErrTableConflict       = errors.New("table already registered with a different definition")
	ErrIndexDoesNotExist   = errors.New("index does not exist")
	ErrUnsupportedOnDelete = errors.New("unsupported on_delete action")
	ErrInvalidTrigger      = errors.New("invalid trigger")
	ErrWrongType           = schema.ErrWrongType
)

// WrongTypeError reports a value that does not match a field or index type.
type WrongTypeError = schema.WrongTypeError

// EngineError wraps a failure of the underlying key-value engine.
type EngineError struct {
	Op  string
	Err error
}

func engineErr(op string, err error) error {
	return &EngineError{op, err}
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("packdb: %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

type RecordDoesNotExistError struct {
	Table string
	ID    uuid.UUID
}

func (e *RecordDoesNotExistError) Error() string {
	return fmt.Sprintf("%s/%v: record does not exist", e.Table, e.ID)
}

func (e *RecordDoesNotExistError) Is(target error) bool {
	return target == ErrRecordDoesNotExist
}

type RecordExistsError struct {
	Table string
	ID    uuid.UUID
}

func (e *RecordExistsError) Error() string {
	return fmt.Sprintf("%s/%v: record already exists", e.Table, e.ID)
}

func (e *RecordExistsError) Is(target error) bool {
	return target == ErrRecordExists
}

type TableDoesNotExistError struct {
	Table string
}

func (e *TableDoesNotExistError) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Table)
}

func (e *TableDoesNotExistError) Is(target error) bool {
	return target == ErrTableDoesNotExist
}

type TableConflictError struct {
	Table string
}

func (e *TableConflictError) Error() string {
	return fmt.Sprintf("table %q is already registered with a different definition", e.Table)
}

func (e *TableConflictError) Is(target error) bool {
	return target == ErrTableConflict
}

type IndexDoesNotExistError struct {
	Index string
}

func (e *IndexDoesNotExistError) Error() string {
	return fmt.Sprintf("index %q does not exist", e.Index)
}

func (e *IndexDoesNotExistError) Is(target error) bool {
	return target == ErrIndexDoesNotExist
}

// DataError reports bytes read from storage that cannot be interpreted.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	var data string
	if n <= prefixLen+suffixLen {
		data = fmt.Sprintf("(%d) %x", n, e.Data)
	} else {
		data = fmt.Sprintf("(%d) %x...%x", n, e.Data[:prefixLen], e.Data[n-suffixLen:])
	}
	if e.Off != 0 {
		data = fmt.Sprintf("at %d: %s", e.Off, data)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %s", e.Msg, e.Err, data)
	}
	return fmt.Sprintf("%s: %s", e.Msg, data)
}

// TableError attributes a failure to a table, and optionally to an index
// and a key within it.
type TableError struct {
	Table string
	Index string
	Key   []byte
	Msg   string
	Err   error
}

func tableErrf(table, index string, key []byte, err error, format string, args ...any) error {
	return &TableError{table, index, key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Index != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Index)
	}
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(formatKey(e.Key))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// formatKey prints record ids as UUIDs and anything else as hex.
func formatKey(key []byte) string {
	if len(key) == idBytes {
		return uuid.UUID(key).String()
	}
	return hexstr(key)
}
