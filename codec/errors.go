package codec

import "fmt"

// ErrorKind classifies board file errors.
type ErrorKind int

const (
	ErrHeaderRead ErrorKind = iota + 1
	ErrTruncatedRecord
	ErrWrite
	ErrNilBoard
)

func (k ErrorKind) String() string {
	switch k {
	case ErrHeaderRead:
		return "header read"
	case ErrTruncatedRecord:
		return "truncated record"
	case ErrWrite:
		return "write"
	case ErrNilBoard:
		return "nil board"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrHeader      = &Error{Kind: ErrHeaderRead, Record: -1}
	ErrTruncated   = &Error{Kind: ErrTruncatedRecord}
	ErrWriteFailed = &Error{Kind: ErrWrite}
)

// Error carries the byte offset and field at which a board file operation
// failed.
type Error struct {
	Kind ErrorKind
	// Offset is where the header or record that failed starts in the
	// stream. Field says how far into it a read got.
	Offset int64
	Field  string
	// Record is the zero-based entity index, or -1 for the header.
	Record int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	where := "header"
	if e.Record >= 0 {
		where = fmt.Sprintf("record %d", e.Record)
	}
	msg := fmt.Sprintf("board: %v at offset %d (%s", e.Kind, e.Offset, where)
	if e.Field != "" {
		msg += " " + e.Field
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can test against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
