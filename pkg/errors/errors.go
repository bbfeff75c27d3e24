// Package errors defines the error kinds returned by the search index and the
// structured context each kind carries. Callers match kinds with errors.Is
// against the exported sentinels or read them back with KindOf.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the recoverable failures of the index.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindDuplicateID
	KindMalformedQuery
	KindUnknownDocument
	KindOutOfRange
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateID     = errors.New("invalid or duplicate document id")
	ErrMalformedQuery  = errors.New("malformed query")
	ErrUnknownDocument = errors.New("unknown document")
	ErrOutOfRange      = errors.New("document index out of range")
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindDuplicateID:
		return "duplicate_id"
	case KindMalformedQuery:
		return "malformed_query"
	case KindUnknownDocument:
		return "unknown_document"
	case KindOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindDuplicateID:
		return ErrDuplicateID
	case KindMalformedQuery:
		return ErrMalformedQuery
	case KindUnknownDocument:
		return ErrUnknownDocument
	case KindOutOfRange:
		return ErrOutOfRange
	default:
		return nil
	}
}

// Error is a failure of one Kind together with the id, word, character or
// position that triggered it. Fields irrelevant to the kind stay zero.
type Error struct {
	Kind     Kind
	DocID    int
	Word     string
	Char     rune
	Position int
	Index    int
	Count    int
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidInput:
		if e.Reason != "" {
			msg = e.Reason
		} else {
			msg = fmt.Sprintf("control character %#x at position %d", e.Char, e.Position)
		}
	case KindDuplicateID:
		msg = fmt.Sprintf("document id %d", e.DocID)
	case KindMalformedQuery:
		msg = fmt.Sprintf("%s in %q", e.Reason, e.Word)
	case KindUnknownDocument:
		msg = fmt.Sprintf("document id %d", e.DocID)
	case KindOutOfRange:
		msg = fmt.Sprintf("index %d, document count %d", e.Index, e.Count)
	default:
		msg = e.Reason
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if s := e.Kind.sentinel(); s != nil {
		return fmt.Sprintf("%s: %s", s.Error(), msg)
	}
	return msg
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidChar reports a control character found at byte position pos.
func InvalidChar(ch rune, pos int) *Error {
	return &Error{Kind: KindInvalidInput, Char: ch, Position: pos}
}

// InvalidInput reports invalid input that is not a single bad character.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Reason: fmt.Sprintf(format, args...)}
}

func DuplicateID(id int) *Error {
	return &Error{Kind: KindDuplicateID, DocID: id}
}

// MalformedQuery reports a query word rejected for reason. cause, when
// non-nil, is the lower-level failure (for example an InvalidChar).
func MalformedQuery(word, reason string, cause error) *Error {
	return &Error{Kind: KindMalformedQuery, Word: word, Reason: reason, Err: cause}
}

func UnknownDocument(id int) *Error {
	return &Error{Kind: KindUnknownDocument, DocID: id}
}

func OutOfRange(index, count int) *Error {
	return &Error{Kind: KindOutOfRange, Index: index, Count: count}
}

// KindOf returns the Kind of the first *Error in err's chain. Other errors
// that match one of the sentinels under errors.Is report that sentinel's
// kind; everything else is KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k := KindInvalidInput; k <= KindOutOfRange; k++ {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}

// HTTPStatusCode maps an error to the status code the HTTP API responds with.
func HTTPStatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindMalformedQuery:
		return http.StatusBadRequest
	case KindDuplicateID:
		return http.StatusConflict
	case KindUnknownDocument:
		return http.StatusNotFound
	case KindOutOfRange:
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}
