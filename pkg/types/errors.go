package types

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// ErrorCode identifies a failure. Codes are errors themselves so callers can
// match with errors.Is.
type ErrorCode int

// Error codes
const (
	ErrNone ErrorCode = iota
	ErrUnmatchedLoopEnd
	ErrUnterminatedLoop
	ErrCellOverflow
	ErrCellUnderflow
	ErrCursorUnderflow
	ErrCursorOverflow
	ErrInputExhausted
	ErrInputFailed
	ErrOutputFailed
	ErrGasExhausted
	ErrUnknownLanguage
	ErrInvalidBytecode
)

func (c ErrorCode) Error() string { return ErrorMessage(c) }

// Kind groups error codes by the stage that raises them.
type Kind int

const (
	KindNone Kind = iota
	KindParse
	KindArithmetic
	KindCursor
	KindIO
	KindLimit
	KindUsage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindParse:
		return "parse"
	case KindArithmetic:
		return "arithmetic"
	case KindCursor:
		return "cursor"
	case KindIO:
		return "io"
	case KindLimit:
		return "limit"
	case KindUsage:
		return "usage"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kind returns the group the code belongs to.
func (c ErrorCode) Kind() Kind {
	switch c {
	case ErrUnmatchedLoopEnd, ErrUnterminatedLoop:
		return KindParse
	case ErrCellOverflow, ErrCellUnderflow:
		return KindArithmetic
	case ErrCursorUnderflow, ErrCursorOverflow:
		return KindCursor
	case ErrInputExhausted, ErrInputFailed, ErrOutputFailed:
		return KindIO
	case ErrGasExhausted:
		return KindLimit
	case ErrUnknownLanguage, ErrInvalidBytecode:
		return KindUsage
	}
	return KindNone
}

// ErrorMessage returns a human-readable error message for an error code
func ErrorMessage(code ErrorCode) string {
	switch code {
	case ErrNone:
		return "no error"
	case ErrUnmatchedLoopEnd:
		return "unmatched loop end"
	case ErrUnterminatedLoop:
		return "unterminated loop"
	case ErrCellOverflow:
		return "cell overflow"
	case ErrCellUnderflow:
		return "cell underflow"
	case ErrCursorUnderflow:
		return "cursor underflow"
	case ErrCursorOverflow:
		return "cursor overflow"
	case ErrInputExhausted:
		return "input exhausted"
	case ErrInputFailed:
		return "input failed"
	case ErrOutputFailed:
		return "output failed"
	case ErrGasExhausted:
		return "gas exhausted"
	case ErrUnknownLanguage:
		return "unknown language"
	case ErrInvalidBytecode:
		return "invalid bytecode"
	default:
		return fmt.Sprintf("unknown error %d", int(code))
	}
}

// Error is a coded failure with the context it occurred in. Pos is set for
// source-related errors, Cursor for tape errors, Err for an underlying cause.
type Error struct {
	Code   ErrorCode
	Pos    lexer.Position
	Cursor int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Code.Error()
	switch e.Code.Kind() {
	case KindParse:
		msg = fmt.Sprintf("%s at %s", msg, e.Pos)
	case KindArithmetic, KindCursor:
		msg = fmt.Sprintf("%s at cell %d", msg, e.Cursor)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}
