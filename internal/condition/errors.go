package condition

import (
	"fmt"

	"github.com/ppiankov/clausewise/internal/model"
)

// Error is a syntax or evaluation error. It matches model.ErrConditionEvaluation
type Error struct {
	Pos int // byte offset in the condition, -1 when not applicable
	Msg string
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Pos)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return model.ErrConditionEvaluation
}

func errorAt(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func errorf(format string, args ...any) *Error {
	return errorAt(-1, format, args...)
}
