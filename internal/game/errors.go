package game

import (
	"errors"
	"fmt"

	"github.com/nenshoukei/zombals-sub000/internal/game/registry"
)

// DefinitionError reports a malformed definition catalog.
type DefinitionError = registry.DefinitionError

// ForbiddenError rejects a command that breaks turn, ownership or phase rules.
// The match state is untouched.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

func forbidden(format string, args ...interface{}) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// RuntimeError reports a broken internal invariant. The command that caused it
// is rolled back.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func runtimeErr(op string, format string, args ...interface{}) error {
	return &RuntimeError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ErrMatchFinished is returned for commands sent after the match ended.
var ErrMatchFinished = errors.New("match finished")

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}
