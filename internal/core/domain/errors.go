package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStageOrder      = errors.New("operation not allowed in current state")
	ErrDecode          = errors.New("document decode failed")
	ErrEngineFailure   = errors.New("engine failure")
	ErrSessionCorrupt  = errors.New("session state corrupt")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationErrors accumulates user-fixable reasons from one validation pass.
// The pipeline reports all of them together instead of stopping at the first.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v, "; ")
}

// AsValidationErrors unwraps err into the accumulated reason list, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
