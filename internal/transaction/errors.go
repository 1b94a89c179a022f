package transaction

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("transaction not found")
	// ErrRuleViolation matches every status rule failure below.
	ErrRuleViolation = errors.New("transaction rule violation")
	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("transaction storage failure")

	ErrCannotModifyCaptured      error = &RuleError{msg: "cannot modify a captured transaction"}
	ErrCannotCaptureUnauthorized error = &RuleError{msg: "cannot change the status of the payment to CAPTURED unless it is AUTHORIZED"}
	ErrCannotDeleteCaptured      error = &RuleError{msg: "cannot delete a captured transaction"}
)

type RuleError struct {
	msg string
}

func (e *RuleError) Error() string { return e.msg }

func (e *RuleError) Is(target error) bool { return target == ErrRuleViolation }

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("couldn't find the given transaction '%s'", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps a failure reported by the Store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
