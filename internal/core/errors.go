package core

import (
	"errors"
	"fmt"
)

// Storage errors returned by ledger stores. Implementations wrap the
// underlying cause together with the sentinel so both match errors.Is.
var (
	ErrStorageWrite    = errors.New("storage write failed")
	ErrStorageRead     = errors.New("storage read failed")
	ErrMalformedRecord = errors.New("malformed record")
)

// MalformedRecordError describes a stored row that violates the
// transaction invariants.
type MalformedRecordError struct {
	Line  int    // 1-based line or row number in the underlying store
	Field string // column that failed, empty for structural problems
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed record at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed record at line %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Is makes every MalformedRecordError match ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
