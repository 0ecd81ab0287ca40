package stamp

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRecord    = errors.New("invalid stamp record")
	ErrAlreadyCheckedIn = errors.New("user is already checked in")
	ErrNotCheckedIn     = errors.New("user is not checked in")
	ErrNotFound         = errors.New("stamp record not found")

	// ErrRecordOpen is returned when a duration is requested for a record
	// that has no check-out yet.
	ErrRecordOpen = errors.New("stamp record is still open")

	// ErrNegativeWorkedTime signals a break deduction larger than the
	// checked-in duration. The break table makes this unreachable.
	ErrNegativeWorkedTime = errors.New("worked time is negative")

	// ErrSpanTooLong is returned when check-out minus check-in does not fit
	// in a time.Duration (about 292 years).
	ErrSpanTooLong = errors.New("checked-in span too long")
)

// StoreError wraps any failure reported by a record store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err came from the record store.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
