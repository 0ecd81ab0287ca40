package stamp

import (
	"fmt"
	"time"
)

// StampRecord is one check-in/check-out event for a user.
// A nil CheckOutMillis means the user is still checked in.
type StampRecord struct {
	ID             int64  `json:"id"`
	UserID         *int64 `json:"userId"`
	CheckInMillis  *int64 `json:"checkInMillis"`
	CheckOutMillis *int64 `json:"checkOutMillis"`
}

// New builds a record from plain values. A zero checkOut leaves the record open.
func New(userID, checkIn, checkOut int64) StampRecord {
	r := StampRecord{UserID: Int64(userID), CheckInMillis: Int64(checkIn)}
	if checkOut != 0 {
		r.CheckOutMillis = Int64(checkOut)
	}
	return r
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Open reports whether the record has no check-out yet.
func (r StampRecord) Open() bool {
	return r.CheckOutMillis == nil
}

// User returns the owning user id, or 0 when unset.
func (r StampRecord) User() int64 {
	if r.UserID == nil {
		return 0
	}
	return *r.UserID
}

// CheckIn returns the check-in time. The record must have a check-in.
func (r StampRecord) CheckIn() time.Time {
	return time.UnixMilli(*r.CheckInMillis).UTC()
}

// CheckOut returns the check-out time and false for an open record.
func (r StampRecord) CheckOut() (time.Time, bool) {
	if r.CheckOutMillis == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*r.CheckOutMillis).UTC(), true
}

// Validate checks the structural invariants of r. The returned error wraps
// ErrInvalidRecord.
func Validate(r StampRecord) error {
	if r.UserID == nil {
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if r.CheckInMillis == nil {
		return fmt.Errorf("%w: check-in time is required", ErrInvalidRecord)
	}
	if r.CheckOutMillis != nil && *r.CheckInMillis >= *r.CheckOutMillis {
		return fmt.Errorf("%w: check-in %d must be before check-out %d",
			ErrInvalidRecord, *r.CheckInMillis, *r.CheckOutMillis)
	}
	return nil
}

// IsValid reports whether r passes Validate.
func IsValid(r StampRecord) bool {
	return Validate(r) == nil
}
