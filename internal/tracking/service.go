// Package tracking computes check-in status and worked time over stamp
// records held by a RecordStore.
//
// The Service holds no state besides its store. The "one open record per
// user" invariant is guarded twice: Create refuses a user whose latest record
// is open, and every RecordStore rejects a second open record for the same
// user with stamp.ErrAlreadyCheckedIn, so concurrent creators cannot both win.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sadopc/stampclock/internal/stamp"
)

// RecordStore persists stamp records.
//
// Get and LatestByUser return nil, nil when nothing matches. LatestByUser
// orders by check-in descending and breaks ties by id descending.
// ByUserAndCheckInRange matches check-in times in [start, end] and returns
// them by check-in ascending, then id ascending. Insert and Update return
// stamp.ErrAlreadyCheckedIn when the write would leave a user with two open
// records.
type RecordStore interface {
	Insert(ctx context.Context, r stamp.StampRecord) (stamp.StampRecord, error)
	Update(ctx context.Context, r stamp.StampRecord) error
	Get(ctx context.Context, id int64) (*stamp.StampRecord, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	LatestByUser(ctx context.Context, userID int64) (*stamp.StampRecord, error)
	ByUserAndCheckInRange(ctx context.Context, userID, startMillis, endMillis int64) ([]stamp.StampRecord, error)
	PageByUser(ctx context.Context, userID int64, p stamp.PageRequest) (stamp.Page, error)
}

type Service struct {
	store RecordStore
}

func NewService(store RecordStore) *Service {
	return &Service{store: store}
}

// storeErr tags a store failure. The open-record constraint and a row that
// vanished between Exists and Update are domain outcomes and pass through.
func storeErr(op string, err error) error {
	if errors.Is(err, stamp.ErrAlreadyCheckedIn) || errors.Is(err, stamp.ErrNotFound) || stamp.IsStoreError(err) {
		return err
	}
	return &stamp.StoreError{Op: op, Err: err}
}

// IsCheckedIn reports whether the user's most recent record is still open.
func (s *Service) IsCheckedIn(ctx context.Context, userID int64) (bool, error) {
	latest, err := s.store.LatestByUser(ctx, userID)
	if err != nil {
		return false, storeErr("latest by user", err)
	}
	if latest == nil {
		return false, nil
	}
	return latest.Open(), nil
}

// RecordsInCheckInRange returns the user's records whose check-in falls in
// [startMillis, endMillis], in store order. The check-out may lie outside
// the range.
func (s *Service) RecordsInCheckInRange(ctx context.Context, userID, startMillis, endMillis int64) ([]stamp.StampRecord, error) {
	records, err := s.store.ByUserAndCheckInRange(ctx, userID, startMillis, endMillis)
	if err != nil {
		return nil, storeErr("by user and check-in range", err)
	}
	if records == nil {
		records = []stamp.StampRecord{}
	}
	return records, nil
}

// CheckedInDuration returns check-out minus check-in for a closed record.
// Callers must not ask for an open record; that yields stamp.ErrRecordOpen.
func (s *Service) CheckedInDuration(ctx context.Context, recordID int64) (time.Duration, error) {
	r, err := s.Get(ctx, recordID)
	if err != nil {
		return 0, err
	}
	return checkedIn(r)
}

func checkedIn(r stamp.StampRecord) (time.Duration, error) {
	if r.CheckInMillis == nil {
		return 0, fmt.Errorf("record %d: %w", r.ID, stamp.ErrInvalidRecord)
	}
	if r.Open() {
		return 0, fmt.Errorf("record %d: %w", r.ID, stamp.ErrRecordOpen)
	}
	in, out := *r.CheckInMillis, *r.CheckOutMillis
	if out <= in {
		return 0, fmt.Errorf("record %d: check-out not after check-in: %w", r.ID, stamp.ErrInvalidRecord)
	}
	// out > in, so a negative difference means the subtraction wrapped.
	diff := out - in
	if diff < 0 || diff > maxSpanMillis {
		return 0, fmt.Errorf("record %d: %d to %d ms: %w", r.ID, in, out, stamp.ErrSpanTooLong)
	}
	return time.Duration(diff) * time.Millisecond, nil
}

const maxSpanMillis = math.MaxInt64 / int64(time.Millisecond)

// HoursWorked returns the checked-in duration of a record minus its break.
func (s *Service) HoursWorked(ctx context.Context, recordID int64) (time.Duration, error) {
	d, err := s.CheckedInDuration(ctx, recordID)
	if err != nil {
		return 0, err
	}
	return stamp.WorkedTime(d)
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, recordID int64) (stamp.StampRecord, error) {
	r, err := s.store.Get(ctx, recordID)
	if err != nil {
		return stamp.StampRecord{}, storeErr("get", err)
	}
	if r == nil {
		return stamp.StampRecord{}, fmt.Errorf("record %d: %w", recordID, stamp.ErrNotFound)
	}
	return *r, nil
}

// Create validates r and stores it unless its user is already checked in.
func (s *Service) Create(ctx context.Context, r stamp.StampRecord) (stamp.StampRecord, error) {
	if err := stamp.Validate(r); err != nil {
		return stamp.StampRecord{}, err
	}
	in, err := s.IsCheckedIn(ctx, *r.UserID)
	if err != nil {
		return stamp.StampRecord{}, err
	}
	if in {
		return stamp.StampRecord{}, fmt.Errorf("user %d: %w", *r.UserID, stamp.ErrAlreadyCheckedIn)
	}
	saved, err := s.store.Insert(ctx, r)
	if err != nil {
		return stamp.StampRecord{}, storeErr("insert", err)
	}
	return saved, nil
}

// Update replaces every field of the record with the given id.
func (s *Service) Update(ctx context.Context, recordID int64, r stamp.StampRecord) (stamp.StampRecord, error) {
	ok, err := s.store.Exists(ctx, recordID)
	if err != nil {
		return stamp.StampRecord{}, storeErr("exists", err)
	}
	if !ok {
		return stamp.StampRecord{}, fmt.Errorf("record %d: %w", recordID, stamp.ErrNotFound)
	}
	if err := stamp.Validate(r); err != nil {
		return stamp.StampRecord{}, err
	}
	r.ID = recordID
	if err := s.store.Update(ctx, r); err != nil {
		return stamp.StampRecord{}, storeErr("update", err)
	}
	return r, nil
}

// Delete removes the record with the given id.
func (s *Service) Delete(ctx context.Context, recordID int64) error {
	ok, err := s.store.Exists(ctx, recordID)
	if err != nil {
		return storeErr("exists", err)
	}
	if !ok {
		return fmt.Errorf("record %d: %w", recordID, stamp.ErrNotFound)
	}
	if _, err := s.store.Delete(ctx, recordID); err != nil {
		return storeErr("delete", err)
	}
	return nil
}

// ListByUser returns one page of the user's records.
func (s *Service) ListByUser(ctx context.Context, userID int64, p stamp.PageRequest) (stamp.Page, error) {
	page, err := s.store.PageByUser(ctx, userID, p.Normalize())
	if err != nil {
		return stamp.Page{}, storeErr("page by user", err)
	}
	return page, nil
}

// CheckIn opens a new record for the user at atMillis.
func (s *Service) CheckIn(ctx context.Context, userID, atMillis int64) (stamp.StampRecord, error) {
	return s.Create(ctx, stamp.StampRecord{UserID: &userID, CheckInMillis: &atMillis})
}

// CheckOut closes the user's open record at atMillis.
func (s *Service) CheckOut(ctx context.Context, userID, atMillis int64) (stamp.StampRecord, error) {
	latest, err := s.store.LatestByUser(ctx, userID)
	if err != nil {
		return stamp.StampRecord{}, storeErr("latest by user", err)
	}
	if latest == nil || !latest.Open() {
		return stamp.StampRecord{}, fmt.Errorf("user %d: %w", userID, stamp.ErrNotCheckedIn)
	}
	closed := *latest
	closed.CheckOutMillis = &atMillis
	return s.Update(ctx, closed.ID, closed)
}
