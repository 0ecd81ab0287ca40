// Package memstore keeps stamp records in process memory. It backs the
// tracking tests and the "memory" store driver.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sadopc/stampclock/internal/stamp"
)

type Store struct {
	mu      sync.RWMutex
	records map[int64]stamp.StampRecord
	lastID  int64
	fail    error
}

func New() *Store {
	return &Store{records: make(map[int64]stamp.StampRecord)}
}

// FailWith makes every later call return err. A nil err restores normal
// behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func clone(r stamp.StampRecord) stamp.StampRecord {
	c := stamp.StampRecord{ID: r.ID}
	if r.UserID != nil {
		c.UserID = stamp.Int64(*r.UserID)
	}
	if r.CheckInMillis != nil {
		c.CheckInMillis = stamp.Int64(*r.CheckInMillis)
	}
	if r.CheckOutMillis != nil {
		c.CheckOutMillis = stamp.Int64(*r.CheckOutMillis)
	}
	return c
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fail
}

// openConflict reports whether another record of r's user is open.
// Caller holds the lock.
func (s *Store) openConflict(r stamp.StampRecord) bool {
	if !r.Open() {
		return false
	}
	for id, other := range s.records {
		if id != r.ID && other.Open() && other.User() == r.User() {
			return true
		}
	}
	return false
}

func (s *Store) Insert(ctx context.Context, r stamp.StampRecord) (stamp.StampRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return stamp.StampRecord{}, err
	}

	if r.ID != 0 {
		if _, ok := s.records[r.ID]; ok {
			return stamp.StampRecord{}, fmt.Errorf("insert record: duplicate id %d", r.ID)
		}
	}
	if s.openConflict(r) {
		return stamp.StampRecord{}, fmt.Errorf("insert record: %w", stamp.ErrAlreadyCheckedIn)
	}

	saved := clone(r)
	if saved.ID == 0 {
		saved.ID = s.lastID + 1
	}
	if saved.ID > s.lastID {
		s.lastID = saved.ID
	}
	s.records[saved.ID] = saved
	return clone(saved), nil
}

func (s *Store) Update(ctx context.Context, r stamp.StampRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if _, ok := s.records[r.ID]; !ok {
		return fmt.Errorf("update record %d: %w", r.ID, stamp.ErrNotFound)
	}
	if s.openConflict(r) {
		return fmt.Errorf("update record %d: %w", r.ID, stamp.ErrAlreadyCheckedIn)
	}
	s.records[r.ID] = clone(r)
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*stamp.StampRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	c := clone(r)
	return &c, nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	_, ok := s.records[id]
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

// byUser returns copies of the user's records. Caller holds the lock.
func (s *Store) byUser(userID int64, keep func(stamp.StampRecord) bool) []stamp.StampRecord {
	var out []stamp.StampRecord
	for _, r := range s.records {
		if r.User() != userID || r.UserID == nil {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, clone(r))
	}
	return out
}

func (s *Store) LatestByUser(ctx context.Context, userID int64) (*stamp.StampRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	records := s.byUser(userID, nil)
	if len(records) == 0 {
		return nil, nil
	}
	sortRecords(records, stamp.DefaultSort)
	return &records[0], nil
}

func (s *Store) ByUserAndCheckInRange(ctx context.Context, userID, startMillis, endMillis int64) ([]stamp.StampRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	records := s.byUser(userID, func(r stamp.StampRecord) bool {
		if r.CheckInMillis == nil {
			return false
		}
		in := *r.CheckInMillis
		return in >= startMillis && in <= endMillis
	})
	sortRecords(records, stamp.Sort{Field: stamp.SortByCheckIn})
	return records, nil
}

func (s *Store) PageByUser(ctx context.Context, userID int64, p stamp.PageRequest) (stamp.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return stamp.Page{}, err
	}

	p = p.Normalize()
	records := s.byUser(userID, nil)
	sortRecords(records, p.Sort)

	page := stamp.Page{Page: p.Page, Size: p.Size, Total: int64(len(records))}
	from := min(p.Offset(), len(records))
	to := min(from+p.Size, len(records))
	page.Records = records[from:to]
	return page, nil
}

// sortRecords orders records the way the SQL stores do: nil sorts lowest and
// ties fall back to id in the same direction.
func sortRecords(records []stamp.StampRecord, by stamp.Sort) {
	slices.SortFunc(records, func(a, b stamp.StampRecord) int {
		c := compareField(a, b, by.Field)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if by.Desc {
			return -c
		}
		return c
	})
}

func compareField(a, b stamp.StampRecord, f stamp.SortField) int {
	switch f {
	case stamp.SortByUserID:
		return comparePtr(a.UserID, b.UserID)
	case stamp.SortByCheckIn:
		return comparePtr(a.CheckInMillis, b.CheckInMillis)
	case stamp.SortByCheckOut:
		return comparePtr(a.CheckOutMillis, b.CheckOutMillis)
	}
	return 0
}

func comparePtr(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

// All returns every record ordered by id.
func (s *Store) All(ctx context.Context) ([]stamp.StampRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	records := make([]stamp.StampRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, clone(r))
	}
	sortRecords(records, stamp.Sort{Field: stamp.SortByID})
	return records, nil
}
