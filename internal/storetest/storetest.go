// Package storetest holds the behaviour every tracking.RecordStore must
// share. Store packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/tracking"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) tracking.RecordStore

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s tracking.RecordStore)
	}{
		{"InsertAssignsID", testInsertAssignsID},
		{"InsertKeepsPresetID", testInsertKeepsPresetID},
		{"GetMissing", testGetMissing},
		{"UpdateReplaces", testUpdateReplaces},
		{"UpdateMissing", testUpdateMissing},
		{"ExistsAndDelete", testExistsAndDelete},
		{"LatestByUser", testLatestByUser},
		{"LatestByUserTieBreak", testLatestByUserTieBreak},
		{"SecondOpenRecordRejected", testSecondOpenRecordRejected},
		{"ReopenViaUpdateRejected", testReopenViaUpdateRejected},
		{"RangeUsesCheckIn", testRangeUsesCheckIn},
		{"RangeEmpty", testRangeEmpty},
		{"PageDefaultSort", testPageDefaultSort},
		{"PageSizes", testPageSizes},
		{"PageSortCheckOutNulls", testPageSortCheckOutNulls},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustInsert(t *testing.T, s tracking.RecordStore, r stamp.StampRecord) stamp.StampRecord {
	t.Helper()
	saved, err := s.Insert(context.Background(), r)
	if err != nil {
		t.Fatalf("insert %+v: %v", r, err)
	}
	return saved
}

func ids(records []stamp.StampRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testInsertAssignsID(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	a := mustInsert(t, s, stamp.New(0, 50, 100))
	b := mustInsert(t, s, stamp.New(0, 150, 200))
	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Fatalf("expected distinct non-zero ids, got %d and %d", a.ID, b.ID)
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("inserted record not found")
	}
	if got.User() != 0 || *got.CheckInMillis != 50 || *got.CheckOutMillis != 100 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func testInsertKeepsPresetID(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	r := stamp.New(1, 1737356400000, 1737385200000)
	r.ID = 1000
	saved := mustInsert(t, s, r)
	if saved.ID != 1000 {
		t.Fatalf("expected id 1000, got %d", saved.ID)
	}
	next := mustInsert(t, s, stamp.New(1, 1737400000000, 1737410000000))
	if next.ID <= 1000 {
		t.Fatalf("generated id %d should follow preset id 1000", next.ID)
	}

	dup := stamp.New(2, 1, 2)
	dup.ID = 1000
	if _, err := s.Insert(ctx, dup); err == nil {
		t.Fatal("expected error for duplicate id")
	} else if errors.Is(err, stamp.ErrAlreadyCheckedIn) {
		t.Fatal("duplicate id is not a check-in conflict")
	}
}

func testGetMissing(t *testing.T, s tracking.RecordStore) {
	got, err := s.Get(context.Background(), 9999)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func testUpdateReplaces(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	saved := mustInsert(t, s, stamp.New(0, 50, 0))

	replacement := stamp.New(1, 60, 120)
	replacement.ID = saved.ID
	if err := s.Update(ctx, replacement); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, saved.ID)
	if got == nil || got.User() != 1 || *got.CheckInMillis != 60 || got.Open() || *got.CheckOutMillis != 120 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func testUpdateMissing(t *testing.T, s tracking.RecordStore) {
	r := stamp.New(1, 60, 120)
	r.ID = 4242
	err := s.Update(context.Background(), r)
	if !errors.Is(err, stamp.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testExistsAndDelete(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	saved := mustInsert(t, s, stamp.New(0, 50, 100))

	ok, err := s.Exists(ctx, saved.ID)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	deleted, err := s.Delete(ctx, saved.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	ok, _ = s.Exists(ctx, saved.ID)
	if ok {
		t.Fatal("record should be gone")
	}
	deleted, err = s.Delete(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Fatal("second delete should report false")
	}
}

func testLatestByUser(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	latest, err := s.LatestByUser(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Fatal("no records yet")
	}

	mustInsert(t, s, stamp.New(7, 300, 400))
	want := mustInsert(t, s, stamp.New(7, 500, 600))
	mustInsert(t, s, stamp.New(7, 100, 200))
	mustInsert(t, s, stamp.New(8, 900, 1000))

	latest, err = s.LatestByUser(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != want.ID {
		t.Fatalf("expected record %d, got %+v", want.ID, latest)
	}
}

func testLatestByUserTieBreak(t *testing.T, s tracking.RecordStore) {
	first := mustInsert(t, s, stamp.New(3, 500, 600))
	second := mustInsert(t, s, stamp.New(3, 500, 700))
	if second.ID < first.ID {
		t.Fatal("ids should grow")
	}
	latest, err := s.LatestByUser(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != second.ID {
		t.Fatalf("equal check-ins must resolve to the higher id %d, got %d", second.ID, latest.ID)
	}
}

func testSecondOpenRecordRejected(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	mustInsert(t, s, stamp.New(2, 50, 0))
	_, err := s.Insert(ctx, stamp.New(2, 60, 0))
	if !errors.Is(err, stamp.ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}

	// Closed records and other users are unaffected.
	mustInsert(t, s, stamp.New(2, 10, 20))
	mustInsert(t, s, stamp.New(5, 60, 0))
}

func testReopenViaUpdateRejected(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	closed := mustInsert(t, s, stamp.New(4, 10, 20))
	mustInsert(t, s, stamp.New(4, 50, 0))

	reopened := stamp.New(4, 10, 0)
	reopened.ID = closed.ID
	err := s.Update(ctx, reopened)
	if !errors.Is(err, stamp.ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func testRangeUsesCheckIn(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	start, end := int64(1735704000000), int64(1736974800000)

	a := mustInsert(t, s, stamp.New(0, 1736492400000, 1736517600000))
	b := mustInsert(t, s, stamp.New(0, 1736060400000, 1736074800000))
	// Checks in before the range, checks out inside it.
	mustInsert(t, s, stamp.New(0, 1735600000000, 1735710000000))
	// Checks in inside the range, checks out after it.
	c := mustInsert(t, s, stamp.New(0, 1736970000000, 1736990000000))
	// Exactly on the bounds.
	d := mustInsert(t, s, stamp.New(0, start, start+1))
	e := mustInsert(t, s, stamp.New(0, end, end+1))
	mustInsert(t, s, stamp.New(0, 1737356400000, 1737399600000))
	mustInsert(t, s, stamp.New(1, 1736060400000, 1736074800000))

	got, err := s.ByUserAndCheckInRange(ctx, 0, start, end)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{d.ID, b.ID, a.ID, c.ID, e.ID}
	if !equalIDs(ids(got), want) {
		t.Fatalf("range ids = %v, want %v", ids(got), want)
	}
}

func testRangeEmpty(t *testing.T, s tracking.RecordStore) {
	got, err := s.ByUserAndCheckInRange(context.Background(), 0, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func testPageDefaultSort(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	r1 := mustInsert(t, s, stamp.New(0, 1736060400000, 1736074800000))
	r2 := mustInsert(t, s, stamp.New(0, 1737702000000, 1737710000000))
	r3 := mustInsert(t, s, stamp.New(0, 1736492400000, 1736517600000))
	mustInsert(t, s, stamp.New(1, 1737800000000, 1737810000000))

	page, err := s.PageByUser(ctx, 0, stamp.PageRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3", page.Total)
	}
	want := []int64{r2.ID, r3.ID, r1.ID}
	if !equalIDs(ids(page.Records), want) {
		t.Fatalf("page ids = %v, want %v", ids(page.Records), want)
	}
}

func testPageSizes(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	var inserted []int64
	for i := int64(1); i <= 5; i++ {
		r := mustInsert(t, s, stamp.New(0, i*100, i*100+50))
		inserted = append(inserted, r.ID)
	}

	p := stamp.PageRequest{Page: 0, Size: 2, Sort: stamp.Sort{Field: stamp.SortByCheckIn}}
	page, err := s.PageByUser(ctx, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(page.Records), inserted[:2]) {
		t.Fatalf("page 0 = %v, want %v", ids(page.Records), inserted[:2])
	}
	if page.TotalPages() != 3 {
		t.Fatalf("TotalPages = %d, want 3", page.TotalPages())
	}

	p.Page = 2
	page, _ = s.PageByUser(ctx, 0, p)
	if !equalIDs(ids(page.Records), inserted[4:]) {
		t.Fatalf("page 2 = %v, want %v", ids(page.Records), inserted[4:])
	}

	p.Page = 9
	page, _ = s.PageByUser(ctx, 0, p)
	if len(page.Records) != 0 {
		t.Fatalf("page past the end should be empty, got %v", ids(page.Records))
	}
}

func testPageSortCheckOutNulls(t *testing.T, s tracking.RecordStore) {
	ctx := context.Background()
	closedEarly := mustInsert(t, s, stamp.New(0, 100, 200))
	open := mustInsert(t, s, stamp.New(0, 300, 0))
	closedLate := mustInsert(t, s, stamp.New(0, 150, 900))

	asc := stamp.PageRequest{Size: 10, Sort: stamp.Sort{Field: stamp.SortByCheckOut}}
	page, err := s.PageByUser(ctx, 0, asc)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{open.ID, closedEarly.ID, closedLate.ID}
	if !equalIDs(ids(page.Records), want) {
		t.Fatalf("asc = %v, want %v", ids(page.Records), want)
	}

	desc := asc
	desc.Sort.Desc = true
	page, _ = s.PageByUser(ctx, 0, desc)
	want = []int64{closedLate.ID, closedEarly.ID, open.ID}
	if !equalIDs(ids(page.Records), want) {
		t.Fatalf("desc = %v, want %v", ids(page.Records), want)
	}
}
