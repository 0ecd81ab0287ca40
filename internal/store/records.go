package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sadopc/stampclock/internal/stamp"
)

const recordColumns = `id, user_id, check_in_ms, check_out_ms`

// sortColumns maps the public sort fields to columns. Anything else is
// rejected before it reaches SQL.
var sortColumns = map[stamp.SortField]string{
	stamp.SortByID:       "id",
	stamp.SortByUserID:   "user_id",
	stamp.SortByCheckIn:  "check_in_ms",
	stamp.SortByCheckOut: "check_out_ms",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (stamp.StampRecord, error) {
	var (
		r        stamp.StampRecord
		userID   int64
		checkIn  int64
		checkOut sql.NullInt64
	)
	if err := row.Scan(&r.ID, &userID, &checkIn, &checkOut); err != nil {
		return stamp.StampRecord{}, err
	}
	r.UserID = &userID
	r.CheckInMillis = &checkIn
	if checkOut.Valid {
		r.CheckOutMillis = &checkOut.Int64
	}
	return r, nil
}

func nullable(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// Insert stores r. A non-zero r.ID is kept; otherwise SQLite assigns one.
func (s *Store) Insert(ctx context.Context, r stamp.StampRecord) (stamp.StampRecord, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stamp_records (id, user_id, check_in_ms, check_out_ms) VALUES (NULLIF(?, 0), ?, ?, ?)`,
		r.ID, nullable(r.UserID), nullable(r.CheckInMillis), nullable(r.CheckOutMillis),
	)
	if err != nil {
		if isOpenRecordConflict(err) {
			return stamp.StampRecord{}, fmt.Errorf("insert record: %w", stamp.ErrAlreadyCheckedIn)
		}
		return stamp.StampRecord{}, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return stamp.StampRecord{}, fmt.Errorf("insert record id: %w", err)
	}
	r.ID = id
	return r, nil
}

func (s *Store) Update(ctx context.Context, r stamp.StampRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stamp_records SET user_id = ?, check_in_ms = ?, check_out_ms = ? WHERE id = ?`,
		nullable(r.UserID), nullable(r.CheckInMillis), nullable(r.CheckOutMillis), r.ID,
	)
	if err != nil {
		if isOpenRecordConflict(err) {
			return fmt.Errorf("update record %d: %w", r.ID, stamp.ErrAlreadyCheckedIn)
		}
		return fmt.Errorf("update record %d: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %d: %w", r.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update record %d: %w", r.ID, stamp.ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*stamp.StampRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM stamp_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &r, nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stamp_records WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("record %d exists: %w", id, err)
	}
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stamp_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *Store) LatestByUser(ctx context.Context, userID int64) (*stamp.StampRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM stamp_records
		 WHERE user_id = ?
		 ORDER BY check_in_ms DESC, id DESC
		 LIMIT 1`, userID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest record for user %d: %w", userID, err)
	}
	return &r, nil
}

func (s *Store) ByUserAndCheckInRange(ctx context.Context, userID, startMillis, endMillis int64) ([]stamp.StampRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM stamp_records
		 WHERE user_id = ? AND check_in_ms BETWEEN ? AND ?
		 ORDER BY check_in_ms ASC, id ASC`,
		userID, startMillis, endMillis)
	if err != nil {
		return nil, fmt.Errorf("records in range for user %d: %w", userID, err)
	}
	return collect(rows)
}

func (s *Store) PageByUser(ctx context.Context, userID int64, p stamp.PageRequest) (stamp.Page, error) {
	p = p.Normalize()
	col, ok := sortColumns[p.Sort.Field]
	if !ok {
		return stamp.Page{}, fmt.Errorf("page records: unknown sort field %q", p.Sort.Field)
	}

	page := stamp.Page{Page: p.Page, Size: p.Size}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stamp_records WHERE user_id = ?`, userID).Scan(&page.Total)
	if err != nil {
		return stamp.Page{}, fmt.Errorf("count records for user %d: %w", userID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM stamp_records WHERE user_id = ? `+orderBy(col, p.Sort.Desc)+` LIMIT ? OFFSET ?`,
		userID, p.Size, p.Offset())
	if err != nil {
		return stamp.Page{}, fmt.Errorf("page records for user %d: %w", userID, err)
	}
	page.Records, err = collect(rows)
	if err != nil {
		return stamp.Page{}, err
	}
	return page, nil
}

// orderBy sorts NULL lowest in both directions, with id as the tie-break.
func orderBy(col string, desc bool) string {
	if desc {
		return fmt.Sprintf("ORDER BY %s DESC NULLS LAST, id DESC", col)
	}
	return fmt.Sprintf("ORDER BY %s ASC NULLS FIRST, id ASC", col)
}

// All returns every stored record ordered by id.
func (s *Store) All(ctx context.Context) ([]stamp.StampRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM stamp_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]stamp.StampRecord, error) {
	defer rows.Close()

	var records []stamp.StampRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
