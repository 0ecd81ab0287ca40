// Package pgstore keeps stamp records in PostgreSQL for the shared HTTP
// deployment.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/stampclock/internal/stamp"
)

//go:embed migrations/001_stamp_records.sql
var schema string

const (
	uniqueViolation = "23505"
	openRecordIndex = "idx_stamp_one_open_per_user"
)

const recordColumns = `id, user_id, check_in_ms, check_out_ms`

var sortColumns = map[stamp.SortField]string{
	stamp.SortByID:       "id",
	stamp.SortByUserID:   "user_id",
	stamp.SortByCheckIn:  "check_in_ms",
	stamp.SortByCheckOut: "check_out_ms",
}

type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL. The schema is not touched; call Migrate.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the stamp_records table and its indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func isOpenRecordConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == openRecordIndex
}

func scanRecord(row pgx.Row) (stamp.StampRecord, error) {
	var r stamp.StampRecord
	if err := row.Scan(&r.ID, &r.UserID, &r.CheckInMillis, &r.CheckOutMillis); err != nil {
		return stamp.StampRecord{}, err
	}
	return r, nil
}

func (s *Store) Insert(ctx context.Context, r stamp.StampRecord) (stamp.StampRecord, error) {
	var err error
	if r.ID == 0 {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO stamp_records (user_id, check_in_ms, check_out_ms)
			 VALUES ($1, $2, $3) RETURNING id`,
			r.UserID, r.CheckInMillis, r.CheckOutMillis,
		).Scan(&r.ID)
	} else {
		err = s.insertWithID(ctx, r)
	}
	if err != nil {
		if isOpenRecordConflict(err) {
			return stamp.StampRecord{}, fmt.Errorf("insert record: %w", stamp.ErrAlreadyCheckedIn)
		}
		return stamp.StampRecord{}, fmt.Errorf("insert record: %w", err)
	}
	return r, nil
}

// insertWithID keeps a caller-chosen id and moves the sequence past it so
// later generated ids do not collide.
func (s *Store) insertWithID(ctx context.Context, r stamp.StampRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO stamp_records (id, user_id, check_in_ms, check_out_ms) VALUES ($1, $2, $3, $4)`,
		r.ID, r.UserID, r.CheckInMillis, r.CheckOutMillis,
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('stamp_records', 'id'),
		               GREATEST((SELECT MAX(id) FROM stamp_records), 1))`)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, r stamp.StampRecord) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE stamp_records SET user_id = $1, check_in_ms = $2, check_out_ms = $3 WHERE id = $4`,
		r.UserID, r.CheckInMillis, r.CheckOutMillis, r.ID,
	)
	if err != nil {
		if isOpenRecordConflict(err) {
			return fmt.Errorf("update record %d: %w", r.ID, stamp.ErrAlreadyCheckedIn)
		}
		return fmt.Errorf("update record %d: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update record %d: %w", r.ID, stamp.ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*stamp.StampRecord, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM stamp_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &r, nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stamp_records WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("record %d exists: %w", id, err)
	}
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stamp_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) LatestByUser(ctx context.Context, userID int64) (*stamp.StampRecord, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM stamp_records
		 WHERE user_id = $1
		 ORDER BY check_in_ms DESC, id DESC
		 LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest record for user %d: %w", userID, err)
	}
	return &r, nil
}

func (s *Store) ByUserAndCheckInRange(ctx context.Context, userID, startMillis, endMillis int64) ([]stamp.StampRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM stamp_records
		 WHERE user_id = $1 AND check_in_ms BETWEEN $2 AND $3
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
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stamp_records WHERE user_id = $1`, userID).Scan(&page.Total)
	if err != nil {
		return stamp.Page{}, fmt.Errorf("count records for user %d: %w", userID, err)
	}

	order := fmt.Sprintf("ORDER BY %s ASC NULLS FIRST, id ASC", col)
	if p.Sort.Desc {
		order = fmt.Sprintf("ORDER BY %s DESC NULLS LAST, id DESC", col)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM stamp_records WHERE user_id = $1 `+order+` LIMIT $2 OFFSET $3`,
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

// All returns every stored record ordered by id.
func (s *Store) All(ctx context.Context) ([]stamp.StampRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+` FROM stamp_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]stamp.StampRecord, error) {
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
