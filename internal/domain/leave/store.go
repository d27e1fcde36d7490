package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"messease/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = "id::text, user_id, user_name, date, meal, type, exception_case, status, created_at"

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.UserName, &rec.Date, &rec.Meal, &rec.Type, &rec.ExceptionCase, &rec.Status, &rec.CreatedAt)
	return rec, err
}

// storedSpellings lists the upper-cased stored values matching a canonical status.
func storedSpellings(canonical string) []string {
	spellings := Aliases(canonical)
	if canonical == StatusPending {
		spellings = append(spellings, "")
	}
	return spellings
}

func (s *Store) List(ctx context.Context, filter Filter) (ListResult, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.Status != "" && filter.Status != "All" {
		args = append(args, storedSpellings(filter.Status))
		where += fmt.Sprintf(" AND upper(trim(status)) = ANY($%d)", len(args))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		where += fmt.Sprintf(" AND date = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM mess_leaves"+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query := "SELECT " + recordColumns + " FROM mess_leaves" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return ListResult{}, err
		}
		records = append(records, rec)
	}
	return ListResult{Records: records, Total: total}, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM mess_leaves WHERE id::text = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) ListByDate(ctx context.Context, date string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+recordColumns+" FROM mess_leaves WHERE date = $1", date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) CountByStatus(ctx context.Context, canonical string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM mess_leaves
    WHERE upper(trim(status)) = ANY($1)
  `, storedSpellings(canonical)).Scan(&count)
	return count, err
}

func (s *Store) UpdateStatusFrom(ctx context.Context, id string, from []string, next, deciderID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE mess_leaves
    SET status = $1, decided_by = NULLIF($2, '')::uuid, decided_at = now()
    WHERE id::text = $3 AND upper(trim(status)) = ANY($4)
  `, next, deciderID, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
