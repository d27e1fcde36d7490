package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"messease/internal/platform/querier"
)

type StoreAPI interface {
	List(ctx context.Context, filter Filter) (ListResult, error)
	CountByPurpose(ctx context.Context, purpose string, from, to time.Time) (int, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context, filter Filter) (ListResult, error) {
	where := " WHERE 1=1"
	var args []any
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(" AND paid_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(" AND paid_at < $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payments"+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query := "SELECT id, user_id, name, email, amount::text, status, purpose, paid_at FROM payments" + where + " ORDER BY paid_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	out := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &amount, &p.Status, &p.Purpose, &p.PaidAt); err != nil {
			return ListResult{}, err
		}
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return ListResult{}, fmt.Errorf("payment %s amount: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return ListResult{Payments: out, Total: total}, rows.Err()
}

func (s *Store) CountByPurpose(ctx context.Context, purpose string, from, to time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM payments
    WHERE lower(trim(purpose)) = lower($1) AND paid_at >= $2 AND paid_at < $3
  `, purpose, from, to).Scan(&count)
	return count, err
}
