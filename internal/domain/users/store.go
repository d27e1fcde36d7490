package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"messease/internal/platform/querier"
)

type StoreAPI interface {
	CountUsers(ctx context.Context) (int, error)
	List(ctx context.Context, filter Filter) (ListResult, error)
	Get(ctx context.Context, id string) (User, error)
	Save(ctx context.Context, user User) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = "id, name, gender, batch, passing_year, designation, email, member, photo_url, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Gender, &u.Batch, &u.PassingYear, &u.Designation, &u.Email, &u.Member, &u.PhotoURL, &u.CreatedAt)
	return u, err
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&count)
	return count, err
}

func (s *Store) List(ctx context.Context, filter Filter) (ListResult, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}
	if filter.Designation != "" {
		args = append(args, filter.Designation)
		where += fmt.Sprintf(" AND designation = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users"+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := "SELECT " + userColumns + " FROM users" + where +
		fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return ListResult{}, err
		}
		out = append(out, u)
	}
	return ListResult{Users: out, Total: total}, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) Save(ctx context.Context, u User) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = $1, gender = $2, batch = $3, passing_year = $4, designation = $5, email = $6, member = $7
    WHERE id = $8
  `, u.Name, u.Gender, u.Batch, u.PassingYear, u.Designation, u.Email, u.Member, u.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
