package feedback

import (
	"context"
	"encoding/json"
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

func (s *Store) ListPolls(ctx context.Context, limit, offset int) (PollList, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM polls").Scan(&total); err != nil {
		return PollList{}, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, question, options, total_votes, multiple, target, creator, created_at
    FROM polls
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return PollList{}, err
	}
	defer rows.Close()

	out := make([]Poll, 0)
	for rows.Next() {
		var p Poll
		var creator []byte
		if err := rows.Scan(&p.ID, &p.Question, &p.Options, &p.TotalVotes, &p.Multiple, &p.Target, &creator, &p.CreatedAt); err != nil {
			return PollList{}, err
		}
		if len(creator) > 0 {
			_ = json.Unmarshal(creator, &p.Creator)
		}
		out = append(out, p)
	}
	return PollList{Polls: out, Total: total}, rows.Err()
}

func (s *Store) CreatePoll(ctx context.Context, p Poll) (Poll, error) {
	creator, err := json.Marshal(p.Creator)
	if err != nil {
		return Poll{}, err
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO polls (question, options, total_votes, multiple, target, creator)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, p.Question, p.Options, p.TotalVotes, p.Multiple, p.Target, creator).Scan(&p.ID, &p.CreatedAt)
	return p, err
}

const reviewColumns = "id, food, food_type, day, review, rating, solved, photos, creator, created_at"

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	var creator []byte
	if err := row.Scan(&r.ID, &r.Food, &r.FoodType, &r.Day, &r.Review, &r.Rating, &r.Solved, &r.Photos, &creator, &r.CreatedAt); err != nil {
		return Review{}, err
	}
	if len(creator) > 0 {
		_ = json.Unmarshal(creator, &r.Creator)
	}
	if r.Photos == nil {
		r.Photos = []string{}
	}
	return r, nil
}

func (s *Store) ListReviews(ctx context.Context, filter ReviewFilter) (ReviewList, error) {
	where := ""
	var args []any
	if filter.Solved != nil {
		args = append(args, *filter.Solved)
		where = " WHERE solved = $1"
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM reviews"+where, args...).Scan(&total); err != nil {
		return ReviewList{}, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := "SELECT " + reviewColumns + " FROM reviews" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ReviewList{}, err
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return ReviewList{}, err
		}
		out = append(out, r)
	}
	return ReviewList{Reviews: out, Total: total}, rows.Err()
}

func (s *Store) GetReview(ctx context.Context, id string) (Review, error) {
	r, err := scanReview(s.DB.QueryRow(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	return r, err
}

func (s *Store) MarkSolved(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE reviews SET solved = true WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendPhoto(ctx context.Context, id, url string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE reviews SET photos = array_append(photos, $2) WHERE id = $1", id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
