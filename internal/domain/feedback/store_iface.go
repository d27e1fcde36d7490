package feedback

import (
	"context"
	"io"
)

type StoreAPI interface {
	ListPolls(ctx context.Context, limit, offset int) (PollList, error)
	CreatePoll(ctx context.Context, poll Poll) (Poll, error)
	ListReviews(ctx context.Context, filter ReviewFilter) (ReviewList, error)
	GetReview(ctx context.Context, id string) (Review, error)
	MarkSolved(ctx context.Context, id string) error
	AppendPhoto(ctx context.Context, id, url string) error
}

// PhotoStore persists uploaded review photos and returns their public URL.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}
