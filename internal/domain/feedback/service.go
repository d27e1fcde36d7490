package feedback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"messease/internal/domain/users"
)

const (
	MinPollOptions = 2
	MaxPollOptions = 10
	MaxPhotoBytes  = 5 << 20
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyQuestion      = errors.New("question cannot be blank")
	ErrTooFewOptions      = errors.New("poll needs at least two options")
	ErrTooManyOptions     = errors.New("poll has too many options")
	ErrStorageUnavailable = errors.New("photo storage not configured")
	ErrUnsupportedPhoto   = errors.New("unsupported photo type")
	ErrPhotoTooLarge      = errors.New("photo too large")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Service struct {
	Store  StoreAPI
	Photos PhotoStore
}

func NewService(store StoreAPI, photos PhotoStore) *Service {
	return &Service{Store: store, Photos: photos}
}

func (s *Service) Polls(ctx context.Context, limit, offset int) (PollList, error) {
	return s.Store.ListPolls(ctx, limit, offset)
}

// CreatePoll drops blank options and starts the poll with zero votes.
func (s *Service) CreatePoll(ctx context.Context, in NewPoll, creator users.Creator) (Poll, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return Poll{}, ErrEmptyQuestion
	}
	options := make([]string, 0, len(in.Options))
	for _, opt := range in.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < MinPollOptions {
		return Poll{}, ErrTooFewOptions
	}
	if len(options) > MaxPollOptions {
		return Poll{}, ErrTooManyOptions
	}
	target := strings.TrimSpace(in.Target)
	if target == "" {
		target = DefaultPollTarget
	}
	return s.Store.CreatePoll(ctx, Poll{
		Question: question,
		Options:  options,
		Multiple: in.Multiple,
		Target:   target,
		Creator:  creator,
	})
}

func (s *Service) Reviews(ctx context.Context, filter ReviewFilter) (ReviewList, error) {
	return s.Store.ListReviews(ctx, filter)
}

// Resolve marks a review solved and returns it as it was before.
func (s *Service) Resolve(ctx context.Context, id string) (Review, error) {
	before, err := s.Store.GetReview(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if err := s.Store.MarkSolved(ctx, id); err != nil {
		return Review{}, err
	}
	return before, nil
}

// AttachPhoto uploads an image and appends its URL to the review.
func (s *Service) AttachPhoto(ctx context.Context, id, contentType string, data []byte) (string, error) {
	if s.Photos == nil {
		return "", ErrStorageUnavailable
	}
	ext, ok := photoExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedPhoto
	}
	if len(data) > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}
	if _, err := s.Store.GetReview(ctx, id); err != nil {
		return "", err
	}

	key := path.Join("reviews", id, uuid.NewString()+ext)
	url, err := s.Photos.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("upload review photo: %w", err)
	}
	if err := s.Store.AppendPhoto(ctx, id, url); err != nil {
		return "", err
	}
	return url, nil
}
