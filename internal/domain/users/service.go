package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmptyUpdate  = errors.New("no fields to update")
	ErrInvalidEmail = errors.New("invalid email")
	ErrEmptyName    = errors.New("name cannot be blank")
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.Store.CountUsers(ctx)
}

func (s *Service) List(ctx context.Context, filter Filter) (ListResult, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Designation = strings.TrimSpace(filter.Designation)
	return s.Store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.Store.Get(ctx, id)
}

// Edit applies an administrative update and returns the user before and after.
func (s *Service) Edit(ctx context.Context, id string, update Update) (User, User, error) {
	if update.Empty() {
		return User{}, User{}, ErrEmptyUpdate
	}
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return User{}, User{}, ErrEmptyName
		}
		update.Name = &trimmed
	}
	if update.Email != nil {
		trimmed := strings.TrimSpace(*update.Email)
		if _, err := mail.ParseAddress(trimmed); err != nil {
			return User{}, User{}, ErrInvalidEmail
		}
		update.Email = &trimmed
	}

	before, err := s.Store.Get(ctx, id)
	if err != nil {
		return User{}, User{}, err
	}
	after := update.Apply(before)
	if err := s.Store.Save(ctx, after); err != nil {
		return User{}, User{}, err
	}
	return before, after, nil
}
