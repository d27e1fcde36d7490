package leave

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("leave record not found")
	ErrInvalidState  = errors.New("leave record is not pending")
	ErrInvalidStatus = errors.New("invalid status filter")
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// List returns records with their status canonicalized.
func (s *Service) List(ctx context.Context, filter Filter) (ListResult, error) {
	if filter.Status != "" && filter.Status != "All" {
		filter.Status = NormalizeStatus(filter.Status)
		if !IsCanonical(filter.Status) {
			return ListResult{}, ErrInvalidStatus
		}
	}
	result, err := s.Store.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}
	for i := range result.Records {
		result.Records[i].Status = NormalizeStatus(result.Records[i].Status)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec.Status = NormalizeStatus(rec.Status)
	return rec, nil
}

func (s *Service) ListByDate(ctx context.Context, date string) ([]Record, error) {
	return s.Store.ListByDate(ctx, date)
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.Store.CountByStatus(ctx, StatusPending)
}

// Decision captures a status transition for audit purposes.
type Decision struct {
	Record     Record
	FromStatus string
}

func (s *Service) Approve(ctx context.Context, id, deciderID string) (Decision, error) {
	return s.decide(ctx, id, deciderID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id, deciderID string) (Decision, error) {
	return s.decide(ctx, id, deciderID, StatusRejected)
}

// decide moves a Pending record to next. Non-pending records are terminal.
func (s *Service) decide(ctx context.Context, id, deciderID, next string) (Decision, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	from := rec.Status
	if NormalizeStatus(from) != StatusPending {
		return Decision{}, fmt.Errorf("%w: %s", ErrInvalidState, NormalizeStatus(from))
	}

	updated, err := s.Store.UpdateStatusFrom(ctx, id, storedSpellings(StatusPending), next, deciderID)
	if err != nil {
		return Decision{}, err
	}
	if !updated {
		return Decision{}, ErrInvalidState
	}
	rec.Status = next
	return Decision{Record: rec, FromStatus: from}, nil
}
