package billing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month")

type Service struct {
	Store    StoreAPI
	Location *time.Location
	Now      func() time.Time
}

func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{Store: store, Location: loc, Now: time.Now}
}

func (s *Service) List(ctx context.Context, filter Filter) (ListResult, error) {
	return s.Store.List(ctx, filter)
}

func (s *Service) Summary(ctx context.Context, filter Filter) (Summary, error) {
	filter.Limit, filter.Offset = 0, 0
	res, err := s.Store.List(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(res.Payments), nil
}

// dayBounds returns the start of the mess-local day containing t and the start of the next.
func (s *Service) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(s.Location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Location)
	return start, start.AddDate(0, 0, 1)
}

// GuestMealsToday counts guest meal payments made on the current mess-local day.
func (s *Service) GuestMealsToday(ctx context.Context) (int, error) {
	from, to := s.dayBounds(s.Now())
	return s.Store.CountByPurpose(ctx, GuestMealPurpose, from, to)
}

// MonthRange parses "YYYY-MM" into the mess-local bounds of that month.
func (s *Service) MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01", month, s.Location)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return t, t.AddDate(0, 1, 0), nil
}

// Statement renders the PDF statement for a month ("YYYY-MM"; empty means the current month).
func (s *Service) Statement(ctx context.Context, month string) ([]byte, error) {
	now := s.Now().In(s.Location)
	if month == "" {
		month = now.Format("2006-01")
	}
	from, to, err := s.MonthRange(month)
	if err != nil {
		return nil, err
	}
	res, err := s.Store.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Mess billing statement %s", month)
	return RenderStatement(title, now, res.Payments, Summarize(res.Payments))
}
