package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"messease/internal/platform/querier"
)

const (
	ActionLeaveApprove     = "leave.approve"
	ActionLeaveReject      = "leave.reject"
	ActionMenuDayReplace   = "menu.day.replace"
	ActionSpecialMealAdd   = "menu.special.add"
	ActionUserEdit         = "user.edit"
	ActionPollCreate       = "poll.create"
	ActionReviewResolve    = "review.resolve"
	ActionReviewPhotoAdd   = "review.photo.add"
	ActionEstimationRun    = "estimation.run"
	ActionAdminLogin       = "admin.login"
	ActionAdminMFAEnabled  = "admin.mfa.enable"
	ActionAdminMFADisabled = "admin.mfa.disable"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Filter narrows the trail. Zero fields match everything; To is exclusive.
type Filter struct {
	Action     string
	EntityType string
	Actor      string
	From       time.Time
	To         time.Time
}

// Entry is one mutation to record.
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

// Recorder is what handlers need to write the audit trail.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	beforeJSON, err := marshalOptional(e.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(e.After)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, e.ActorID, e.Action, e.EntityType, e.EntityID, beforeJSON, afterJSON, e.RequestID, e.IP)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.where()
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total)
	return total, err
}

const (
	eventColumns  = "id, actor_id, action, entity_type, entity_id, request_id, ip, created_at"
	detailColumns = ", before_json, after_json"
)

// List returns events newest first. A non-positive limit returns every match.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := eventColumns
	if includeDetails {
		cols += detailColumns
	}
	where, args := filter.where()
	query := "SELECT " + cols + " FROM audit_events" + where + " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.EntityType != "" {
		add("entity_type = $%d", f.EntityType)
	}
	if f.Actor != "" {
		add("actor_id = $%d", f.Actor)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
