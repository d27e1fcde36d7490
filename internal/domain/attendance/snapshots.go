package attendance

import (
	"context"
	"time"

	"messease/internal/platform/querier"
)

type Snapshot struct {
	Projection
	RecordedAt time.Time `json:"recordedAt"`
}

type SnapshotStore struct {
	DB querier.Querier
}

func NewSnapshotStore(db querier.Querier) *SnapshotStore {
	return &SnapshotStore{DB: db}
}

// Record upserts the projection for its date.
func (s *SnapshotStore) Record(ctx context.Context, p Projection) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_snapshots (date, total_users, approved_leaves, expected, degraded)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (date) DO UPDATE
    SET total_users = EXCLUDED.total_users,
        approved_leaves = EXCLUDED.approved_leaves,
        expected = EXCLUDED.expected,
        degraded = EXCLUDED.degraded,
        recorded_at = now()
  `, p.Date, p.TotalUsers, p.ApprovedLeaves, p.Expected, p.Degraded)
	return err
}

func (s *SnapshotStore) Recent(ctx context.Context, days int) ([]Snapshot, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date, total_users, approved_leaves, expected, degraded, recorded_at
    FROM attendance_snapshots
    ORDER BY date DESC
    LIMIT $1
  `, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Snapshot, 0, days)
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Date, &snap.TotalUsers, &snap.ApprovedLeaves, &snap.Expected, &snap.Degraded, &snap.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
