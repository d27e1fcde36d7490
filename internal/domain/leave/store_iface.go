package leave

import "context"

type StoreAPI interface {
	List(ctx context.Context, filter Filter) (ListResult, error)
	Get(ctx context.Context, id string) (Record, error)
	ListByDate(ctx context.Context, date string) ([]Record, error)
	CountByStatus(ctx context.Context, canonical string) (int, error)
	// UpdateStatusFrom writes next only while the stored status is one of from.
	UpdateStatusFrom(ctx context.Context, id string, from []string, next, deciderID string) (bool, error)
}
