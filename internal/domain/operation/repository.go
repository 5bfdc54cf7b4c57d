package operation

import "context"

// ListFilter narrows List results. Zero values mean no constraint; Limit 0
// falls back to the implementation default.
type ListFilter struct {
	Type   Type
	Status Status
	Limit  int
	Offset int
}

// Repository stores finished operation records.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}
