package domain

import (
	"context"
)

// Repository defines the interface for case persistence
type Repository interface {
	// Case operations
	Save(ctx context.Context, c *Case) error
	FindByCodigo(ctx context.Context, codigoSC string) (*Case, error)
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, codigoSC string) error

	// Upsert resolves a colliding codigoSC according to the duplicate mode
	// and returns the authoritative case state after the write.
	Upsert(ctx context.Context, c *Case, mode DuplicateMode) (*Case, error)

	// Query operations
	List(ctx context.Context, filter ListFilter) ([]Case, int, error)
	Stats(ctx context.Context) (*Stats, error)

	// Event operations. The timeline is append-only; there is no way to
	// edit or remove a recorded event.
	AddEvent(ctx context.Context, codigoSC string, e *TimelineEvent) error
	GetEvents(ctx context.Context, codigoSC string) ([]TimelineEvent, error)
}

// ListFilter defines filters for listing cases
type ListFilter struct {
	Status *CaseStatus `json:"status,omitempty"`
	Search string      `json:"search,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// StatusCount is one slice of the status breakdown
type StatusCount struct {
	Status CaseStatus `json:"status"`
	Count  int        `json:"count"`
}

// Stats holds the aggregate dashboard figures
type Stats struct {
	Total int `json:"total"`
	// InProgress counts cases the automation is still working
	InProgress int `json:"inProgress"`
	// PendingAction counts cases waiting on a manual decision
	// (Revisar gestor, Cancelar SC, Relanzar SC)
	PendingAction int           `json:"pendingAction"`
	ByStatus      []StatusCount `json:"byStatus"`
}
