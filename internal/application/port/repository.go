package port

import (
	"context"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

// VisitRepository defines persistence operations for VisitRecord
type VisitRepository interface {
	// Create inserts a new record; the record ID must already be set
	Create(ctx context.Context, visit *entity.VisitRecord) error

	// GetByID returns entity.ErrVisitNotFound when no record exists
	GetByID(ctx context.Context, id string) (*entity.VisitRecord, error)

	// UpdateStatus applies update only when the stored status equals expected.
	// It returns entity.ErrStatusConflict when the record moved on concurrently.
	UpdateStatus(ctx context.Context, id, expected string, update entity.StatusUpdate) error

	// List returns records matching filter ordered by check-in time, newest first
	List(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error)

	// Count returns the number of records matching filter, ignoring limit and offset
	Count(ctx context.Context, filter entity.VisitFilter) (int, error)
}

// SettingsRepository defines persistence operations for per-site security settings
type SettingsRepository interface {
	// Get returns nil, nil when the site has no stored settings
	Get(ctx context.Context, siteID string) (*entity.SiteSettings, error)
	Upsert(ctx context.Context, settings *entity.SiteSettings) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
