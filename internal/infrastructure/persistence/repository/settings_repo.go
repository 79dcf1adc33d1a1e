package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/persistence/sqlite"
)

// SettingsRepository implements port.SettingsRepository
type SettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sql.DB, logger *zap.Logger) port.SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns nil, nil when the site has no row
func (r *SettingsRepository) Get(ctx context.Context, siteID string) (*entity.SiteSettings, error) {
	query := `
		SELECT site_id, require_photo, enable_otp_verification, require_nda,
			host_approval, guard_approval, updated_at
		FROM site_settings
		WHERE site_id = ?
	`

	var s entity.SiteSettings
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, siteID).Scan(
		&s.SiteID,
		&s.Policy.RequirePhoto,
		&s.Policy.EnableOtpVerification,
		&s.Policy.RequireNDA,
		&s.Policy.HostApproval,
		&s.Policy.GuardApproval,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get site settings", zap.String("site_id", siteID), zap.Error(err))
		return nil, fmt.Errorf("failed to get site settings: %w", err)
	}
	return &s, nil
}

// Upsert inserts or replaces the policy of a site
func (r *SettingsRepository) Upsert(ctx context.Context, settings *entity.SiteSettings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO site_settings (
			site_id, require_photo, enable_otp_verification, require_nda,
			host_approval, guard_approval, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			require_photo = excluded.require_photo,
			enable_otp_verification = excluded.enable_otp_verification,
			require_nda = excluded.require_nda,
			host_approval = excluded.host_approval,
			guard_approval = excluded.guard_approval,
			updated_at = excluded.updated_at
	`

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		settings.SiteID,
		settings.Policy.RequirePhoto,
		settings.Policy.EnableOtpVerification,
		settings.Policy.RequireNDA,
		settings.Policy.HostApproval,
		settings.Policy.GuardApproval,
		settings.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert site settings", zap.String("site_id", settings.SiteID), zap.Error(err))
		return fmt.Errorf("failed to upsert site settings: %w", err)
	}
	return nil
}
