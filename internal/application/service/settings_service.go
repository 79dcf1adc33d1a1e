package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

// SettingsService reads and stores per-site security policy
type SettingsService interface {
	port.SettingsProvider

	// GetSettings returns the stored settings, or the default policy when none are stored
	GetSettings(ctx context.Context, siteID string) (*entity.SiteSettings, error)

	// UpdateSettings replaces the site policy
	UpdateSettings(ctx context.Context, siteID string, policy entity.SecurityPolicy) (*entity.SiteSettings, error)
}

type settingsServiceImpl struct {
	settingsRepo port.SettingsRepository
	logger       Logger
	now          func() time.Time
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo port.SettingsRepository, logger Logger) SettingsService {
	return &settingsServiceImpl{
		settingsRepo: settingsRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Get never fails: absent or unreadable settings fall back to entity.DefaultSecurityPolicy
func (s *settingsServiceImpl) Get(ctx context.Context, siteID string) entity.SecurityPolicy {
	settings, err := s.settingsRepo.Get(ctx, siteID)
	if err != nil {
		s.logger.Error("Falling back to default security policy",
			"site_id", siteID,
			"error", fmt.Errorf("%w: %v", entity.ErrConfiguration, err),
		)
		return entity.DefaultSecurityPolicy()
	}
	if settings == nil {
		return entity.DefaultSecurityPolicy()
	}
	return settings.Policy
}

func (s *settingsServiceImpl) GetSettings(ctx context.Context, siteID string) (*entity.SiteSettings, error) {
	settings, err := s.settingsRepo.Get(ctx, siteID)
	if err != nil {
		s.logger.Error("Failed to get settings", "error", err, "site_id", siteID)
		return nil, err
	}
	if settings == nil {
		return &entity.SiteSettings{SiteID: siteID, Policy: entity.DefaultSecurityPolicy()}, nil
	}
	return settings, nil
}

func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, siteID string, policy entity.SecurityPolicy) (*entity.SiteSettings, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return nil, &entity.ValidationError{Fields: []string{"siteId"}}
	}

	settings := &entity.SiteSettings{
		SiteID:    siteID,
		Policy:    policy,
		UpdatedAt: s.now(),
	}
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		s.logger.Error("Failed to update settings", "error", err, "site_id", siteID)
		return nil, fmt.Errorf("upsert settings: %w", err)
	}

	s.logger.Info("Security settings updated", "site_id", siteID, "policy", policy)
	return settings, nil
}
