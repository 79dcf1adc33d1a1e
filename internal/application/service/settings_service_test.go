package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

func TestSettingsService_Get(t *testing.T) {
	stored := entity.SecurityPolicy{RequireNDA: true, HostApproval: true}

	tests := []struct {
		name       string
		getFunc    func(ctx context.Context, siteID string) (*entity.SiteSettings, error)
		want       entity.SecurityPolicy
		wantErrLog int
	}{
		{
			name: "stored policy",
			getFunc: func(ctx context.Context, siteID string) (*entity.SiteSettings, error) {
				return &entity.SiteSettings{SiteID: siteID, Policy: stored}, nil
			},
			want: stored,
		},
		{
			name: "no settings",
			getFunc: func(ctx context.Context, siteID string) (*entity.SiteSettings, error) {
				return nil, nil
			},
			want: entity.DefaultSecurityPolicy(),
		},
		{
			name: "unreadable settings",
			getFunc: func(ctx context.Context, siteID string) (*entity.SiteSettings, error) {
				return nil, errors.New("malformed row")
			},
			want:       entity.DefaultSecurityPolicy(),
			wantErrLog: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			svc := NewSettingsService(&mockSettingsRepo{getFunc: tt.getFunc}, logger)

			assert.Equal(t, tt.want, svc.Get(context.Background(), "hq"))
			assert.Equal(t, tt.wantErrLog, logger.errorCount())
		})
	}
}

func TestSettingsService_DefaultPolicy(t *testing.T) {
	p := entity.DefaultSecurityPolicy()
	assert.True(t, p.RequirePhoto)
	assert.True(t, p.GuardApproval)
	assert.False(t, p.EnableOtpVerification)
	assert.False(t, p.RequireNDA)
	assert.False(t, p.HostApproval)
}

func TestSettingsService_GetSettingsDefaults(t *testing.T) {
	svc := NewSettingsService(&mockSettingsRepo{}, &mockLogger{})

	got, err := svc.GetSettings(context.Background(), "annex")
	require.NoError(t, err)
	assert.Equal(t, "annex", got.SiteID)
	assert.Equal(t, entity.DefaultSecurityPolicy(), got.Policy)
}

func TestSettingsService_UpdateSettings(t *testing.T) {
	var saved *entity.SiteSettings
	repo := &mockSettingsRepo{
		upsertFunc: func(ctx context.Context, settings *entity.SiteSettings) error {
			saved = settings
			return nil
		},
	}
	svc := NewSettingsService(repo, &mockLogger{})

	policy := entity.SecurityPolicy{GuardApproval: true, RequireNDA: true}
	got, err := svc.UpdateSettings(context.Background(), "hq", policy)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, policy, saved.Policy)
	assert.Equal(t, "hq", got.SiteID)
	assert.False(t, got.UpdatedAt.IsZero())

	_, err = svc.UpdateSettings(context.Background(), " ", policy)
	var verr *entity.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSettingsService_UpdateSettingsError(t *testing.T) {
	repo := &mockSettingsRepo{
		upsertFunc: func(ctx context.Context, settings *entity.SiteSettings) error {
			return errors.New("readonly database")
		},
	}
	svc := NewSettingsService(repo, &mockLogger{})

	_, err := svc.UpdateSettings(context.Background(), "hq", entity.SecurityPolicy{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readonly database")
}

func TestFormatOTPVerifier(t *testing.T) {
	v := FormatOTPVerifier{}
	for code, want := range map[string]bool{
		"1234":  true,
		"0000":  true,
		"123":   false,
		"12345": false,
		"12a4":  false,
		"":      false,
		"١٢٣٤":  false,
	} {
		ok, err := v.Verify(context.Background(), entity.VisitorDraft{}, code)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "code %q", code)
	}
}
