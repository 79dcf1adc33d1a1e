package port

import (
	"context"
	"io"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

// OTPVerifier checks a one-time code entered at the kiosk
type OTPVerifier interface {
	Verify(ctx context.Context, draft entity.VisitorDraft, code string) (bool, error)
}

// SettingsProvider returns the security policy in force for a site
type SettingsProvider interface {
	Get(ctx context.Context, siteID string) entity.SecurityPolicy
}

// VisitExporter writes a visit log document
type VisitExporter interface {
	ContentType() string
	FileExtension() string
	Export(ctx context.Context, w io.Writer, visits []*entity.VisitRecord) error
}
