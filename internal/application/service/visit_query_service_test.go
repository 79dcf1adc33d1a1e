package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

func TestVisitQueryService_List(t *testing.T) {
	var seen entity.VisitFilter
	repo := newMockVisitRepo()
	repo.listFunc = func(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error) {
		seen = filter
		return []*entity.VisitRecord{visit("v1", entity.ChannelKiosk, entity.StatusPendingGuard)}, nil
	}
	repo.countFunc = func(ctx context.Context, filter entity.VisitFilter) (int, error) {
		return 42, nil
	}
	svc := NewVisitQueryService(repo, &mockExporter{}, &mockLogger{})

	page, err := svc.List(context.Background(), entity.VisitFilter{Status: entity.StatusPendingGuard, Limit: 500, Offset: -3})
	require.NoError(t, err)

	assert.Equal(t, 42, page.Total)
	assert.Equal(t, maxPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Len(t, page.Visits, 1)
	assert.Equal(t, maxPageSize, seen.Limit)
}

func TestVisitQueryService_ListDefaults(t *testing.T) {
	svc := NewVisitQueryService(newMockVisitRepo(), &mockExporter{}, &mockLogger{})

	page, err := svc.List(context.Background(), entity.VisitFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, page.Limit)
	assert.NotNil(t, page.Visits)
}

func TestVisitQueryService_ListErrors(t *testing.T) {
	svc := NewVisitQueryService(newMockVisitRepo(), &mockExporter{}, &mockLogger{})
	_, err := svc.List(context.Background(), entity.VisitFilter{Status: "gone"})
	var verr *entity.ValidationError
	assert.ErrorAs(t, err, &verr)

	repo := newMockVisitRepo()
	repo.countFunc = func(ctx context.Context, filter entity.VisitFilter) (int, error) {
		return 0, errors.New("count failed")
	}
	svc = NewVisitQueryService(repo, &mockExporter{}, &mockLogger{})
	_, err = svc.List(context.Background(), entity.VisitFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count failed")
}

func TestVisitQueryService_Get(t *testing.T) {
	svc := NewVisitQueryService(newMockVisitRepo(visit("v1", entity.ChannelKiosk, entity.StatusCheckedIn)), &mockExporter{}, &mockLogger{})

	got, err := svc.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.ID)

	_, err = svc.Get(context.Background(), "v2")
	assert.ErrorIs(t, err, entity.ErrVisitNotFound)
}

func TestVisitQueryService_ExportIgnoresPaging(t *testing.T) {
	var seen entity.VisitFilter
	repo := newMockVisitRepo()
	repo.listFunc = func(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error) {
		seen = filter
		return []*entity.VisitRecord{visit("v1", entity.ChannelKiosk, entity.StatusCheckedIn)}, nil
	}
	exporter := &mockExporter{
		exportFunc: func(ctx context.Context, w io.Writer, visits []*entity.VisitRecord) error {
			_, err := io.WriteString(w, visits[0].Name)
			return err
		},
	}
	svc := NewVisitQueryService(repo, exporter, &mockLogger{})

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf, entity.VisitFilter{Limit: 5, Offset: 10, SiteID: "hq"}))

	assert.Equal(t, "Ada Lovelace", buf.String())
	assert.Equal(t, 0, seen.Limit)
	assert.Equal(t, 0, seen.Offset)
	assert.Equal(t, "hq", seen.SiteID)
	assert.Equal(t, "text/plain", svc.ExportContentType())
	assert.Equal(t, ".txt", svc.ExportFileExtension())
}
