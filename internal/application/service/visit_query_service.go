package service

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// VisitPage is one page of a visit listing
type VisitPage struct {
	Visits []*entity.VisitRecord `json:"data"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// VisitQueryService serves read-only visit queries
type VisitQueryService interface {
	List(ctx context.Context, filter entity.VisitFilter) (*VisitPage, error)
	Get(ctx context.Context, id string) (*entity.VisitRecord, error)

	// Export writes every visit matching filter, ignoring paging
	Export(ctx context.Context, w io.Writer, filter entity.VisitFilter) error

	ExportContentType() string
	ExportFileExtension() string
}

type visitQueryServiceImpl struct {
	visitRepo port.VisitRepository
	exporter  port.VisitExporter
	logger    Logger
}

// NewVisitQueryService creates a new VisitQueryService
func NewVisitQueryService(visitRepo port.VisitRepository, exporter port.VisitExporter, logger Logger) VisitQueryService {
	return &visitQueryServiceImpl{
		visitRepo: visitRepo,
		exporter:  exporter,
		logger:    logger,
	}
}

// List runs the page query and the count concurrently
func (s *visitQueryServiceImpl) List(ctx context.Context, filter entity.VisitFilter) (*VisitPage, error) {
	if filter.Status != "" && !entity.IsValidStatus(filter.Status) {
		return nil, &entity.ValidationError{Fields: []string{"status"}}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	page := &VisitPage{Limit: filter.Limit, Offset: filter.Offset}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		visits, err := s.visitRepo.List(gctx, filter)
		if err != nil {
			return fmt.Errorf("list visits: %w", err)
		}
		page.Visits = visits
		return nil
	})
	g.Go(func() error {
		total, err := s.visitRepo.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count visits: %w", err)
		}
		page.Total = total
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to list visits", "error", err, "status", filter.Status, "site_id", filter.SiteID)
		return nil, err
	}
	if page.Visits == nil {
		page.Visits = []*entity.VisitRecord{}
	}
	return page, nil
}

func (s *visitQueryServiceImpl) Get(ctx context.Context, id string) (*entity.VisitRecord, error) {
	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get visit", "error", err, "visit_id", id)
		return nil, err
	}
	return visit, nil
}

func (s *visitQueryServiceImpl) Export(ctx context.Context, w io.Writer, filter entity.VisitFilter) error {
	filter.Limit = 0
	filter.Offset = 0

	visits, err := s.visitRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to load visits for export", "error", err)
		return fmt.Errorf("list visits: %w", err)
	}

	if err := s.exporter.Export(ctx, w, visits); err != nil {
		s.logger.Error("Failed to export visits", "error", err, "count", len(visits))
		return fmt.Errorf("export visits: %w", err)
	}

	s.logger.Info("Visit log exported", "count", len(visits))
	return nil
}

func (s *visitQueryServiceImpl) ExportContentType() string {
	return s.exporter.ContentType()
}

func (s *visitQueryServiceImpl) ExportFileExtension() string {
	return s.exporter.FileExtension()
}
