package service

import (
	"context"
	"io"
	"sync"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

// mockVisitRepo keeps records in memory unless a func field overrides a method
type mockVisitRepo struct {
	mu      sync.Mutex
	records map[string]*entity.VisitRecord

	createFunc       func(ctx context.Context, visit *entity.VisitRecord) error
	getByIDFunc      func(ctx context.Context, id string) (*entity.VisitRecord, error)
	updateStatusFunc func(ctx context.Context, id, expected string, update entity.StatusUpdate) error
	listFunc         func(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error)
	countFunc        func(ctx context.Context, filter entity.VisitFilter) (int, error)
}

func newMockVisitRepo(records ...*entity.VisitRecord) *mockVisitRepo {
	m := &mockVisitRepo{records: make(map[string]*entity.VisitRecord)}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

func (m *mockVisitRepo) Create(ctx context.Context, visit *entity.VisitRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, visit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *visit
	m.records[visit.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetByID(ctx context.Context, id string) (*entity.VisitRecord, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, entity.ErrVisitNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockVisitRepo) UpdateStatus(ctx context.Context, id, expected string, update entity.StatusUpdate) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, expected, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return entity.ErrVisitNotFound
	}
	if rec.Status != expected {
		return entity.ErrStatusConflict
	}
	rec.Status = update.Status
	if update.ApprovedBy != "" {
		rec.ApprovedBy = update.ApprovedBy
	}
	if update.ApprovalTime != nil {
		rec.ApprovalTime = update.ApprovalTime
	}
	if update.ApprovalNote != "" {
		rec.ApprovalNote = update.ApprovalNote
	}
	if update.RejectionReason != "" {
		rec.RejectionReason = update.RejectionReason
	}
	if update.CheckInTime != nil {
		rec.CheckInTime = update.CheckInTime
	}
	if update.CheckOutTime != nil {
		rec.CheckOutTime = update.CheckOutTime
	}
	return nil
}

func (m *mockVisitRepo) List(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*entity.VisitRecord{}, nil
}

func (m *mockVisitRepo) Count(ctx context.Context, filter entity.VisitFilter) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

type mockSettingsRepo struct {
	getFunc    func(ctx context.Context, siteID string) (*entity.SiteSettings, error)
	upsertFunc func(ctx context.Context, settings *entity.SiteSettings) error
}

func (m *mockSettingsRepo) Get(ctx context.Context, siteID string) (*entity.SiteSettings, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, siteID)
	}
	return nil, nil
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, settings *entity.SiteSettings) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, settings)
	}
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockExporter struct {
	exportFunc func(ctx context.Context, w io.Writer, visits []*entity.VisitRecord) error
}

func (m *mockExporter) ContentType() string   { return "text/plain" }
func (m *mockExporter) FileExtension() string { return ".txt" }

func (m *mockExporter) Export(ctx context.Context, w io.Writer, visits []*entity.VisitRecord) error {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, w, visits)
	}
	return nil
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}
