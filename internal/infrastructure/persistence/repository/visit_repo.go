package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/persistence/sqlite"
)

const visitColumns = `
	id, visitor_id, site_id, name, email, phone, company, host, purpose, photo,
	status, channel, checkin_type, check_in_time, check_out_time,
	approved_by, approval_time, approval_note, rejection_reason,
	created_at, updated_at`

// VisitRepository implements port.VisitRepository
type VisitRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *sql.DB, logger *zap.Logger) port.VisitRepository {
	return &VisitRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a visit record
func (r *VisitRepository) Create(ctx context.Context, visit *entity.VisitRecord) error {
	if visit.ID == "" {
		return fmt.Errorf("failed to create visit: empty id")
	}

	now := time.Now().UTC()
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = now
	}
	if visit.UpdatedAt.IsZero() {
		visit.UpdatedAt = now
	}

	query := `INSERT INTO visits (` + visitColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		visit.ID,
		visit.VisitorID,
		visit.SiteID,
		visit.Name,
		visit.Email,
		visit.Phone,
		visit.Company,
		visit.Host,
		visit.Purpose,
		visit.Photo,
		visit.Status,
		visit.Channel,
		visit.CheckinType,
		nullTime(visit.CheckInTime),
		nullTime(visit.CheckOutTime),
		visit.ApprovedBy,
		nullTime(visit.ApprovalTime),
		visit.ApprovalNote,
		visit.RejectionReason,
		visit.CreatedAt.UTC(),
		visit.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create visit", zap.String("visit_id", visit.ID), zap.Error(err))
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

// GetByID retrieves a visit record by ID
func (r *VisitRepository) GetByID(ctx context.Context, id string) (*entity.VisitRecord, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = ?`

	visit, err := scanVisit(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrVisitNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get visit by ID", zap.String("visit_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return visit, nil
}

// UpdateStatus writes update only while the stored status still equals expected
func (r *VisitRepository) UpdateStatus(ctx context.Context, id, expected string, update entity.StatusUpdate) error {
	query := `
		UPDATE visits SET
			status = ?,
			approved_by = COALESCE(NULLIF(?, ''), approved_by),
			approval_time = COALESCE(?, approval_time),
			approval_note = COALESCE(NULLIF(?, ''), approval_note),
			rejection_reason = COALESCE(NULLIF(?, ''), rejection_reason),
			check_in_time = COALESCE(?, check_in_time),
			check_out_time = COALESCE(check_out_time, ?),
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	exec := sqlite.Executor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		update.Status,
		update.ApprovedBy,
		nullTime(update.ApprovalTime),
		update.ApprovalNote,
		update.RejectionReason,
		nullTime(update.CheckInTime),
		nullTime(update.CheckOutTime),
		time.Now().UTC(),
		id,
		expected,
	)
	if err != nil {
		r.logger.Error("Failed to update visit status",
			zap.String("visit_id", id),
			zap.String("status", update.Status),
			zap.Error(err))
		return fmt.Errorf("failed to update visit status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = exec.QueryRowContext(ctx, `SELECT status FROM visits WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrVisitNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read visit status: %w", err)
	}
	return fmt.Errorf("%w: visit %s is %s, expected %s", entity.ErrStatusConflict, id, current, expected)
}

// List returns visits matching filter, newest check-in first
func (r *VisitRepository) List(ctx context.Context, filter entity.VisitFilter) ([]*entity.VisitRecord, error) {
	where, args := buildVisitWhere(filter)
	query := `SELECT ` + visitColumns + ` FROM visits` + where +
		` ORDER BY check_in_time DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list visits", zap.Error(err))
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	visits := make([]*entity.VisitRecord, 0)
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			r.logger.Error("Failed to scan visit", zap.Error(err))
			continue
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

// Count returns the number of visits matching filter
func (r *VisitRepository) Count(ctx context.Context, filter entity.VisitFilter) (int, error) {
	where, args := buildVisitWhere(filter)

	var total int
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`+where, args...).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to count visits", zap.Error(err))
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return total, nil
}

func buildVisitWhere(filter entity.VisitFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.SiteID != "" {
		clauses = append(clauses, "site_id = ?")
		args = append(args, filter.SiteID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		clauses = append(clauses, "check_in_time >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		clauses = append(clauses, "check_in_time <= ?")
		args = append(args, filter.To.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVisit(row rowScanner) (*entity.VisitRecord, error) {
	var (
		visit                           entity.VisitRecord
		checkIn, checkOut, approvalTime sql.NullTime
	)

	err := row.Scan(
		&visit.ID,
		&visit.VisitorID,
		&visit.SiteID,
		&visit.Name,
		&visit.Email,
		&visit.Phone,
		&visit.Company,
		&visit.Host,
		&visit.Purpose,
		&visit.Photo,
		&visit.Status,
		&visit.Channel,
		&visit.CheckinType,
		&checkIn,
		&checkOut,
		&visit.ApprovedBy,
		&approvalTime,
		&visit.ApprovalNote,
		&visit.RejectionReason,
		&visit.CreatedAt,
		&visit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	visit.CheckInTime = timePtr(checkIn)
	visit.CheckOutTime = timePtr(checkOut)
	visit.ApprovalTime = timePtr(approvalTime)
	return &visit, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
