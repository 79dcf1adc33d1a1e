package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/visitor-kiosk/internal/application/dispatcher"
	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	"github.com/garyjia/visitor-kiosk/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ApprovalService holds the guard/admin mutations of visit records
type ApprovalService interface {
	// Approve moves a pending-guard visit to checked-in
	Approve(ctx context.Context, id, actor, note string) (*entity.VisitRecord, error)

	// Reject moves a visit to rejected. An empty reason is stored as the default placeholder.
	Reject(ctx context.Context, id, actor, reason string) (*entity.VisitRecord, error)

	// CheckOut moves a checked-in visit to checked-out and stamps checkOutTime once
	CheckOut(ctx context.Context, id string) (*entity.VisitRecord, error)

	// CreateDeskVisit records a staffed-desk check-in awaiting guard approval
	CreateDeskVisit(ctx context.Context, siteID string, draft entity.VisitorDraft) (*entity.VisitRecord, error)
}

type approvalServiceImpl struct {
	visitRepo port.VisitRepository
	txManager port.TransactionManager
	publisher dispatcher.Publisher
	logger    Logger
	now       func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	visitRepo port.VisitRepository,
	txManager port.TransactionManager,
	publisher dispatcher.Publisher,
	logger Logger,
) ApprovalService {
	if publisher == nil {
		publisher = dispatcher.Discard
	}
	return &approvalServiceImpl{
		visitRepo: visitRepo,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Approve sets status, approvedBy, approvalTime and the optional note
func (s *approvalServiceImpl) Approve(ctx context.Context, id, actor, note string) (*entity.VisitRecord, error) {
	now := s.now()
	return s.transition(ctx, id, event.TypeVisitApproved, func(record *entity.VisitRecord) (entity.StatusUpdate, error) {
		if record.IsTerminal() {
			return entity.StatusUpdate{}, closedVisit(record)
		}
		if record.Status != entity.StatusPendingGuard {
			return entity.StatusUpdate{}, fmt.Errorf("%w: visit %s is %s, not %s",
				entity.ErrInvalidStatusTransition, record.ID, record.Status, entity.StatusPendingGuard)
		}
		return entity.StatusUpdate{
			Status:       entity.StatusCheckedIn,
			ApprovedBy:   actorOrDefault(actor),
			ApprovalTime: &now,
			ApprovalNote: strings.TrimSpace(note),
		}, nil
	})
}

// Reject sets status, rejectionReason, approvedBy and approvalTime
func (s *approvalServiceImpl) Reject(ctx context.Context, id, actor, reason string) (*entity.VisitRecord, error) {
	now := s.now()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = entity.DefaultRejectionReason
	}

	return s.transition(ctx, id, event.TypeVisitRejected, func(record *entity.VisitRecord) (entity.StatusUpdate, error) {
		if record.IsTerminal() {
			return entity.StatusUpdate{}, closedVisit(record)
		}
		return entity.StatusUpdate{
			Status:          entity.StatusRejected,
			ApprovedBy:      actorOrDefault(actor),
			ApprovalTime:    &now,
			RejectionReason: reason,
		}, nil
	})
}

// CheckOut stamps checkOutTime; a record can be checked out only once
func (s *approvalServiceImpl) CheckOut(ctx context.Context, id string) (*entity.VisitRecord, error) {
	now := s.now()
	return s.transition(ctx, id, event.TypeVisitCheckedOut, func(record *entity.VisitRecord) (entity.StatusUpdate, error) {
		if record.CheckOutTime != nil {
			return entity.StatusUpdate{}, fmt.Errorf("%w: visit %s already checked out",
				entity.ErrInvalidStatusTransition, record.ID)
		}
		return entity.StatusUpdate{
			Status:       entity.StatusCheckedOut,
			CheckOutTime: &now,
		}, nil
	})
}

// CreateDeskVisit validates the draft and stores a desk-channel pending-guard record
func (s *approvalServiceImpl) CreateDeskVisit(ctx context.Context, siteID string, draft entity.VisitorDraft) (*entity.VisitRecord, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if draft.ID == "" {
		draft.ID = id
	}
	record := entity.NewVisitRecord(id, siteID, entity.ChannelDesk, entity.StatusPendingGuard, draft, s.now())

	if err := s.visitRepo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to create desk visit", "error", err, "site_id", siteID)
		return nil, fmt.Errorf("create visit: %w", err)
	}

	s.logger.Info("Desk visit created", "visit_id", record.ID, "site_id", siteID)
	s.publisher.Publish(ctx, event.NewEvent(event.TypeVisitCreated, siteID, map[string]interface{}{
		"status":  record.Status,
		"channel": record.Channel,
	}).ForVisit(record.ID))

	return record, nil
}

// transition reads the record, validates the move and writes it conditionally on the
// status that was read, all in one transaction.
func (s *approvalServiceImpl) transition(
	ctx context.Context,
	id string,
	eventType event.Type,
	build func(record *entity.VisitRecord) (entity.StatusUpdate, error),
) (*entity.VisitRecord, error) {
	var (
		updated *entity.VisitRecord
		from    string
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.visitRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get visit: %w", err)
		}

		update, err := build(record)
		if err != nil {
			return err
		}
		if err := entity.ValidateTransition(record, update.Status); err != nil {
			return err
		}

		from = record.Status
		if err := s.visitRepo.UpdateStatus(txCtx, id, record.Status, update); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		updated, err = s.visitRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("reload visit: %w", err)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to update visit status", "error", err, "visit_id", id, "event", eventType)
		return nil, err
	}

	s.logger.Info("Visit status updated",
		"visit_id", id,
		"from", from,
		"to", updated.Status,
		"actor", updated.ApprovedBy,
	)
	s.publisher.Publish(ctx, event.NewEvent(eventType, updated.SiteID, map[string]interface{}{
		"from":    from,
		"to":      updated.Status,
		"channel": updated.Channel,
	}).ForVisit(updated.ID))

	return updated, nil
}

func closedVisit(record *entity.VisitRecord) error {
	return fmt.Errorf("%w: visit %s is already %s", entity.ErrInvalidStatusTransition, record.ID, record.Status)
}

func actorOrDefault(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return entity.DefaultActor
}
