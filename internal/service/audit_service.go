package service

import (
	"context"
	"encoding/json"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"go.uber.org/zap"
)

// auditBodyCap bounds serialized request/response bodies stored per entry.
const auditBodyCap = 5000

// AuditEntry describes one admin or partner action for the trail.
type AuditEntry struct {
	ActorType    string
	ActorID      string
	Action       string
	EntityType   string
	EntityID     string
	RequestID    string
	RequestBody  interface{}
	ResponseBody interface{}
	StatusCode   int
	Success      bool
	ErrorMessage string
}

// AuditService appends actions to the audit trail. Record is fire-and-forget:
// it never returns an error and never blocks the primary operation's outcome.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, limit, offset int64) ([]domain.AuditLog, error)
}

type auditService struct {
	auditRepo repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditService creates a new instance of auditService.
func NewAuditService(auditRepo repository.AuditLogRepository, logger *zap.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record serializes the bodies, truncates them to the cap, and appends one
// row. Every failure is swallowed here and only logged.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	row := &domain.AuditLog{
		ActorType:    entry.ActorType,
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		RequestID:    entry.RequestID,
		RequestBody:  truncateJSON(entry.RequestBody),
		ResponseBody: truncateJSON(entry.ResponseBody),
		StatusCode:   entry.StatusCode,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
	}

	if err := s.auditRepo.Create(ctx, row); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("actorId", entry.ActorID),
			zap.Error(err))
	}
}

// List returns audit rows for the admin console, newest first.
func (s *auditService) List(ctx context.Context, limit, offset int64) ([]domain.AuditLog, error) {
	return s.auditRepo.List(ctx, limit, offset)
}

func truncateJSON(body interface{}) string {
	if body == nil {
		return ""
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	if len(raw) > auditBodyCap {
		raw = raw[:auditBodyCap]
	}
	return string(raw)
}
