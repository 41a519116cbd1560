package service

import (
	"context"
	"fmt"

	"github.com/vaidashi/catering-api/internal/authz"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// PermissionChecker answers whether a role holds a permission
type PermissionChecker interface {
	Can(role string, perm authz.Permission) bool
}

// AuditService records transition events and serves the audit log
type AuditService struct {
	entries AuditStore
	perms   PermissionChecker
	logger  logger.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(entries AuditStore, perms PermissionChecker, logger logger.Logger) *AuditService {
	return &AuditService{
		entries: entries,
		perms:   perms,
		logger:  logger,
	}
}

// Record stores a transition event. Redelivered events are ignored.
func (s *AuditService) Record(ctx context.Context, event models.TransitionEvent) error {
	if event.EventID == "" || event.EntityID == "" {
		return fmt.Errorf("%w: transition event without id", apperrors.ErrInvalidInput)
	}

	created, err := s.entries.Create(ctx, models.NewAuditEntry(event))

	if err != nil {
		return err
	}

	if !created {
		s.logger.Debug("Duplicate transition event ignored", "eventID", event.EventID)
		return nil
	}

	s.logger.Info("Transition event audited",
		"eventID", event.EventID,
		"entityKind", event.EntityKind,
		"entityID", event.EntityID,
		"from", event.FromStatus,
		"to", event.ToStatus)

	return nil
}

// List returns audit entries matching filter to a role allowed to read them
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter, role string) ([]*models.AuditEntry, error) {
	if s.perms == nil || !s.perms.Can(role, authz.PermAuditRead) {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("role %q may not read the audit log", role))
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, apperrors.NewInvalidInputError("to must not be before from")
	}

	return s.entries.List(ctx, filter)
}
