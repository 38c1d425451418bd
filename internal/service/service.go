// Package service implements the application operations behind the HTTP
// API: project mutations with progress recomputation, member accounts and
// the dashboard views.
package service

import (
	"context"
	"errors"
	"fmt"

	"projectflow/internal/models"
	"projectflow/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrValidation         = errors.New("validation failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// audit writes an audit entry. A failed write is logged by the store and
// never fails the operation that triggered it.
func audit(ctx context.Context, repo repository.AuditRepository, logger *zap.Logger, actor models.Member, entity string, id uint, action, details string) {
	if repo == nil {
		return
	}
	err := repo.Record(ctx, models.AuditLog{
		MemberID:   actor.ID,
		MemberName: actor.Name,
		Entity:     entity,
		EntityID:   id,
		Action:     action,
		Details:    details,
	})
	if err != nil {
		logger.Warn("Audit entry dropped", zap.String("entity", entity), zap.Uint("id", id), zap.String("action", action))
	}
}
