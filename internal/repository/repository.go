// Package repository is the persistence boundary for projects, members and
// the audit trail. Callers depend on the interfaces; the gorm-backed stores
// implement them for postgres and sqlite.
package repository

import (
	"context"
	"errors"

	"projectflow/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type ProjectFilter struct {
	Status models.ProjectStatus
	Member string // PM or team member name
}

type ProjectRepository interface {
	Get(ctx context.Context, id uint) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
	// Put inserts the project when its ID is zero, otherwise replaces it
	// together with its board, timeline, history and files.
	Put(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id uint) error
}

type MemberRepository interface {
	Get(ctx context.Context, id uint) (*models.Member, error)
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Put(ctx context.Context, m *models.Member) error
	Delete(ctx context.Context, id uint) error
}

type AuditFilter struct {
	Entity   string
	EntityID uint
	Limit    int
}

type AuditRepository interface {
	Record(ctx context.Context, entry models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error)
}
