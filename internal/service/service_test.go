package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"projectflow/internal/auth"
	"projectflow/internal/events"
	"projectflow/internal/models"
	"projectflow/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ProgressChanged
}

func (r *recordingPublisher) PublishProgressChanged(_ context.Context, ev events.ProgressChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) published() []events.ProgressChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.ProgressChanged(nil), r.events...)
}

type fixture struct {
	projects  *repository.ProjectStore
	members   *repository.MemberStore
	audit     *repository.AuditStore
	publisher *recordingPublisher

	Projects  *ProjectService
	Members   *MemberService
	Dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "service.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.Project{},
		&models.Task{},
		&models.Milestone{},
		&models.HistoryItem{},
		&models.ProjectFile{},
		&models.AuditLog{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := zap.NewNop()
	f := &fixture{
		projects:  repository.NewProjectStore(db, log),
		members:   repository.NewMemberStore(db, log),
		audit:     repository.NewAuditStore(db, log),
		publisher: &recordingPublisher{},
	}
	f.Projects = NewProjectService(f.projects, f.audit, f.publisher, log)
	f.Projects.now = func() time.Time { return time.Date(2025, time.April, 2, 15, 30, 0, 0, time.UTC) }
	f.Members = NewMemberService(f.members, f.audit, auth.NewTokens("test-secret", time.Hour), log)
	f.Dashboard = NewDashboardService(f.projects)
	return f
}

var (
	admin  = models.Member{ID: 1, Name: "Admin", Role: models.RoleAdmin}
	member = models.Member{ID: 2, Name: "Kim", Role: models.RoleMember}
)

func intPtr(v int) *int { return &v }

func projectInput(name string) ProjectInput {
	return ProjectInput{
		Name:      name,
		Client:    "A Corp",
		PM:        "Kim",
		Team:      []string{"Kim", " Lee ", ""},
		StartDate: models.NewDate(2025, time.January, 15),
		EndDate:   models.NewDate(2025, time.June, 30),
	}
}
