package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"projectflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "repo.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err, "Open")
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
	return db
}

func intPtr(v int) *int { return &v }

func newProject(name string) *models.Project {
	return &models.Project{
		Name:      name,
		Client:    "A Corp",
		PM:        "Kim",
		Team:      []string{"Kim", "Lee"},
		StartDate: models.NewDate(2025, time.January, 15),
		EndDate:   models.NewDate(2025, time.June, 30),
		Status:    models.StatusInProgress,
		Progress:  40,
		Timeline: []models.Milestone{
			{ID: 2, Title: "Design", Date: models.NewDate(2025, time.March, 1), Weight: 40},
			{ID: 1, Title: "Build", Date: models.NewDate(2025, time.June, 1), Weight: 60},
		},
		Board: models.Board{
			Todo:       []models.Task{{ID: 3, Content: "c", MilestoneID: intPtr(1)}, {ID: 1, Content: "a"}},
			InProgress: []models.Task{},
			Done:       []models.Task{{ID: 2, Content: "b", MilestoneID: intPtr(2)}},
		},
		History: []models.HistoryItem{
			{ID: 2, Date: models.NewDate(2025, time.March, 2), User: "Lee", Action: "second"},
			{ID: 1, Date: models.NewDate(2025, time.March, 1), User: "Kim", Action: "first"},
		},
		Files: []models.ProjectFile{{ID: 1, Name: "contract.pdf", Size: "1MB", UploadedBy: "Kim"}},
	}
}

func TestProjectStore(t *testing.T) {
	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		store := NewProjectStore(openDB(t), zap.NewNop())

		p := newProject("Platform")
		require.NoError(t, store.Put(ctx, p))
		require.NotZero(t, p.ID)

		got, err := store.Get(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, "Platform", got.Name)
		assert.Equal(t, []string{"Kim", "Lee"}, got.Team)
		assert.Equal(t, "2025-01-15", got.StartDate.String())
		assert.Equal(t, 40, got.Progress)

		// bucket order and timeline order survive storage
		require.Len(t, got.Board.Todo, 2)
		assert.Equal(t, 3, got.Board.Todo[0].ID)
		assert.Equal(t, 1, got.Board.Todo[1].ID)
		assert.Nil(t, got.Board.Todo[1].MilestoneID)
		assert.Empty(t, got.Board.InProgress)
		require.Len(t, got.Board.Done, 1)
		assert.Equal(t, 2, *got.Board.Done[0].MilestoneID)

		require.Len(t, got.Timeline, 2)
		assert.Equal(t, 2, got.Timeline[0].ID)
		assert.Equal(t, "2025-03-01", got.Timeline[0].Date.String())

		require.Len(t, got.History, 2)
		assert.Equal(t, "second", got.History[0].Action)
		require.Len(t, got.Files, 1)
	})

	t.Run("put replaces contents", func(t *testing.T) {
		store := NewProjectStore(openDB(t), zap.NewNop())

		p := newProject("Platform")
		require.NoError(t, store.Put(ctx, p))

		got, err := store.Get(ctx, p.ID)
		require.NoError(t, err)

		got.Board.Done = append(got.Board.Done, got.Board.Todo[0])
		got.Board.Todo = got.Board.Todo[1:]
		got.Timeline = got.Timeline[:1]
		got.Progress = 70
		require.NoError(t, store.Put(ctx, got))

		again, err := store.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 70, again.Progress)
		assert.Len(t, again.Board.Todo, 1)
		assert.Len(t, again.Board.Done, 2)
		assert.Len(t, again.Timeline, 1)
		assert.Equal(t, got.CreatedAt.Unix(), again.CreatedAt.Unix())
	})

	t.Run("get not found", func(t *testing.T) {
		store := NewProjectStore(openDB(t), zap.NewNop())
		_, err := store.Get(ctx, 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list filters", func(t *testing.T) {
		store := NewProjectStore(openDB(t), zap.NewNop())

		a := newProject("A")
		b := newProject("B")
		b.PM = "Park"
		b.Team = []string{"Park", "Kimberly"}
		b.Status = models.StatusClosed
		require.NoError(t, store.Put(ctx, a))
		require.NoError(t, store.Put(ctx, b))

		all, err := store.List(ctx, ProjectFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		closed, err := store.List(ctx, ProjectFilter{Status: models.StatusClosed})
		require.NoError(t, err)
		require.Len(t, closed, 1)
		assert.Equal(t, "B", closed[0].Name)
		assert.Len(t, closed[0].Board.Todo, 2)

		lee, err := store.List(ctx, ProjectFilter{Member: "Lee"})
		require.NoError(t, err)
		require.Len(t, lee, 1)
		assert.Equal(t, "A", lee[0].Name)

		// "Kim" must not match "Kimberly"
		kim, err := store.List(ctx, ProjectFilter{Member: "Kim"})
		require.NoError(t, err)
		require.Len(t, kim, 1)
		assert.Equal(t, "A", kim[0].Name)
	})

	t.Run("member filter with special characters", func(t *testing.T) {
		store := NewProjectStore(openDB(t), zap.NewNop())

		p := newProject("Research")
		p.PM = "Park"
		p.Team = []string{"R&D Lee", "<Ops> Choi", "100%_Han"}
		require.NoError(t, store.Put(ctx, p))

		for _, name := range []string{"R&D Lee", "<Ops> Choi", "100%_Han"} {
			got, err := store.List(ctx, ProjectFilter{Member: name})
			require.NoError(t, err)
			assert.Len(t, got, 1, name)
		}

		none, err := store.List(ctx, ProjectFilter{Member: "R&D"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete", func(t *testing.T) {
		db := openDB(t)
		store := NewProjectStore(db, zap.NewNop())

		p := newProject("Gone")
		require.NoError(t, store.Put(ctx, p))
		require.NoError(t, store.Delete(ctx, p.ID))

		_, err := store.Get(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var tasks int64
		require.NoError(t, db.Model(&models.Task{}).Where("project_id = ?", p.ID).Count(&tasks).Error)
		assert.Zero(t, tasks)

		assert.ErrorIs(t, store.Delete(ctx, p.ID), ErrNotFound)
	})
}

func TestMemberStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemberStore(openDB(t), zap.NewNop())

	m := &models.Member{Name: "Kim", Email: " CSKim@Example.com ", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, store.Put(ctx, m))
	assert.Equal(t, "cskim@example.com", m.Email)

	got, err := store.GetByEmail(ctx, "cskim@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	dup := &models.Member{Name: "Other", Email: "cskim@example.com", PasswordHash: "y", Role: models.RoleMember}
	assert.ErrorIs(t, store.Put(ctx, dup), ErrDuplicate)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, m.ID))
	_, err = store.Get(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, m.ID), ErrNotFound)
}

func TestAuditStore(t *testing.T) {
	ctx := context.Background()
	store := NewAuditStore(openDB(t), zap.NewNop())

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Record(ctx, models.AuditLog{
			MemberID: 1,
			Entity:   "project",
			EntityID: uint(i % 2),
			Action:   "update",
		}))
	}
	require.NoError(t, store.Record(ctx, models.AuditLog{Entity: "member", EntityID: 1, Action: "delete"}))

	all, err := store.List(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "member", all[0].Entity)

	projectOne, err := store.List(ctx, AuditFilter{Entity: "project", EntityID: 1})
	require.NoError(t, err)
	assert.Len(t, projectOne, 2)

	limited, err := store.List(ctx, AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCachedProjectsFallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	inner := NewProjectStore(openDB(t), zap.NewNop())

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	cached := NewCachedProjects(inner, rdb, time.Minute, zap.NewNop())

	p := newProject("Cached")
	require.NoError(t, cached.Put(ctx, p))

	got, err := cached.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Name)

	list, err := cached.List(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, cached.Delete(ctx, p.ID))
	_, err = cached.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func newCached(t *testing.T) (*CachedProjects, *ProjectStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := NewProjectStore(openDB(t), zap.NewNop())
	return NewCachedProjects(inner, rdb, time.Minute, zap.NewNop()), inner, mr
}

func TestCachedProjects(t *testing.T) {
	ctx := context.Background()

	t.Run("second get is served from cache", func(t *testing.T) {
		cached, inner, mr := newCached(t)

		p := newProject("Cached")
		require.NoError(t, cached.Put(ctx, p))

		first, err := cached.Get(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, mr.Exists(projectKey(p.ID)))

		// change the row behind the cache's back
		direct, err := inner.Get(ctx, p.ID)
		require.NoError(t, err)
		direct.Name = "Changed directly"
		require.NoError(t, inner.Put(ctx, direct))

		second, err := cached.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cached", second.Name)

		// the cached copy keeps board, timeline and dates
		require.Len(t, second.Board.Todo, len(first.Board.Todo))
		for i, task := range first.Board.Todo {
			assert.Equal(t, task.ID, second.Board.Todo[i].ID)
			assert.Equal(t, task.Content, second.Board.Todo[i].Content)
		}
		assert.Len(t, second.Board.Done, 1)
		assert.Equal(t, 2, *second.Board.Done[0].MilestoneID)
		require.Len(t, second.Timeline, 2)
		assert.Equal(t, "2025-03-01", second.Timeline[0].Date.String())
		assert.Equal(t, []string{"Kim", "Lee"}, second.Team)
	})

	t.Run("put of a cached project persists and invalidates", func(t *testing.T) {
		cached, inner, mr := newCached(t)

		p := newProject("Cached")
		require.NoError(t, cached.Put(ctx, p))

		hit, err := cached.Get(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, mr.Exists(projectKey(p.ID)))

		hit.Name = "Renamed"
		require.NoError(t, cached.Put(ctx, hit))
		assert.False(t, mr.Exists(projectKey(p.ID)))

		stored, err := inner.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Name)
		assert.Len(t, stored.Board.Todo, 2)

		again, err := cached.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", again.Name)
	})

	t.Run("delete invalidates", func(t *testing.T) {
		cached, _, mr := newCached(t)

		p := newProject("Gone")
		require.NoError(t, cached.Put(ctx, p))
		_, err := cached.Get(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, mr.Exists(projectKey(p.ID)))

		require.NoError(t, cached.Delete(ctx, p.ID))
		assert.False(t, mr.Exists(projectKey(p.ID)))

		_, err = cached.Get(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("load racing a write does not fill", func(t *testing.T) {
		cached, inner, mr := newCached(t)

		p := newProject("Racy")
		require.NoError(t, cached.Put(ctx, p))

		// a reader samples the generation and loads the old row...
		gen, err := cached.generation(ctx, p.ID)
		require.NoError(t, err)
		old, err := inner.Get(ctx, p.ID)
		require.NoError(t, err)

		// ...while a writer commits and invalidates
		newer := *old
		newer.Name = "Newer"
		require.NoError(t, cached.Put(ctx, &newer))

		assert.ErrorIs(t, cached.fill(ctx, old, gen), errStaleFill)
		assert.False(t, mr.Exists(projectKey(p.ID)))

		got, err := cached.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Newer", got.Name)
		assert.True(t, mr.Exists(projectKey(p.ID)))
	})
}

func TestProjectKey(t *testing.T) {
	assert.Equal(t, "projectflow:project:12", projectKey(12))
}
