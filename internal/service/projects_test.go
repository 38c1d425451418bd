package service

import (
	"context"
	"testing"
	"time"

	"projectflow/internal/board"
	"projectflow/internal/models"
	"projectflow/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("  Platform "))
	require.NoError(t, err)

	assert.Equal(t, "Platform", p.Name)
	assert.Equal(t, models.StatusStarted, p.Status)
	assert.Equal(t, []string{"Kim", "Lee"}, p.Team)
	assert.Equal(t, 0, p.Progress)
	require.Len(t, p.Timeline, 1)
	assert.Equal(t, DefaultMilestoneTitle, p.Timeline[0].Title)
	assert.Equal(t, 100, p.Timeline[0].Weight)
	assert.Equal(t, "2025-06-30", p.Timeline[0].Date.String())

	stored, err := f.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, stored.Name)

	logs, err := f.audit.List(ctx, repository.AuditFilter{Entity: "project", EntityID: p.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)
	assert.Equal(t, "Kim", logs[0].MemberName)
}

func TestCreateProjectValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(in *ProjectInput)
	}{
		{"missing name", func(in *ProjectInput) { in.Name = " " }},
		{"missing dates", func(in *ProjectInput) { in.StartDate = models.Date{} }},
		{"end before start", func(in *ProjectInput) { in.EndDate = models.NewDate(2024, time.December, 31) }},
		{"unknown status", func(in *ProjectInput) { in.Status = "paused" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := projectInput("Platform")
			tt.mutate(&in)
			_, err := f.Projects.Create(ctx, member, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTaskFlowUpdatesProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)

	p, err = f.Projects.AddTask(ctx, member, p.ID, "Write API", intPtr(1))
	require.NoError(t, err)
	p, err = f.Projects.AddTask(ctx, member, p.ID, "Write tests", intPtr(1))
	require.NoError(t, err)
	require.Len(t, p.Board.Todo, 2)
	assert.Equal(t, 0, p.Progress)

	p, err = f.Projects.MoveTask(ctx, member, p.ID, 1, models.BucketTodo, models.BucketDone)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Progress)

	// last pending task of a weight-100 milestone
	p, err = f.Projects.MoveTask(ctx, member, p.ID, 2, models.BucketTodo, models.BucketDone)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Progress)

	stored, err := f.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Progress)
	assert.Len(t, stored.Board.Done, 2)

	published := f.publisher.published()
	require.Len(t, published, 2)
	assert.Equal(t, 0, published[0].From)
	assert.Equal(t, 50, published[0].To)
	assert.Equal(t, 100, published[1].To)
	assert.Equal(t, "Kim", published[1].Actor)

	// a mutation that leaves progress alone publishes nothing
	_, err = f.Projects.AddHistory(ctx, member, p.ID, "Reviewed")
	require.NoError(t, err)
	assert.Len(t, f.publisher.published(), 2)
}

func TestMoveTaskErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)
	p, err = f.Projects.AddTask(ctx, member, p.ID, "Write API", nil)
	require.NoError(t, err)

	_, err = f.Projects.MoveTask(ctx, member, p.ID, 1, models.BucketInProgress, models.BucketDone)
	assert.ErrorIs(t, err, board.ErrTaskNotFound)

	_, err = f.Projects.MoveTask(ctx, member, p.ID, 1, "later", models.BucketDone)
	assert.ErrorIs(t, err, board.ErrInvalidBucket)

	_, err = f.Projects.MoveTask(ctx, member, 999, 1, models.BucketTodo, models.BucketDone)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.Projects.AddTask(ctx, member, p.ID, "Orphan", intPtr(42))
	assert.ErrorIs(t, err, board.ErrMilestoneNotFound)
}

func TestMilestoneBudgetLeavesProjectUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)

	_, err = f.Projects.AddMilestone(ctx, member, p.ID, MilestoneInput{
		Title:  "Extra",
		Date:   models.NewDate(2025, time.March, 1),
		Weight: 10,
	})
	assert.ErrorIs(t, err, board.ErrWeightBudgetExceeded)

	stored, err := f.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Timeline, 1)

	// make room, then add
	_, err = f.Projects.SetMilestoneWeight(ctx, member, p.ID, 1, 60)
	require.NoError(t, err)
	p, err = f.Projects.AddMilestone(ctx, member, p.ID, MilestoneInput{
		Title:  "Design",
		Date:   models.NewDate(2025, time.March, 1),
		Weight: 40,
	})
	require.NoError(t, err)
	require.Len(t, p.Timeline, 2)
	assert.Equal(t, "Design", p.Timeline[0].Title)
	assert.Equal(t, 100, board.TotalWeight(p))

	_, err = f.Projects.AddMilestone(ctx, member, p.ID, MilestoneInput{Title: "Undated"})
	assert.ErrorIs(t, err, ErrValidation)

	p, err = f.Projects.RemoveMilestone(ctx, member, p.ID, 2)
	require.NoError(t, err)
	assert.Len(t, p.Timeline, 1)
}

func TestStatusClosedForcesFullProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)

	p, err = f.Projects.SetStatus(ctx, member, p.ID, models.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Progress)

	p, err = f.Projects.SetStatus(ctx, member, p.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Progress)

	_, err = f.Projects.SetStatus(ctx, member, p.ID, "paused")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)

	in := projectInput("Platform v2")
	in.Status = models.StatusSuspended
	in.Team = []string{"Park"}
	p, err = f.Projects.Update(ctx, member, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Platform v2", p.Name)
	assert.Equal(t, models.StatusSuspended, p.Status)
	assert.Equal(t, []string{"Park"}, p.Team)
	assert.Len(t, p.Timeline, 1, "timeline survives descriptive updates")
}

func TestHistoryAndFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)

	_, err = f.Projects.AddHistory(ctx, member, p.ID, "Kickoff")
	require.NoError(t, err)
	p, err = f.Projects.AddHistory(ctx, member, p.ID, "Design review")
	require.NoError(t, err)
	require.Len(t, p.History, 2)
	assert.Equal(t, "Design review", p.History[0].Action)
	assert.Equal(t, "Kim", p.History[0].User)
	assert.Equal(t, "2025-04-02", p.History[0].Date.String())

	p, err = f.Projects.AddFile(ctx, member, p.ID, FileInput{Name: "plan.pdf", Size: "2MB"})
	require.NoError(t, err)
	require.Len(t, p.Files, 1)
	assert.Equal(t, "Kim", p.Files[0].UploadedBy)

	_, err = f.Projects.AddFile(ctx, member, p.ID, FileInput{Name: " "})
	assert.ErrorIs(t, err, board.ErrNameRequired)
}

func TestDeleteProjectRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.Projects.Delete(ctx, member, p.ID), ErrForbidden)
	require.NoError(t, f.Projects.Delete(ctx, admin, p.ID))

	_, err = f.Projects.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.Projects.Delete(ctx, admin, p.ID), repository.ErrNotFound)
}

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Projects.Create(ctx, member, projectInput("Platform"))
	require.NoError(t, err)
	_, err = f.Projects.AddTask(ctx, member, p.ID, "Write API", intPtr(1))
	require.NoError(t, err)

	// simulate a stale stored value
	stale, err := f.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	stale.Board.Done = stale.Board.Todo
	stale.Board.Todo = nil
	require.NoError(t, f.projects.Put(ctx, stale))

	changed, err := f.Projects.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	stored, err := f.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Progress)

	changed, err = f.Projects.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.Projects.List(context.Background(), repository.ProjectFilter{Status: "paused"})
	assert.ErrorIs(t, err, ErrValidation)
}
