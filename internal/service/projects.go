package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"projectflow/internal/board"
	"projectflow/internal/events"
	"projectflow/internal/metrics"
	"projectflow/internal/models"
	"projectflow/internal/progress"
	"projectflow/internal/repository"

	"go.uber.org/zap"
)

// DefaultMilestoneTitle names the milestone every new project starts with.
const DefaultMilestoneTitle = "Project complete"

type ProjectInput struct {
	Name        string               `json:"name"`
	Client      string               `json:"client"`
	PM          string               `json:"pm"`
	Team        []string             `json:"team"`
	StartDate   models.Date          `json:"startDate"`
	EndDate     models.Date          `json:"endDate"`
	Status      models.ProjectStatus `json:"status"`
	Description string               `json:"description"`
}

func (in *ProjectInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Client = strings.TrimSpace(in.Client)
	in.PM = strings.TrimSpace(in.PM)
	in.Description = strings.TrimSpace(in.Description)

	team := make([]string, 0, len(in.Team))
	for _, name := range in.Team {
		if name = strings.TrimSpace(name); name != "" {
			team = append(team, name)
		}
	}
	in.Team = team

	if in.Name == "" {
		return invalid("name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return invalid("start and end dates are required")
	}
	if in.EndDate.Before(in.StartDate.Time) {
		return invalid("end date is before start date")
	}
	if in.Status == "" {
		in.Status = models.StatusStarted
	}
	if !in.Status.Valid() {
		return invalid("unknown status %q", in.Status)
	}
	return nil
}

type MilestoneInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        models.Date `json:"date"`
	Weight      int         `json:"weight"`
}

type FileInput struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

// ProjectService runs every project mutation through the same path: load,
// apply the board change, recompute progress, store, audit, and publish a
// progress event when the value moved.
type ProjectService struct {
	projects  repository.ProjectRepository
	audit     repository.AuditRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewProjectService(projects repository.ProjectRepository, audit repository.AuditRepository, publisher events.Publisher, logger *zap.Logger) *ProjectService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProjectService{
		projects:  projects,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ProjectService) List(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	return s.projects.List(ctx, filter)
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, actor models.Member, in ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	p := &models.Project{
		Name:        in.Name,
		Client:      in.Client,
		PM:          in.PM,
		Team:        in.Team,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      in.Status,
		Description: in.Description,
		Board:       models.Board{Todo: []models.Task{}, InProgress: []models.Task{}, Done: []models.Task{}},
		Timeline: []models.Milestone{{
			ID:     1,
			Title:  DefaultMilestoneTitle,
			Date:   in.EndDate,
			Weight: board.MaxTotalWeight,
		}},
		History: []models.HistoryItem{},
		Files:   []models.ProjectFile{},
	}
	p.Progress = progress.Calculate(*p)

	if err := s.projects.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	metrics.IncrementMutation("create")
	audit(ctx, s.audit, s.logger, actor, "project", p.ID, "create", p.Name)
	s.logger.Info("Project created", zap.Uint("id", p.ID), zap.String("name", p.Name), zap.String("by", actor.Name))
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor models.Member, id uint, in ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, "update", in.Name, func(p *models.Project) error {
		p.Name = in.Name
		p.Client = in.Client
		p.PM = in.PM
		p.Team = in.Team
		p.StartDate = in.StartDate
		p.EndDate = in.EndDate
		p.Status = in.Status
		p.Description = in.Description
		return nil
	})
}

func (s *ProjectService) Delete(ctx context.Context, actor models.Member, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}

	metrics.IncrementMutation("delete")
	audit(ctx, s.audit, s.logger, actor, "project", id, "delete", "")
	s.logger.Info("Project deleted", zap.Uint("id", id), zap.String("by", actor.Name))
	return nil
}

func (s *ProjectService) SetStatus(ctx context.Context, actor models.Member, id uint, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	return s.mutate(ctx, actor, id, "status", string(status), func(p *models.Project) error {
		p.Status = status
		return nil
	})
}

func (s *ProjectService) AddTask(ctx context.Context, actor models.Member, id uint, content string, milestoneID *int) (*models.Project, error) {
	return s.mutate(ctx, actor, id, "task_add", content, func(p *models.Project) error {
		_, err := board.AddTask(p, content, milestoneID)
		return err
	})
}

func (s *ProjectService) MoveTask(ctx context.Context, actor models.Member, id uint, taskID int, from, to models.Bucket) (*models.Project, error) {
	details := fmt.Sprintf("task %d: %s -> %s", taskID, from, to)
	return s.mutate(ctx, actor, id, "task_move", details, func(p *models.Project) error {
		return board.MoveTask(p, taskID, from, to)
	})
}

func (s *ProjectService) RemoveTask(ctx context.Context, actor models.Member, id uint, taskID int) (*models.Project, error) {
	return s.mutate(ctx, actor, id, "task_remove", fmt.Sprintf("task %d", taskID), func(p *models.Project) error {
		return board.RemoveTask(p, taskID)
	})
}

func (s *ProjectService) AddMilestone(ctx context.Context, actor models.Member, id uint, in MilestoneInput) (*models.Project, error) {
	if in.Date.IsZero() {
		return nil, invalid("milestone date is required")
	}
	return s.mutate(ctx, actor, id, "milestone_add", in.Title, func(p *models.Project) error {
		_, err := board.AddMilestone(p, models.Milestone{
			Title:       in.Title,
			Description: in.Description,
			Date:        in.Date,
			Weight:      in.Weight,
		})
		return err
	})
}

func (s *ProjectService) SetMilestoneWeight(ctx context.Context, actor models.Member, id uint, milestoneID, weight int) (*models.Project, error) {
	details := fmt.Sprintf("milestone %d weight %d", milestoneID, weight)
	return s.mutate(ctx, actor, id, "milestone_weight", details, func(p *models.Project) error {
		return board.SetMilestoneWeight(p, milestoneID, weight)
	})
}

func (s *ProjectService) RemoveMilestone(ctx context.Context, actor models.Member, id uint, milestoneID int) (*models.Project, error) {
	return s.mutate(ctx, actor, id, "milestone_remove", fmt.Sprintf("milestone %d", milestoneID), func(p *models.Project) error {
		return board.RemoveMilestone(p, milestoneID)
	})
}

// AddHistory logs action under the actor's name, dated today.
func (s *ProjectService) AddHistory(ctx context.Context, actor models.Member, id uint, action string) (*models.Project, error) {
	return s.mutate(ctx, actor, id, "history_add", action, func(p *models.Project) error {
		_, err := board.AddHistory(p, actor.Name, action, models.DateOf(s.now()))
		return err
	})
}

func (s *ProjectService) AddFile(ctx context.Context, actor models.Member, id uint, in FileInput) (*models.Project, error) {
	return s.mutate(ctx, actor, id, "file_add", in.Name, func(p *models.Project) error {
		_, err := board.AddFile(p, models.ProjectFile{
			Name:       in.Name,
			Size:       strings.TrimSpace(in.Size),
			UploadedBy: actor.Name,
			Date:       models.DateOf(s.now()),
		})
		return err
	})
}

// RecalculateAll recomputes and stores progress for every project whose
// stored value is stale. It returns how many projects changed.
func (s *ProjectService) RecalculateAll(ctx context.Context) (int, error) {
	projects, err := s.projects.List(ctx, repository.ProjectFilter{})
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range projects {
		p := &projects[i]
		before := p.Progress
		p.Progress = progress.Calculate(*p)
		metrics.RecordRecalculation(p.Progress != before)
		if p.Progress == before {
			continue
		}

		if err := s.projects.Put(ctx, p); err != nil {
			return changed, fmt.Errorf("store project %d: %w", p.ID, err)
		}
		changed++
		s.logger.Info("Progress recalculated", zap.Uint("id", p.ID), zap.Int("from", before), zap.Int("to", p.Progress))
		s.publish(ctx, p, before, "")
	}
	return changed, nil
}

func (s *ProjectService) mutate(ctx context.Context, actor models.Member, id uint, action, details string, apply func(p *models.Project) error) (*models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	before := p.Progress
	if err := apply(p); err != nil {
		return nil, err
	}
	p.Progress = progress.Calculate(*p)

	if err := s.projects.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	metrics.IncrementMutation(action)
	metrics.RecordRecalculation(p.Progress != before)
	audit(ctx, s.audit, s.logger, actor, "project", p.ID, action, details)

	if p.Progress != before {
		s.logger.Debug("Progress changed", zap.Uint("id", p.ID), zap.Int("from", before), zap.Int("to", p.Progress))
		s.publish(ctx, p, before, actor.Name)
	}
	return p, nil
}

// publish failures are logged; the mutation is already stored.
func (s *ProjectService) publish(ctx context.Context, p *models.Project, from int, actor string) {
	err := s.publisher.PublishProgressChanged(ctx, events.ProgressChanged{
		ProjectID: p.ID,
		Project:   p.Name,
		From:      from,
		To:        p.Progress,
		Actor:     actor,
		At:        s.now().UTC(),
	})
	if err != nil {
		metrics.EventPublishFailures.Inc()
		s.logger.Warn("Progress event not published", zap.Uint("id", p.ID), zap.Error(err))
	}
}
