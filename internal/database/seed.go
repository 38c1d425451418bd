package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"projectflow/internal/auth"
	"projectflow/internal/models"
	"projectflow/internal/progress"
	"projectflow/internal/repository"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type SeedData struct {
	Members  []SeedMember  `yaml:"members"`
	Projects []SeedProject `yaml:"projects"`
}

type SeedMember struct {
	Name     string      `yaml:"name"`
	Position string      `yaml:"position"`
	Email    string      `yaml:"email"`
	Avatar   string      `yaml:"avatar"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

type SeedTask struct {
	ID          int    `yaml:"id"`
	Content     string `yaml:"content"`
	MilestoneID *int   `yaml:"milestoneId"`
}

type SeedProject struct {
	Name        string               `yaml:"name"`
	Client      string               `yaml:"client"`
	PM          string               `yaml:"pm"`
	StartDate   models.Date          `yaml:"startDate"`
	EndDate     models.Date          `yaml:"endDate"`
	Status      models.ProjectStatus `yaml:"status"`
	Description string               `yaml:"description"`
	Team        []string             `yaml:"team"`
	History     []struct {
		ID     int         `yaml:"id"`
		Date   models.Date `yaml:"date"`
		User   string      `yaml:"user"`
		Action string      `yaml:"action"`
	} `yaml:"history"`
	Timeline []struct {
		ID          int         `yaml:"id"`
		Date        models.Date `yaml:"date"`
		Title       string      `yaml:"title"`
		Description string      `yaml:"description"`
		Weight      int         `yaml:"weight"`
	} `yaml:"timeline"`
	Files []struct {
		ID         int         `yaml:"id"`
		Name       string      `yaml:"name"`
		Size       string      `yaml:"size"`
		UploadedBy string      `yaml:"uploadedBy"`
		Date       models.Date `yaml:"date"`
	} `yaml:"files"`
	Kanban struct {
		Todo       []SeedTask `yaml:"todo"`
		InProgress []SeedTask `yaml:"inprogress"`
		Done       []SeedTask `yaml:"done"`
	} `yaml:"kanban"`
}

// LoadSeed parses the seed file at path, or the built-in sample data when
// path is empty.
func LoadSeed(path string) (*SeedData, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		data = b
	}

	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

type Seeder struct {
	Members  repository.MemberRepository
	Projects repository.ProjectRepository
	Logger   *zap.Logger
}

// EnsureAdmin creates the admin account unless one already exists.
func (s *Seeder) EnsureAdmin(ctx context.Context, email, password string) error {
	members, err := s.Members.List(ctx)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	for _, m := range members {
		if m.IsAdmin() {
			return nil
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.Member{
		Name:         "Administrator",
		Position:     "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.Members.Put(ctx, &admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	s.Logger.Info("Created default admin", zap.String("email", admin.Email))
	return nil
}

// Apply inserts seed members that do not exist yet and, when no projects
// are stored, the seed projects with their progress computed.
func (s *Seeder) Apply(ctx context.Context, seed *SeedData) error {
	for _, sm := range seed.Members {
		_, err := s.Members.GetByEmail(ctx, sm.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.Logger.Warn("Failed to check seed member", zap.String("email", sm.Email), zap.Error(err))
			continue
		}

		hash, err := auth.HashPassword(sm.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", sm.Email, err)
		}
		role := sm.Role
		if !role.Valid() {
			role = models.RoleMember
		}

		m := models.Member{
			Name:         sm.Name,
			Position:     sm.Position,
			Email:        sm.Email,
			Avatar:       sm.Avatar,
			PasswordHash: hash,
			Role:         role,
		}
		if err := s.Members.Put(ctx, &m); err != nil {
			return fmt.Errorf("create seed member %s: %w", sm.Email, err)
		}
		s.Logger.Info("Created seed member", zap.String("email", m.Email))
	}

	existing, err := s.Projects.List(ctx, repository.ProjectFilter{})
	if err != nil {
		return fmt.Errorf("check projects: %w", err)
	}
	if len(existing) > 0 {
		s.Logger.Info("Projects already present, skipping project seed", zap.Int("count", len(existing)))
		return nil
	}

	for _, sp := range seed.Projects {
		p := sp.toModel()
		p.Progress = progress.Calculate(p)
		if err := s.Projects.Put(ctx, &p); err != nil {
			return fmt.Errorf("create seed project %q: %w", p.Name, err)
		}
		s.Logger.Info("Created seed project", zap.Uint("id", p.ID), zap.String("name", p.Name), zap.Int("progress", p.Progress))
	}
	return nil
}

func (sp SeedProject) toModel() models.Project {
	status := sp.Status
	if !status.Valid() {
		status = models.StatusStarted
	}

	p := models.Project{
		Name:        sp.Name,
		Client:      sp.Client,
		PM:          sp.PM,
		StartDate:   sp.StartDate,
		EndDate:     sp.EndDate,
		Status:      status,
		Description: sp.Description,
		Team:        sp.Team,
		Board: models.Board{
			Todo:       seedTasks(sp.Kanban.Todo),
			InProgress: seedTasks(sp.Kanban.InProgress),
			Done:       seedTasks(sp.Kanban.Done),
		},
	}
	for _, h := range sp.History {
		p.History = append(p.History, models.HistoryItem{ID: h.ID, Date: h.Date, User: h.User, Action: h.Action})
	}
	for _, m := range sp.Timeline {
		p.Timeline = append(p.Timeline, models.Milestone{
			ID:          m.ID,
			Date:        m.Date,
			Title:       m.Title,
			Description: m.Description,
			Weight:      m.Weight,
		})
	}
	for _, f := range sp.Files {
		p.Files = append(p.Files, models.ProjectFile{ID: f.ID, Name: f.Name, Size: f.Size, UploadedBy: f.UploadedBy, Date: f.Date})
	}
	return p
}

func seedTasks(in []SeedTask) []models.Task {
	out := make([]models.Task, 0, len(in))
	for _, t := range in {
		out = append(out, models.Task{ID: t.ID, Content: t.Content, MilestoneID: t.MilestoneID})
	}
	return out
}
