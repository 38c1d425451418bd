package repository

import (
	"context"
	"errors"
	"fmt"

	"projectflow/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProjectStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProjectStore(db *gorm.DB, logger *zap.Logger) *ProjectStore {
	return &ProjectStore{db: db, logger: logger}
}

func (r *ProjectStore) Get(ctx context.Context, id uint) (*models.Project, error) {
	db := r.db.WithContext(ctx)

	var p models.Project
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to load project", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	projects := []models.Project{p}
	if err := loadChildren(db, projects); err != nil {
		r.logger.Error("Failed to load project contents", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &projects[0], nil
}

func (r *ProjectStore) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	db := r.db.WithContext(ctx)

	q := db.Order("created_at desc, id desc")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, err
	}

	// team is stored as escaped JSON text; match members in Go
	if filter.Member != "" {
		kept := projects[:0]
		for _, p := range projects {
			if p.HasMember(filter.Member) {
				kept = append(kept, p)
			}
		}
		projects = kept
	}

	if err := loadChildren(db, projects); err != nil {
		r.logger.Error("Failed to load project contents", zap.Error(err))
		return nil, err
	}
	return projects, nil
}

func (r *ProjectStore) Put(ctx context.Context, p *models.Project) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Team == nil {
			p.Team = []string{}
		}
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("save project: %w", err)
		}

		if err := deleteChildren(tx, p.ID); err != nil {
			return err
		}

		tasks := flattenBoard(p)
		if len(tasks) > 0 {
			if err := tx.Create(&tasks).Error; err != nil {
				return fmt.Errorf("save tasks: %w", err)
			}
		}

		if len(p.Timeline) > 0 {
			timeline := make([]models.Milestone, len(p.Timeline))
			for i, m := range p.Timeline {
				m.ProjectID = p.ID
				m.Position = i
				timeline[i] = m
			}
			if err := tx.Create(&timeline).Error; err != nil {
				return fmt.Errorf("save timeline: %w", err)
			}
		}

		if len(p.History) > 0 {
			history := make([]models.HistoryItem, len(p.History))
			for i, h := range p.History {
				h.ProjectID = p.ID
				h.Position = i
				history[i] = h
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("save history: %w", err)
			}
		}

		if len(p.Files) > 0 {
			files := make([]models.ProjectFile, len(p.Files))
			for i, f := range p.Files {
				f.ProjectID = p.ID
				files[i] = f
			}
			if err := tx.Create(&files).Error; err != nil {
				return fmt.Errorf("save files: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to put project", zap.Uint("id", p.ID), zap.Error(err))
		return err
	}

	r.logger.Debug("Project saved",
		zap.Uint("id", p.ID),
		zap.Int("progress", p.Progress),
		zap.Int("tasks", p.Board.Len()),
		zap.Int("milestones", len(p.Timeline)),
	)
	return nil
}

func (r *ProjectStore) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		r.logger.Error("Failed to delete project", zap.Uint("id", id), zap.Error(err))
	}
	return err
}

func deleteChildren(tx *gorm.DB, projectID uint) error {
	for _, child := range []interface{}{
		&models.Task{},
		&models.Milestone{},
		&models.HistoryItem{},
		&models.ProjectFile{},
	} {
		if err := tx.Where("project_id = ?", projectID).Delete(child).Error; err != nil {
			return fmt.Errorf("clear %T: %w", child, err)
		}
	}
	return nil
}

func flattenBoard(p *models.Project) []models.Task {
	tasks := make([]models.Task, 0, p.Board.Len())
	for _, bucket := range models.Buckets {
		for i, t := range *p.Board.Column(bucket) {
			t.ProjectID = p.ID
			t.Bucket = bucket
			t.Position = i
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// loadChildren fills board, timeline, history and files for every project
// in place, one query per child table.
func loadChildren(db *gorm.DB, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]uint, len(projects))
	index := make(map[uint]*models.Project, len(projects))
	for i := range projects {
		p := &projects[i]
		ids[i] = p.ID
		index[p.ID] = p
		p.Board = models.Board{Todo: []models.Task{}, InProgress: []models.Task{}, Done: []models.Task{}}
		p.Timeline = []models.Milestone{}
		p.History = []models.HistoryItem{}
		p.Files = []models.ProjectFile{}
		if p.Team == nil {
			p.Team = []string{}
		}
	}

	var tasks []models.Task
	if err := db.Where("project_id IN ?", ids).Order("project_id, position").Find(&tasks).Error; err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range tasks {
		col := index[t.ProjectID].Board.Column(t.Bucket)
		if col == nil {
			continue
		}
		*col = append(*col, t)
	}

	var timeline []models.Milestone
	if err := db.Where("project_id IN ?", ids).Order("project_id, position").Find(&timeline).Error; err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}
	for _, m := range timeline {
		p := index[m.ProjectID]
		p.Timeline = append(p.Timeline, m)
	}

	var history []models.HistoryItem
	if err := db.Where("project_id IN ?", ids).Order("project_id, position").Find(&history).Error; err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	for _, h := range history {
		p := index[h.ProjectID]
		p.History = append(p.History, h)
	}

	var files []models.ProjectFile
	if err := db.Where("project_id IN ?", ids).Order("project_id, id").Find(&files).Error; err != nil {
		return fmt.Errorf("load files: %w", err)
	}
	for _, f := range files {
		p := index[f.ProjectID]
		p.Files = append(p.Files, f)
	}

	return nil
}
