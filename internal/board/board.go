// Package board holds the in-memory mutations behind the kanban board,
// the milestone timeline and the history log of a project. Nothing here
// touches storage; callers recompute progress and persist afterwards.
package board

import (
	"errors"
	"fmt"
	"strings"

	"projectflow/internal/models"
)

// MaxTotalWeight caps the sum of a project's milestone weights.
const MaxTotalWeight = 100

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrMilestoneNotFound    = errors.New("milestone not found")
	ErrInvalidBucket        = errors.New("invalid bucket")
	ErrEmptyContent         = errors.New("content is required")
	ErrTitleRequired        = errors.New("title is required")
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidWeight        = errors.New("weight must be between 0 and 100")
	ErrWeightBudgetExceeded = errors.New("total milestone weight cannot exceed 100")
)

//
// TASKS
//

func AddTask(p *models.Project, content string, milestoneID *int) (models.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Task{}, ErrEmptyContent
	}
	if milestoneID != nil {
		if _, ok := p.Milestone(*milestoneID); !ok {
			return models.Task{}, fmt.Errorf("%w: %d", ErrMilestoneNotFound, *milestoneID)
		}
	}

	t := models.Task{
		ID:          nextTaskID(p),
		Content:     content,
		MilestoneID: milestoneID,
	}
	p.Board.Todo = append(p.Board.Todo, t)
	return t, nil
}

// MoveTask takes the task out of from and appends it to the end of to.
// Moving within the same bucket changes nothing.
func MoveTask(p *models.Project, taskID int, from, to models.Bucket) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidBucket
	}
	if from == to {
		return nil
	}

	src := p.Board.Column(from)
	idx := indexOfTask(*src, taskID)
	if idx < 0 {
		return fmt.Errorf("%w: %d in %s", ErrTaskNotFound, taskID, from)
	}

	t := (*src)[idx]
	*src = append((*src)[:idx:idx], (*src)[idx+1:]...)

	dst := p.Board.Column(to)
	*dst = append(*dst, t)
	return nil
}

func RemoveTask(p *models.Project, taskID int) error {
	_, bucket, ok := p.Board.Find(taskID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	col := p.Board.Column(bucket)
	idx := indexOfTask(*col, taskID)
	*col = append((*col)[:idx:idx], (*col)[idx+1:]...)
	return nil
}

func indexOfTask(tasks []models.Task, id int) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func nextTaskID(p *models.Project) int {
	highest := 0
	for _, t := range p.Board.All() {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}

//
// TIMELINE
//

func TotalWeight(p *models.Project) int {
	sum := 0
	for _, m := range p.Timeline {
		sum += m.Weight
	}
	return sum
}

// AddMilestone inserts m into the timeline, keeping it ordered by date.
// Milestones sharing a date keep insertion order.
func AddMilestone(p *models.Project, m models.Milestone) (models.Milestone, error) {
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	if m.Title == "" {
		return models.Milestone{}, ErrTitleRequired
	}
	if err := checkWeight(TotalWeight(p), m.Weight); err != nil {
		return models.Milestone{}, err
	}

	m.ID = nextMilestoneID(p)
	m.ProjectID = p.ID

	pos := len(p.Timeline)
	for i, existing := range p.Timeline {
		if existing.Date.After(m.Date.Time) {
			pos = i
			break
		}
	}
	p.Timeline = append(p.Timeline, models.Milestone{})
	copy(p.Timeline[pos+1:], p.Timeline[pos:])
	p.Timeline[pos] = m
	return m, nil
}

func SetMilestoneWeight(p *models.Project, id, weight int) error {
	m, ok := p.Milestone(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrMilestoneNotFound, id)
	}
	if err := checkWeight(TotalWeight(p)-m.Weight, weight); err != nil {
		return err
	}
	m.Weight = weight
	return nil
}

// RemoveMilestone drops the milestone from the timeline. Tasks that point at
// it keep their reference and stop counting toward weighted progress.
func RemoveMilestone(p *models.Project, id int) error {
	for i, m := range p.Timeline {
		if m.ID == id {
			p.Timeline = append(p.Timeline[:i:i], p.Timeline[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrMilestoneNotFound, id)
}

func checkWeight(others, weight int) error {
	if weight < 0 || weight > MaxTotalWeight {
		return ErrInvalidWeight
	}
	if others+weight > MaxTotalWeight {
		return fmt.Errorf("%w: %d + %d", ErrWeightBudgetExceeded, others, weight)
	}
	return nil
}

func nextMilestoneID(p *models.Project) int {
	highest := 0
	for _, m := range p.Timeline {
		if m.ID > highest {
			highest = m.ID
		}
	}
	return highest + 1
}

//
// HISTORY / FILES
//

// AddHistory records an entry at the top of the project's history.
func AddHistory(p *models.Project, user, action string, date models.Date) (models.HistoryItem, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return models.HistoryItem{}, ErrEmptyContent
	}

	highest := 0
	for _, h := range p.History {
		if h.ID > highest {
			highest = h.ID
		}
	}

	item := models.HistoryItem{
		ProjectID: p.ID,
		ID:        highest + 1,
		Date:      date,
		User:      user,
		Action:    action,
	}
	p.History = append([]models.HistoryItem{item}, p.History...)
	return item, nil
}

func AddFile(p *models.Project, f models.ProjectFile) (models.ProjectFile, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return models.ProjectFile{}, ErrNameRequired
	}

	highest := 0
	for _, existing := range p.Files {
		if existing.ID > highest {
			highest = existing.ID
		}
	}
	f.ID = highest + 1
	f.ProjectID = p.ID
	p.Files = append(p.Files, f)
	return f, nil
}
