package service

import (
	"context"
	"sort"
	"time"

	"projectflow/internal/models"
	"projectflow/internal/repository"
)

const (
	recentActivityLimit = 5
	todoPreviewLimit    = 5
)

type Activity struct {
	ProjectID   uint   `json:"projectId"`
	ProjectName string `json:"projectName"`
	models.HistoryItem
}

type TaskRef struct {
	ProjectID   uint          `json:"projectId"`
	ProjectName string        `json:"projectName"`
	Bucket      models.Bucket `json:"bucket"`
	models.Task
}

type Summary struct {
	Total          int        `json:"total"`
	Active         int        `json:"active"`
	Completed      int        `json:"completed"`
	Suspended      int        `json:"suspended"`
	RecentActivity []Activity `json:"recentActivity"`
	MyTodo         []TaskRef  `json:"myTodo"`
}

type CalendarProject struct {
	ID     uint                 `json:"id"`
	Name   string               `json:"name"`
	Status models.ProjectStatus `json:"status"`
}

type CalendarMilestone struct {
	ProjectID   uint   `json:"projectId"`
	ProjectName string `json:"projectName"`
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Weight      int    `json:"weight"`
}

type CalendarDay struct {
	Date       models.Date         `json:"date"`
	Projects   []CalendarProject   `json:"projects"`
	Milestones []CalendarMilestone `json:"milestones"`
}

type DashboardService struct {
	projects repository.ProjectRepository
}

func NewDashboardService(projects repository.ProjectRepository) *DashboardService {
	return &DashboardService{projects: projects}
}

func (s *DashboardService) Summary(ctx context.Context, member models.Member) (*Summary, error) {
	projects, err := s.projects.List(ctx, repository.ProjectFilter{})
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Total:          len(projects),
		RecentActivity: []Activity{},
		MyTodo:         []TaskRef{},
	}

	for _, p := range projects {
		switch {
		case p.Status.Active():
			sum.Active++
		case p.Status == models.StatusClosed:
			sum.Completed++
		case p.Status == models.StatusSuspended:
			sum.Suspended++
		}

		for _, h := range p.History {
			sum.RecentActivity = append(sum.RecentActivity, Activity{ProjectID: p.ID, ProjectName: p.Name, HistoryItem: h})
		}

		if p.HasMember(member.Name) {
			for _, t := range p.Board.Todo {
				if len(sum.MyTodo) == todoPreviewLimit {
					break
				}
				sum.MyTodo = append(sum.MyTodo, TaskRef{ProjectID: p.ID, ProjectName: p.Name, Bucket: models.BucketTodo, Task: t})
			}
		}
	}

	sort.SliceStable(sum.RecentActivity, func(i, j int) bool {
		return sum.RecentActivity[i].Date.After(sum.RecentActivity[j].Date.Time)
	})
	if len(sum.RecentActivity) > recentActivityLimit {
		sum.RecentActivity = sum.RecentActivity[:recentActivityLimit]
	}
	return sum, nil
}

// MyTasks lists every task on the projects the member runs or works on.
func (s *DashboardService) MyTasks(ctx context.Context, member models.Member) ([]TaskRef, error) {
	projects, err := s.projects.List(ctx, repository.ProjectFilter{Member: member.Name})
	if err != nil {
		return nil, err
	}

	tasks := []TaskRef{}
	for _, p := range projects {
		for _, bucket := range models.Buckets {
			for _, t := range *p.Board.Column(bucket) {
				tasks = append(tasks, TaskRef{ProjectID: p.ID, ProjectName: p.Name, Bucket: bucket, Task: t})
			}
		}
	}
	return tasks, nil
}

// Calendar returns one entry per day of the month with the projects running
// on that day and the milestones due on it.
func (s *DashboardService) Calendar(ctx context.Context, year int, month time.Month) ([]CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, invalid("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, invalid("year out of range")
	}

	projects, err := s.projects.List(ctx, repository.ProjectFilter{})
	if err != nil {
		return nil, err
	}

	// the zeroth day of the next month is the last day of this one
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	days := make([]CalendarDay, 0, last)
	for d := 1; d <= last; d++ {
		day := models.NewDate(year, month, d)
		entry := CalendarDay{
			Date:       day,
			Projects:   []CalendarProject{},
			Milestones: []CalendarMilestone{},
		}

		for _, p := range projects {
			if p.StartDate.Contains(p.EndDate, day) {
				entry.Projects = append(entry.Projects, CalendarProject{ID: p.ID, Name: p.Name, Status: p.Status})
			}
			for _, m := range p.Timeline {
				if m.Date.Equal(day.Time) {
					entry.Milestones = append(entry.Milestones, CalendarMilestone{
						ProjectID:   p.ID,
						ProjectName: p.Name,
						ID:          m.ID,
						Title:       m.Title,
						Weight:      m.Weight,
					})
				}
			}
		}
		days = append(days, entry)
	}
	return days, nil
}
