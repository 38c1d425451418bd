package models

import (
	"slices"
	"time"
)

type ProjectStatus string

const (
	StatusStarted    ProjectStatus = "started"
	StatusInProgress ProjectStatus = "in_progress"
	StatusSuspended  ProjectStatus = "suspended"
	StatusClosed     ProjectStatus = "closed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusStarted, StatusInProgress, StatusSuspended, StatusClosed:
		return true
	}
	return false
}

// Active reports whether work on the project is under way.
func (s ProjectStatus) Active() bool {
	return s == StatusStarted || s == StatusInProgress
}

type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string        `gorm:"size:255;not null" json:"name"`
	Client      string        `gorm:"size:255" json:"client"`
	PM          string        `gorm:"column:pm;size:100" json:"pm"`
	StartDate   Date          `json:"startDate"`
	EndDate     Date          `json:"endDate"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Progress    int           `gorm:"not null;default:0" json:"progress"`
	Description string        `gorm:"type:text" json:"description"`
	Team        []string      `gorm:"type:text;serializer:json" json:"team"`

	// stored in their own tables by the repository
	Board    Board         `gorm:"-" json:"kanban"`
	Timeline []Milestone   `gorm:"-" json:"timeline"`
	History  []HistoryItem `gorm:"-" json:"history"`
	Files    []ProjectFile `gorm:"-" json:"files"`
}

// HasMember reports whether name is the project's PM or on its team.
func (p *Project) HasMember(name string) bool {
	if name == "" {
		return false
	}
	return p.PM == name || slices.Contains(p.Team, name)
}

func (p *Project) Milestone(id int) (*Milestone, bool) {
	for i := range p.Timeline {
		if p.Timeline[i].ID == id {
			return &p.Timeline[i], true
		}
	}
	return nil, false
}

type Milestone struct {
	ProjectID   uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID          int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Date        Date   `json:"date"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Weight      int    `gorm:"not null;default:0" json:"weight"`
	Position    int    `gorm:"not null;default:0" json:"-"`
}

type HistoryItem struct {
	ProjectID uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID        int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Date      Date   `json:"date"`
	User      string `gorm:"size:100" json:"user"`
	Action    string `gorm:"type:text;not null" json:"action"`
	Position  int    `gorm:"not null;default:0" json:"-"`
}

// ProjectFile is deliverable metadata; file contents are not stored.
type ProjectFile struct {
	ProjectID  uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID         int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Size       string `gorm:"size:32" json:"size"`
	UploadedBy string `gorm:"size:100" json:"uploadedBy"`
	Date       Date   `json:"date"`
}
