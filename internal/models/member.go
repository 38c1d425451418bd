package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Position     string `gorm:"size:100" json:"position"` // job title, e.g. "Backend Developer"
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Avatar       string `gorm:"type:text" json:"avatar"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null" json:"role"`
}

func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
