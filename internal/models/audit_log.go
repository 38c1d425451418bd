package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	MemberID   uint   `gorm:"index" json:"memberId"`
	MemberName string `gorm:"size:100" json:"memberName"`

	Entity   string `gorm:"size:50;not null" json:"entity"` // "project", "member"
	EntityID uint   `json:"entityId"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "task_move", ...
	Details  string `gorm:"type:text" json:"details"`
}
