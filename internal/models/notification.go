package models

import "time"

// Notification is an in-app message addressed to a Member.
type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" csv:"id"`
	Message   string    `gorm:"type:varchar(255);not null" csv:"message"`
	Timestamp time.Time `gorm:"not null" csv:"timestamp"`
	Read      *bool     `gorm:"column:is_read" csv:"is_read,omitempty"`
	MemberID  *int64    `gorm:"index" csv:"member_id,omitempty"`
}

func (Notification) TableName() string {
	return "notification"
}
