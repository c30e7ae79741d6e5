package models

import "time"

// Ride is a trip offered by a Member. EndTime is not checked against StartTime.
type Ride struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" csv:"id"`
	StartLocation string     `gorm:"type:varchar(255);not null" csv:"start_location"`
	EndLocation   string     `gorm:"type:varchar(255);not null" csv:"end_location"`
	StartTime     time.Time  `gorm:"not null" csv:"start_time"`
	EndTime       *time.Time `csv:"end_time,omitempty"`
	Recurring     *bool      `csv:"recurring,omitempty"`
	MemberID      *int64     `gorm:"index" csv:"member_id,omitempty"`
}

func (Ride) TableName() string {
	return "ride"
}
