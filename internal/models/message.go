package models

import "time"

// Message is a chat line posted on a Ride.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" csv:"id"`
	Content   string    `gorm:"type:varchar(255);not null" csv:"content"`
	Timestamp time.Time `gorm:"not null" csv:"timestamp"`
	RideID    *int64    `gorm:"index" csv:"ride_id,omitempty"`
}

func (Message) TableName() string {
	return "message"
}
