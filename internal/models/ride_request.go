package models

import "time"

// RideRequest asks for a seat on a Ride. Status is free text.
type RideRequest struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" csv:"id"`
	Status      string    `gorm:"type:varchar(255);not null" csv:"status"`
	RequestTime time.Time `gorm:"not null" csv:"request_time"`
	RideID      *int64    `gorm:"index" csv:"ride_id,omitempty"`
}

func (RideRequest) TableName() string {
	return "ride_request"
}
