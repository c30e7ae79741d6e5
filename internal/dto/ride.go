package dto

import "time"

// RideDTO is the transfer object for models.Ride.
type RideDTO struct {
	ID            *int64     `json:"id"`
	StartLocation *string    `json:"startLocation" validate:"required,max=255"`
	EndLocation   *string    `json:"endLocation" validate:"required,max=255"`
	StartTime     *time.Time `json:"startTime" validate:"required"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	Recurring     *bool      `json:"recurring,omitempty"`
	Member        *Ref       `json:"member,omitempty"`
}

func (d RideDTO) GetID() *int64 { return d.ID }
