package dto

import "time"

// RideRequestDTO is the transfer object for models.RideRequest.
type RideRequestDTO struct {
	ID          *int64     `json:"id"`
	Status      *string    `json:"status" validate:"required,max=255"`
	RequestTime *time.Time `json:"requestTime" validate:"required"`
	Ride        *Ref       `json:"ride,omitempty"`
}

func (d RideRequestDTO) GetID() *int64 { return d.ID }
