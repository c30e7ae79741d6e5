package dto

import "time"

// MessageDTO is the transfer object for models.Message.
type MessageDTO struct {
	ID        *int64     `json:"id"`
	Content   *string    `json:"content" validate:"required,max=255"`
	Timestamp *time.Time `json:"timestamp" validate:"required"`
	Ride      *Ref       `json:"ride,omitempty"`
}

func (d MessageDTO) GetID() *int64 { return d.ID }
