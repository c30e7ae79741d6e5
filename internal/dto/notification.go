package dto

import "time"

// NotificationDTO is the transfer object for models.Notification.
type NotificationDTO struct {
	ID        *int64     `json:"id"`
	Message   *string    `json:"message" validate:"required,max=255"`
	Timestamp *time.Time `json:"timestamp" validate:"required"`
	Read      *bool      `json:"read,omitempty"`
	Member    *Ref       `json:"member,omitempty"`
}

func (d NotificationDTO) GetID() *int64 { return d.ID }
