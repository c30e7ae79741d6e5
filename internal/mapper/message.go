package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// MessageMapper maps chat messages and their ride reference.
type MessageMapper struct{}

func (MessageMapper) ToDTO(m models.Message) dto.MessageDTO {
	return dto.MessageDTO{
		ID:        ptr(m.ID),
		Content:   ptr(m.Content),
		Timestamp: ptr(m.Timestamp),
		Ride:      toRef(m.RideID),
	}
}

func (MessageMapper) ToRecord(d dto.MessageDTO) models.Message {
	return models.Message{
		ID:        deref(d.ID),
		Content:   deref(d.Content),
		Timestamp: deref(d.Timestamp),
		RideID:    fromRef(d.Ride),
	}
}

func (MessageMapper) ApplyNonNull(d dto.MessageDTO, m *models.Message) {
	if d.Content != nil {
		m.Content = *d.Content
	}
	if d.Timestamp != nil {
		m.Timestamp = *d.Timestamp
	}
	if d.Ride != nil {
		m.RideID = fromRef(d.Ride)
	}
}
