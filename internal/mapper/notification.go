package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// NotificationMapper maps notifications and their member reference.
type NotificationMapper struct{}

func (NotificationMapper) ToDTO(n models.Notification) dto.NotificationDTO {
	return dto.NotificationDTO{
		ID:        ptr(n.ID),
		Message:   ptr(n.Message),
		Timestamp: ptr(n.Timestamp),
		Read:      copyPtr(n.Read),
		Member:    toRef(n.MemberID),
	}
}

func (NotificationMapper) ToRecord(d dto.NotificationDTO) models.Notification {
	return models.Notification{
		ID:        deref(d.ID),
		Message:   deref(d.Message),
		Timestamp: deref(d.Timestamp),
		Read:      copyPtr(d.Read),
		MemberID:  fromRef(d.Member),
	}
}

func (NotificationMapper) ApplyNonNull(d dto.NotificationDTO, n *models.Notification) {
	if d.Message != nil {
		n.Message = *d.Message
	}
	if d.Timestamp != nil {
		n.Timestamp = *d.Timestamp
	}
	if d.Read != nil {
		n.Read = copyPtr(d.Read)
	}
	if d.Member != nil {
		n.MemberID = fromRef(d.Member)
	}
}
