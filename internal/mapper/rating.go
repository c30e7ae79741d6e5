package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// RatingMapper maps ratings and their giver and receiver references.
type RatingMapper struct{}

func (RatingMapper) ToDTO(r models.Rating) dto.RatingDTO {
	return dto.RatingDTO{
		ID:       ptr(r.ID),
		Score:    ptr(r.Score),
		Feedback: copyPtr(r.Feedback),
		Giver:    toRef(r.GiverID),
		Receiver: toRef(r.ReceiverID),
	}
}

func (RatingMapper) ToRecord(d dto.RatingDTO) models.Rating {
	return models.Rating{
		ID:         deref(d.ID),
		Score:      deref(d.Score),
		Feedback:   copyPtr(d.Feedback),
		GiverID:    fromRef(d.Giver),
		ReceiverID: fromRef(d.Receiver),
	}
}

func (RatingMapper) ApplyNonNull(d dto.RatingDTO, r *models.Rating) {
	if d.Score != nil {
		r.Score = *d.Score
	}
	if d.Feedback != nil {
		r.Feedback = copyPtr(d.Feedback)
	}
	if d.Giver != nil {
		r.GiverID = fromRef(d.Giver)
	}
	if d.Receiver != nil {
		r.ReceiverID = fromRef(d.Receiver)
	}
}
