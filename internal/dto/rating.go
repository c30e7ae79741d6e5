package dto

// RatingDTO is the transfer object for models.Rating. Score must be between 1 and 5.
type RatingDTO struct {
	ID       *int64  `json:"id"`
	Score    *int    `json:"score" validate:"required,min=1,max=5"`
	Feedback *string `json:"feedback,omitempty" validate:"omitempty,max=255"`
	Giver    *Ref    `json:"giver,omitempty"`
	Receiver *Ref    `json:"receiver,omitempty"`
}

func (d RatingDTO) GetID() *int64 { return d.ID }
