package dto

// ProfileDTO is the transfer object for models.Profile. Photo travels base64 encoded.
type ProfileDTO struct {
	ID               *int64  `json:"id"`
	FirstName        *string `json:"firstName,omitempty" validate:"omitempty,max=255"`
	LastName         *string `json:"lastName,omitempty" validate:"omitempty,max=255"`
	Photo            []byte  `json:"photo,omitempty"`
	PhotoContentType *string `json:"photoContentType,omitempty"`
	ContactDetails   *string `json:"contactDetails,omitempty" validate:"omitempty,max=255"`
	Member           *Ref    `json:"member,omitempty"`
}

func (d ProfileDTO) GetID() *int64 { return d.ID }
