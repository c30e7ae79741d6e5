package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// ProfileMapper maps profiles, copying the photo bytes.
type ProfileMapper struct{}

func (ProfileMapper) ToDTO(p models.Profile) dto.ProfileDTO {
	return dto.ProfileDTO{
		ID:               ptr(p.ID),
		FirstName:        copyPtr(p.FirstName),
		LastName:         copyPtr(p.LastName),
		Photo:            copyBytes(p.Photo),
		PhotoContentType: copyPtr(p.PhotoContentType),
		ContactDetails:   copyPtr(p.ContactDetails),
		Member:           toRef(p.MemberID),
	}
}

func (ProfileMapper) ToRecord(d dto.ProfileDTO) models.Profile {
	return models.Profile{
		ID:               deref(d.ID),
		FirstName:        copyPtr(d.FirstName),
		LastName:         copyPtr(d.LastName),
		Photo:            copyBytes(d.Photo),
		PhotoContentType: copyPtr(d.PhotoContentType),
		ContactDetails:   copyPtr(d.ContactDetails),
		MemberID:         fromRef(d.Member),
	}
}

func (ProfileMapper) ApplyNonNull(d dto.ProfileDTO, p *models.Profile) {
	if d.FirstName != nil {
		p.FirstName = copyPtr(d.FirstName)
	}
	if d.LastName != nil {
		p.LastName = copyPtr(d.LastName)
	}
	if d.Photo != nil {
		p.Photo = copyBytes(d.Photo)
	}
	if d.PhotoContentType != nil {
		p.PhotoContentType = copyPtr(d.PhotoContentType)
	}
	if d.ContactDetails != nil {
		p.ContactDetails = copyPtr(d.ContactDetails)
	}
	if d.Member != nil {
		p.MemberID = fromRef(d.Member)
	}
}
