package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// MemberMapper maps members. The password hash is carried but never the plain password.
type MemberMapper struct{}

func (MemberMapper) ToDTO(m models.Member) dto.MemberDTO {
	return dto.MemberDTO{
		ID:           ptr(m.ID),
		Login:        ptr(m.Login),
		Email:        copyPtr(m.Email),
		Activated:    ptr(m.Activated),
		PasswordHash: emptyToNil(m.PasswordHash),
	}
}

func (MemberMapper) ToRecord(d dto.MemberDTO) models.Member {
	return models.Member{
		ID:           deref(d.ID),
		Login:        deref(d.Login),
		Email:        copyPtr(d.Email),
		Activated:    deref(d.Activated),
		PasswordHash: deref(d.PasswordHash),
	}
}

func (MemberMapper) ApplyNonNull(d dto.MemberDTO, m *models.Member) {
	if d.Login != nil {
		m.Login = *d.Login
	}
	if d.Email != nil {
		m.Email = copyPtr(d.Email)
	}
	if d.Activated != nil {
		m.Activated = *d.Activated
	}
	if d.PasswordHash != nil {
		m.PasswordHash = *d.PasswordHash
	}
}
