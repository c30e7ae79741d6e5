package dto

// MemberDTO is the transfer object for models.Member.
type MemberDTO struct {
	ID        *int64  `json:"id"`
	Login     *string `json:"login" validate:"required,min=1,max=50"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Activated *bool   `json:"activated"`
	// Password is write-only; it is hashed before it reaches storage.
	Password     *string `json:"password,omitempty" validate:"omitempty,min=4,max=72"`
	PasswordHash *string `json:"-"`
}

func (d MemberDTO) GetID() *int64 { return d.ID }
