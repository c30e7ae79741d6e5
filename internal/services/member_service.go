package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/dto"
	"ridesharing/internal/entities"
	"ridesharing/internal/events"
	"ridesharing/internal/mapper"
	"ridesharing/internal/models"
	"ridesharing/internal/repositories"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// MemberService adds credential handling and uniqueness checks to the
// generic member logic. Logins and emails are stored lower-case.
type MemberService struct {
	*CrudService[models.Member, dto.MemberDTO]
	members repositories.MemberRepository
}

// NewMemberService creates a new MemberService.
func NewMemberService(members repositories.MemberRepository, validate *validator.Validate, publisher events.Publisher) *MemberService {
	return &MemberService{
		CrudService: NewCrudService[models.Member, dto.MemberDTO](entities.Member, members, mapper.MemberMapper{}, validate, publisher),
		members:     members,
	}
}

// Save registers a new member, hashing the supplied password.
func (s *MemberService) Save(ctx context.Context, d dto.MemberDTO) (dto.MemberDTO, error) {
	if d.ID != nil {
		return s.CrudService.Save(ctx, d)
	}
	normalize(&d)
	if err := s.checkUnique(ctx, d, 0); err != nil {
		return dto.MemberDTO{}, err
	}
	if err := hashPassword(&d); err != nil {
		return dto.MemberDTO{}, err
	}
	return s.CrudService.Save(ctx, d)
}

// Update overwrites a member. The stored password hash survives unless a new
// password is supplied.
func (s *MemberService) Update(ctx context.Context, d dto.MemberDTO) (dto.MemberDTO, error) {
	if d.ID == nil {
		return s.CrudService.Update(ctx, d)
	}
	normalize(&d)
	existing, err := s.members.FindByID(ctx, *d.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return dto.MemberDTO{}, apperrors.NotFound(entities.Member.Name, *d.ID)
		}
		return dto.MemberDTO{}, fmt.Errorf("failed to get member %d: %w", *d.ID, err)
	}
	if err := s.checkUnique(ctx, d, existing.ID); err != nil {
		return dto.MemberDTO{}, err
	}
	if d.Password != nil {
		if err := hashPassword(&d); err != nil {
			return dto.MemberDTO{}, err
		}
	} else if existing.PasswordHash != "" {
		hash := existing.PasswordHash
		d.PasswordHash = &hash
	}
	return s.CrudService.Update(ctx, d)
}

// PartialUpdate merges the supplied member fields, hashing a new password if present.
func (s *MemberService) PartialUpdate(ctx context.Context, d dto.MemberDTO) (PatchResult[dto.MemberDTO], error) {
	if d.ID != nil {
		normalize(&d)
		if err := s.checkUnique(ctx, d, *d.ID); err != nil {
			return PatchResult[dto.MemberDTO]{}, err
		}
		if err := hashPassword(&d); err != nil {
			return PatchResult[dto.MemberDTO]{}, err
		}
	}
	return s.CrudService.PartialUpdate(ctx, d)
}

// Authenticate checks a login and password pair and returns the member.
func (s *MemberService) Authenticate(ctx context.Context, login, password string) (*models.Member, error) {
	member, err := s.members.FindByLogin(ctx, login)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if member.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return member, nil
}

// checkUnique rejects a login or email already used by a member other than self.
func (s *MemberService) checkUnique(ctx context.Context, d dto.MemberDTO, self int64) error {
	if d.Login != nil {
		if other, err := s.members.FindByLogin(ctx, *d.Login); err == nil && other.ID != self {
			return apperrors.InvalidRequest(entities.Member.Name, "loginexists", fmt.Sprintf("Login name '%s' already used", *d.Login))
		} else if err != nil && !errors.Is(err, repositories.ErrRecordNotFound) {
			return fmt.Errorf("failed to check login: %w", err)
		}
	}
	if d.Email != nil {
		if other, err := s.members.FindByEmail(ctx, *d.Email); err == nil && other.ID != self {
			return apperrors.InvalidRequest(entities.Member.Name, "emailexists", fmt.Sprintf("Email '%s' is already in use", *d.Email))
		} else if err != nil && !errors.Is(err, repositories.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
	}
	return nil
}

func normalize(d *dto.MemberDTO) {
	if d.Login != nil {
		login := strings.ToLower(*d.Login)
		d.Login = &login
	}
	if d.Email != nil {
		email := strings.ToLower(*d.Email)
		d.Email = &email
	}
}

// hashPassword replaces the hash carried by d with one derived from d.Password.
// The plain password stays on d so its length rules are still validated.
func hashPassword(d *dto.MemberDTO) error {
	if d.Password == nil {
		d.PasswordHash = nil
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(*d.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)
	d.PasswordHash = &hash
	return nil
}
