package repositories

import (
	"context"
	"strings"

	"ridesharing/internal/models"
)

// MemberRepository adds the login and email lookups needed by registration and authentication.
type MemberRepository interface {
	Repository[models.Member]
	FindByLogin(ctx context.Context, login string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
}

type memberRepository struct {
	Repository[models.Member]
}

// NewMemberRepository decorates a generic member repository with lookups.
func NewMemberRepository(base Repository[models.Member]) MemberRepository {
	return &memberRepository{Repository: base}
}

// FindByLogin retrieves a member by login, case-insensitively.
func (r *memberRepository) FindByLogin(ctx context.Context, login string) (*models.Member, error) {
	return r.FindOneBy(ctx, "login", strings.ToLower(login))
}

// FindByEmail retrieves a member by email, case-insensitively.
func (r *memberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return r.FindOneBy(ctx, "email", strings.ToLower(email))
}
