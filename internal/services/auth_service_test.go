package services_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
	"ridesharing/internal/repositories"
	"ridesharing/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockMemberRepository mocks the login and email lookups and stores members in memory.
type MockMemberRepository struct {
	repositories.Repository[models.Member]
	mock.Mock
}

func (m *MockMemberRepository) FindByLogin(ctx context.Context, login string) (*models.Member, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

const testJWTSecret = "test_jwt_secret"

func newMemberService(t *testing.T) *services.MemberService {
	t.Helper()
	mem, err := repositories.NewMemoryRepository[models.Member]("member")
	require.NoError(t, err)
	return services.NewMemberService(repositories.NewMemberRepository(mem), services.NewValidator(), nil)
}

func TestMemberService_SaveHashesPasswordAndLowercases(t *testing.T) {
	service := newMemberService(t)
	ctx := context.Background()

	saved, err := service.Save(ctx, dto.MemberDTO{
		Login:    strPtr("Alice"),
		Email:    strPtr("Alice@Example.com"),
		Password: strPtr("password123"),
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", *saved.Login)
	assert.Equal(t, "alice@example.com", *saved.Email)
	assert.Nil(t, saved.Password)
	require.NotNil(t, saved.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*saved.PasswordHash), []byte("password123")))
}

func TestMemberService_RejectsDuplicates(t *testing.T) {
	mockRepo := &MockMemberRepository{}
	service := services.NewMemberService(mockRepo, nil, nil)
	ctx := context.Background()

	mockRepo.On("FindByLogin", mock.Anything, "alice").Return(&models.Member{ID: 1, Login: "alice"}, nil).Once()
	_, err := service.Save(ctx, dto.MemberDTO{Login: strPtr("ALICE")})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "loginexists", appErr.Key)

	mockRepo.On("FindByLogin", mock.Anything, "bob").Return(nil, repositories.ErrRecordNotFound).Once()
	mockRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(&models.Member{ID: 1}, nil).Once()
	_, err = service.Save(ctx, dto.MemberDTO{Login: strPtr("bob"), Email: strPtr("bob@example.com")})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "emailexists", appErr.Key)

	mockRepo.AssertExpectations(t)
}

func TestMemberService_UpdateKeepsPasswordHash(t *testing.T) {
	service := newMemberService(t)
	ctx := context.Background()

	saved, err := service.Save(ctx, dto.MemberDTO{Login: strPtr("alice"), Password: strPtr("password123")})
	require.NoError(t, err)

	activated := true
	updated, err := service.Update(ctx, dto.MemberDTO{ID: saved.ID, Login: strPtr("alice"), Activated: &activated})
	require.NoError(t, err)
	assert.True(t, *updated.Activated)

	_, err = service.Authenticate(ctx, "alice", "password123")
	assert.NoError(t, err)

	_, err = service.Update(ctx, dto.MemberDTO{ID: int64Ptr(99), Login: strPtr("ghost")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemberService_PartialUpdateChangesPassword(t *testing.T) {
	service := newMemberService(t)
	ctx := context.Background()

	saved, err := service.Save(ctx, dto.MemberDTO{Login: strPtr("alice"), Password: strPtr("password123")})
	require.NoError(t, err)

	result, err := service.PartialUpdate(ctx, dto.MemberDTO{ID: saved.ID, Password: strPtr("secret456")})
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, "alice", *result.Value.Login)

	_, err = service.Authenticate(ctx, "alice", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = service.Authenticate(ctx, "alice", "secret456")
	assert.NoError(t, err)
}

func TestAuthService_RegisterAndAuthenticate(t *testing.T) {
	authService := services.NewAuthService(newMemberService(t), testJWTSecret, time.Hour)
	ctx := context.Background()

	member, err := authService.Register(ctx, services.RegisterRequest{Login: "testuser", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, *member.Activated)

	token, err := authService.Authenticate(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(*member.ID), claims["member_id"])
	assert.Equal(t, "testuser", claims["login"])

	// Wrong password
	_, err = authService.Authenticate(ctx, "testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown login
	_, err = authService.Authenticate(ctx, "nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Duplicate registration
	_, err = authService.Register(ctx, services.RegisterRequest{Login: "TestUser", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	// Missing password
	_, err = authService.Register(ctx, services.RegisterRequest{Login: "other"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_RejectsInactiveMember(t *testing.T) {
	members := newMemberService(t)
	authService := services.NewAuthService(members, testJWTSecret, time.Hour)
	ctx := context.Background()

	_, err := members.Save(ctx, dto.MemberDTO{Login: strPtr("sleepy"), Password: strPtr("password123")})
	require.NoError(t, err)

	_, err = authService.Authenticate(ctx, "sleepy", "password123")
	assert.ErrorIs(t, err, services.ErrNotActivated)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(newMemberService(t), testJWTSecret, time.Hour)

	// Generate a valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": 42,
		"login":     "testuser",
		"exp":       jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	principal, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, services.Principal{MemberID: 42, Login: "testuser"}, principal)

	// Malformed token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Wrong secret
	forged, _ := token.SignedString([]byte("other_secret"))
	_, err = authService.ValidateToken(forged)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": 42,
		"exp":       jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Token without a member
	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	anonymousString, _ := anonymous.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(anonymousString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
