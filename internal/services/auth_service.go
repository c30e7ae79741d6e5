package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/dto"
	"ridesharing/internal/entities"

	"github.com/dgrijalva/jwt-go"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("member is not activated")
	ErrInvalidToken       = errors.New("invalid token")
)

// Principal is the authenticated member carried by a token.
type Principal struct {
	MemberID int64
	Login    string
}

// RegisterRequest is the body of a self-registration.
type RegisterRequest struct {
	Login    string  `json:"login"`
	Email    *string `json:"email,omitempty"`
	Password string  `json:"password"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	members   *MemberService
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService. A non-positive ttl defaults to 24 hours.
func NewAuthService(members *MemberService, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		members:   members,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
	}
}

// Register creates an activated member from a login and a plain password.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (dto.MemberDTO, error) {
	if req.Password == "" {
		return dto.MemberDTO{}, apperrors.Validation(entities.Member.Name, map[string]string{
			"password": "Field 'password' failed on the 'required' tag",
		})
	}
	activated := true
	return s.members.Save(ctx, dto.MemberDTO{
		Login:     &req.Login,
		Email:     req.Email,
		Password:  &req.Password,
		Activated: &activated,
	})
}

// Authenticate checks the credentials and returns a signed JWT.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (string, error) {
	member, err := s.members.Authenticate(ctx, login, password)
	if err != nil {
		return "", err
	}
	if !member.Activated {
		return "", ErrNotActivated
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": member.ID,
		"login":     member.Login,
		"exp":       now.Add(s.tokenTTL).Unix(),
		"iat":       now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT, returning the principal it names.
func (s *AuthService) ValidateToken(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	// JSON numbers decode as float64.
	id, ok := claims["member_id"].(float64)
	if !ok {
		return Principal{}, fmt.Errorf("%w: missing member_id claim", ErrInvalidToken)
	}
	login, _ := claims["login"].(string)
	return Principal{MemberID: int64(id), Login: login}, nil
}
