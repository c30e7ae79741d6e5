package handlers

import (
	"errors"
	"fmt"
	"log"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/entities"
	"ridesharing/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration and authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	opts        Options
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, opts Options) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    services.NewValidator(),
		opts:        opts.withDefaults(),
	}
}

// RegisterRoutes registers the public authentication routes. registerMW runs
// in front of registration only, since it is the one route that creates a member.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, registerMW ...fiber.Handler) {
	router.Post("/register", append(registerMW, h.HandleRegister)...)
	router.Post("/authenticate", h.HandleAuthenticate)
}

// HandleRegister handles self-registration of a new member.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return apperrors.InvalidRequest(entities.Member.Name, "bodyinvalid", "Invalid request body")
	}

	member, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		log.Printf("Error registering member %s: %v", req.Login, err)
		return err
	}

	setEntityAlert(c, h.opts.AppName, entities.Member.Name, "created", *member.ID)
	return c.Status(fiber.StatusCreated).JSON(member)
}

// LoginRequest represents the request body for authentication.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleAuthenticate checks credentials and issues a JWT.
func (h *AuthHandler) HandleAuthenticate(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return apperrors.InvalidRequest(entities.Member.Name, "bodyinvalid", "Invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return apperrors.Validation(entities.Member.Name, errorMessages)
	}

	token, err := h.authService.Authenticate(c.UserContext(), req.Login, req.Password)
	if err != nil {
		log.Printf("Error during authentication of %s: %v", req.Login, err)
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrNotActivated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication failed",
				"error":   err.Error(),
			})
		}
		return err
	}

	c.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return c.JSON(fiber.Map{
		"id_token": token,
	})
}
