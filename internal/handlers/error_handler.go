package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"ridesharing/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// Problem is the body of every error response.
type Problem struct {
	Title       string            `json:"title"`
	Status      int               `json:"status"`
	Message     string            `json:"message"`
	EntityName  string            `json:"entityName,omitempty"`
	ErrorKey    string            `json:"errorKey,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// ErrorHandler renders application errors as problems with failure alert
// headers. Anything it does not recognize is logged and answered with 500.
func ErrorHandler(app string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := apperrors.As(err); ok {
			status := appErr.HTTPStatus()
			setFailureAlert(c, app, appErr.Entity, appErr.Key)
			title := appErr.Message
			if title == "" {
				title = http.StatusText(status)
			}
			return c.Status(status).JSON(Problem{
				Title:       title,
				Status:      status,
				Message:     "error." + appErr.Key,
				EntityName:  appErr.Entity,
				ErrorKey:    appErr.Key,
				FieldErrors: appErr.FieldErrors,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(Problem{
				Title:   fiberErr.Message,
				Status:  fiberErr.Code,
				Message: "error.http." + strconv.Itoa(fiberErr.Code),
			})
		}

		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(Problem{
			Title:   http.StatusText(http.StatusInternalServerError),
			Status:  fiber.StatusInternalServerError,
			Message: "error.internal",
		})
	}
}
