// Signup HTTP handler.
//
// This file exposes the endpoint the signup form posts to:
//   - POST /signup
//
// The handler is transport-thin: it reads the raw body (the service handles
// base64 unwrapping and form parsing), extracts the bot-challenge token and
// client IP, calls the SignupService, and renders an HTML fragment with the
// outcome. Unlike the JSON endpoints, responses here are htmx fragments with
// an HX-Trigger header so the page can refresh its state.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/form"
	"github.com/jsolly/text-notifications-app-sub000/internal/http/middleware"
	"github.com/jsolly/text-notifications-app-sub000/internal/services"
)

// SignupService defines the signup use-case consumed by HTTP handlers.
//
// Implementations must honor the provided context for cancellation and
// timeouts, and must guarantee that a non-nil error leaves zero partial rows.
type SignupService interface {
	// Submit decodes, verifies, and persists one signup atomically.
	Submit(ctx context.Context, rawBody []byte, headerToken, remoteIP string) (*domain.User, error)
}

// Signup handles POST /signup. It always answers with a rendered HTML
// fragment and a human-readable message, never a raw error.
//
// Status mapping:
//   - 201: user and preference rows created
//   - 400: missing/unparseable form data
//   - 403: bot-challenge verification failed
//   - 409: a user with that phone number already exists
//   - 503: contact directory unreachable
//   - 500: any other failure
func (h *Handlers) Signup(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fragment(c, http.StatusBadRequest, "signup:error",
			"Signup Failed", "No form data received in request body.")
		return
	}

	headerToken := c.GetHeader(form.TurnstileField)
	user, err := h.signupSvc.Submit(c.Request.Context(), raw, headerToken, c.ClientIP())
	if err != nil {
		h.signupError(c, err)
		return
	}

	lg := middleware.LoggerFrom(c)
	lg.Info().
		Str("user_id", user.ID).
		Str("phone", services.MaskPhone(user.FullPhone)).
		Msg("signup created")

	fragment(c, http.StatusCreated, "signup:success",
		"Signup Successful!",
		"Thank you for signing up! You will start receiving notifications soon.")
}

// signupError maps service-level errors onto fragment responses. Only
// messages this package explicitly writes ever reach the client.
func (h *Handlers) signupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidForm):
		fragment(c, http.StatusBadRequest, "signup:error",
			"Signup Failed", "The form could not be read. Please try again.")
	case errors.Is(err, services.ErrVerificationFailed):
		fragment(c, http.StatusForbidden, "signup:error",
			"Signup Failed", "Security verification failed. Please try again.")
	case errors.Is(err, services.ErrDuplicatePhone):
		fragment(c, http.StatusConflict, "signup:error",
			"Signup Failed", "A user with that phone number already exists.")
	case errors.Is(err, services.ErrStorageUnavailable):
		fragment(c, http.StatusServiceUnavailable, "signup:error",
			"Signup Failed", "Failed to save your information. Please try again later.")
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("signup failed")
		fragment(c, http.StatusInternalServerError, "signup:error",
			"Signup Failed", "An unexpected error occurred. Please try again later.")
	}
}
