// Package services – SignupService
//
// This file implements SignupService, which owns the signup transaction:
// decode the raw form body, parse it into typed fields, verify the
// bot-challenge token, and persist the user together with its notification
// preference row in one atomic transaction. Service-level errors
// (ErrInvalidForm, ErrVerificationFailed, ErrDuplicatePhone,
// ErrStorageUnavailable) are returned for predictable cases so handlers can
// map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/form"
	"github.com/jsolly/text-notifications-app-sub000/internal/repo"
	"github.com/jsolly/text-notifications-app-sub000/internal/sysutil"
	"github.com/jsolly/text-notifications-app-sub000/internal/verify"
)

// SignupService coordinates form parsing, verification, and the atomic
// user + preference insert.
type SignupService struct {
	// DB is the GORM handle used for persistence. The underlying pool is
	// shared for the process lifetime; each Submit call scopes its own
	// transaction and releases the connection on every exit path.
	DB *gorm.DB

	// Verifier checks the bot-challenge token. A no-op verifier is used in
	// development mode.
	Verifier verify.Verifier
}

// NewSignupService constructs a SignupService.
func NewSignupService(db *gorm.DB, v verify.Verifier) *SignupService {
	return &SignupService{DB: db, Verifier: v}
}

// Submit processes one signup. headerToken is the bot-challenge token taken
// from the request header, when present; the form field takes over when the
// header is empty. remoteIP is forwarded to the verification endpoint.
//
// Guarantees: either the user row and its preference row both exist after a
// nil return, or neither does. A phone-uniqueness violation yields
// ErrDuplicatePhone with zero partial rows.
func (s *SignupService) Submit(ctx context.Context, rawBody []byte, headerToken, remoteIP string) (*domain.User, error) {
	tr := otel.Tracer("services/SignupService")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	vals, err := form.DecodeBody(rawBody)
	if err != nil {
		return nil, ErrInvalidForm
	}
	parsed, err := form.Parse(vals)
	if err != nil {
		return nil, ErrInvalidForm
	}

	token := sysutil.FirstNonEmpty(headerToken, parsed.TurnstileToken)
	if err := s.Verifier.Verify(ctx, token, remoteIP); err != nil {
		return nil, ErrVerificationFailed
	}

	span.SetAttributes(attribute.String("signup.city_id", parsed.CityID))

	u, err := repo.CreateUserWithPreferences(ctx, s.DB, repo.NewUserInput{
		PreferredName:         parsed.PreferredName,
		PhoneCountryCode:      parsed.PhoneCountryCode,
		PhoneNumber:           parsed.PhoneNumber,
		FullPhone:             parsed.FullPhone(),
		CityID:                parsed.CityID,
		PreferredLanguage:     parsed.PreferredLanguage,
		UnitPreference:        parsed.UnitPreference,
		TimeFormat:            parsed.TimeFormat,
		DailyNotificationTime: parsed.DailyNotificationTime,
		NotificationHourUTC:   domain.NotificationHourFor(parsed.DailyNotificationTime),
		Notifications:         parsed.Notifications,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err):
			return nil, ErrDuplicatePhone
		case isUnavailable(err):
			return nil, ErrStorageUnavailable
		default:
			return nil, err
		}
	}

	return u, nil
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// isUnavailable detects infrastructure-class failures (cannot reach or open
// the store) as opposed to the store rejecting this particular write.
func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unable to open database") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "bad connection")
}
