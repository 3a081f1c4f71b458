// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users and
// their notification preferences.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - CreateUserWithPreferences relies on the unique index over
//     (phone_country_code, phone_number); a duplicate signup surfaces as the
//     raw driver error, which the service layer translates into a
//     duplicate-phone domain error.
//   - On other DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// NewUserInput carries the validated signup fields destined for the users
// table plus the per-type notification flags for the companion row.
type NewUserInput struct {
	PreferredName         string
	PhoneCountryCode      string
	PhoneNumber           string
	FullPhone             string
	CityID                string
	PreferredLanguage     string
	UnitPreference        string
	TimeFormat            string
	DailyNotificationTime string
	NotificationHourUTC   int
	Notifications         map[domain.NotificationType]bool
}

// CreateUserWithPreferences inserts the user row and its 1:1 notification
// preference row in a single transaction. Either both rows exist afterwards
// or neither does; any error (including a phone-uniqueness violation) rolls
// the whole signup back.
//
// On success it returns the persisted User. On failure it returns the DB
// error untranslated.
func CreateUserWithPreferences(ctx context.Context, db *gorm.DB, in NewUserInput) (*domain.User, error) {
	u := &domain.User{
		ID:                    uuid.NewString(),
		PreferredName:         in.PreferredName,
		PhoneCountryCode:      in.PhoneCountryCode,
		PhoneNumber:           in.PhoneNumber,
		FullPhone:             in.FullPhone,
		CityID:                in.CityID,
		PreferredLanguage:     in.PreferredLanguage,
		UnitPreference:        in.UnitPreference,
		TimeFormat:            in.TimeFormat,
		DailyNotificationTime: in.DailyNotificationTime,
		NotificationHourUTC:   in.NotificationHourUTC,
		IsActive:              true,
		CreatedAt:             time.Now().UTC(),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		p := &domain.NotificationPreference{
			UserID:          u.ID,
			AstronomyPhoto:  in.Notifications[domain.TypeAstronomyPhoto],
			CelestialEvents: in.Notifications[domain.TypeCelestialEvents],
			WeatherOutfits:  in.Notifications[domain.TypeWeatherOutfits],
			Recipes:         in.Notifications[domain.TypeRecipes],
			SunsetAlerts:    in.Notifications[domain.TypeSunsetAlerts],
			CreatedAt:       u.CreatedAt,
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CountUsersByPhone returns how many users exist with the given country code
// and national number. Used by tests and diagnostics; uniqueness itself is
// enforced by the index.
func CountUsersByPhone(ctx context.Context, db *gorm.DB, countryCode, number string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("phone_country_code = ? AND phone_number = ?", countryCode, number).
		Count(&total).Error
	return total, err
}

// DueUser is the projection of a user joined with its notification
// preferences, as needed by one dispatch cycle.
type DueUser struct {
	User        domain.User
	Preferences domain.NotificationPreference
}

// ListDueUsers returns every active user whose notification hour falls inside
// the given half-open hour window, together with their preference flags.
// Selection is hour-granular: a user scheduled exactly at the window start is
// included; one scheduled at the window end belongs to the next window.
func ListDueUsers(ctx context.Context, db *gorm.DB, w domain.HourWindow) ([]DueUser, error) {
	var users []domain.User
	err := db.WithContext(ctx).
		Where("is_active = ? AND notification_hour_utc = ?", true, w.Hour()).
		Order("created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	var prefs []domain.NotificationPreference
	if err := db.WithContext(ctx).Where("user_id IN ?", ids).Find(&prefs).Error; err != nil {
		return nil, err
	}
	byUser := make(map[string]domain.NotificationPreference, len(prefs))
	for _, p := range prefs {
		byUser[p.UserID] = p
	}

	out := make([]DueUser, 0, len(users))
	for _, u := range users {
		out = append(out, DueUser{User: u, Preferences: byUser[u.ID]})
	}
	return out, nil
}
