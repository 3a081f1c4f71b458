// Package domain defines the persistence models for users, notification
// preferences, delivery logs, and the cached astronomy-photo metadata.
// These types are mapped with GORM and form the core data layer of the
// text-notifications application.
package domain

import (
	"time"
)

// User represents a signed-up recipient. A user is created exactly once at
// signup together with its NotificationPreference row; afterwards only the
// active flag changes.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - PreferredName: display name used in message greetings ("User" default).
//   - PhoneCountryCode / PhoneNumber: the unique contact identity; together
//     they compose FullPhone in E.164 form.
//   - FullPhone: denormalized "+<cc><number>" used as the send address.
//   - CityID: reference into the cities dataset (used for localized content).
//   - PreferredLanguage: language code ("en" default).
//   - UnitPreference: "metric" or "imperial".
//   - TimeFormat: "24h" or "12h".
//   - DailyNotificationTime: "morning", "afternoon", or "evening".
//   - NotificationHourUTC: the UTC hour (0-23) derived from
//     DailyNotificationTime at signup; drives dispatch-window selection.
//   - IsActive: only active users are selected for dispatch.
type User struct {
	ID                    string    `json:"id"                      gorm:"type:char(36);primaryKey"`
	PreferredName         string    `json:"preferred_name"          gorm:"type:varchar(100);not null;default:'User'"`
	PhoneCountryCode      string    `json:"phone_country_code"      gorm:"type:varchar(4);not null;uniqueIndex:ux_users_phone,priority:1"`
	PhoneNumber           string    `json:"phone_number"            gorm:"type:varchar(15);not null;uniqueIndex:ux_users_phone,priority:2"`
	FullPhone             string    `json:"full_phone"              gorm:"type:varchar(20);not null;index"`
	CityID                string    `json:"city_id"                 gorm:"type:varchar(64)"`
	PreferredLanguage     string    `json:"preferred_language"      gorm:"type:varchar(8);not null;default:'en'"`
	UnitPreference        string    `json:"unit_preference"         gorm:"type:varchar(8);not null;check:unit_preference IN ('metric','imperial')"`
	TimeFormat            string    `json:"time_format"             gorm:"type:varchar(3);not null;check:time_format IN ('24h','12h')"`
	DailyNotificationTime string    `json:"daily_notification_time" gorm:"type:varchar(9);not null;check:daily_notification_time IN ('morning','afternoon','evening')"`
	NotificationHourUTC   int       `json:"notification_hour_utc"   gorm:"not null;index;check:notification_hour_utc BETWEEN 0 AND 23"`
	IsActive              bool      `json:"is_active"               gorm:"not null;default:true;index"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// NotificationPreference is the 1:1 companion of a User holding one boolean
// per notification type. It is inserted in the same transaction that creates
// the user; a user never exists without its preference row.
type NotificationPreference struct {
	UserID          string    `json:"user_id"          gorm:"type:char(36);primaryKey"`
	AstronomyPhoto  bool      `json:"astronomy_photo"  gorm:"not null;default:false"`
	CelestialEvents bool      `json:"celestial_events" gorm:"not null;default:false"`
	WeatherOutfits  bool      `json:"weather_outfits"  gorm:"not null;default:false"`
	Recipes         bool      `json:"recipes"          gorm:"not null;default:false"`
	SunsetAlerts    bool      `json:"sunset_alerts"    gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`

	// User is the owning row. Preferences are cascade-deleted with the user.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for NotificationPreference.
func (NotificationPreference) TableName() string { return "notification_preferences" }

// Enabled reports whether the flag for the given notification type is set.
// Unknown types report false.
func (p NotificationPreference) Enabled(t NotificationType) bool {
	switch t {
	case TypeAstronomyPhoto:
		return p.AstronomyPhoto
	case TypeCelestialEvents:
		return p.CelestialEvents
	case TypeWeatherOutfits:
		return p.WeatherOutfits
	case TypeRecipes:
		return p.Recipes
	case TypeSunsetAlerts:
		return p.SunsetAlerts
	default:
		return false
	}
}

// NotificationLog records one delivery attempt for one (user, type) pair.
// Rows are append-only; the dispatch cycle never mutates or deletes them.
//
// ResponseMessage carries the provider message SID when Status is "sent",
// or the error text when Status is "failed".
type NotificationLog struct {
	ID               string     `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID           string     `json:"user_id"           gorm:"type:char(36);not null;index"`
	CityID           string     `json:"city_id"           gorm:"type:varchar(64)"`
	NotificationType string     `json:"notification_type" gorm:"type:varchar(32);not null;index"`
	AttemptedAt      time.Time  `json:"attempted_at"      gorm:"not null"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	Status           string     `json:"delivery_status"   gorm:"column:delivery_status;type:varchar(8);not null;check:delivery_status IN ('sent','failed')"`
	ResponseMessage  string     `json:"response_message"  gorm:"type:text"`
}

// TableName returns the database table name for NotificationLog.
func (NotificationLog) TableName() string { return "notification_logs" }

// ApodEntry is the cached metadata for one NASA Astronomy Picture of the Day.
// Rows are written by the external fetcher job; this service only reads the
// most recent entry when resolving astronomy-photo content.
type ApodEntry struct {
	Date        string `json:"date"         gorm:"type:char(10);primaryKey"` // YYYY-MM-DD
	Title       string `json:"title"        gorm:"type:varchar(255);not null"`
	Explanation string `json:"explanation"  gorm:"type:text"`
	MediaType   string `json:"media_type"   gorm:"type:varchar(16)"`
	OriginalURL string `json:"original_url" gorm:"type:text"`
}

// TableName returns the database table name for ApodEntry.
func (ApodEntry) TableName() string { return "apod_entries" }
