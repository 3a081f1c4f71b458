package domain

import "time"

// NotificationType names a category of optional content a user can opt into.
// The string values double as the notification_preferences column names and
// the notification_type values stored in notification_logs.
type NotificationType string

const (
	TypeAstronomyPhoto  NotificationType = "astronomy_photo"
	TypeCelestialEvents NotificationType = "celestial_events"
	TypeWeatherOutfits  NotificationType = "weather_outfits"
	TypeRecipes         NotificationType = "recipes"
	TypeSunsetAlerts    NotificationType = "sunset_alerts"
)

// NotificationTypes lists every known type in dispatch order.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		TypeAstronomyPhoto,
		TypeCelestialEvents,
		TypeWeatherOutfits,
		TypeRecipes,
		TypeSunsetAlerts,
	}
}

// Known reports whether t names one of the supported notification types.
func (t NotificationType) Known() bool {
	switch t {
	case TypeAstronomyPhoto, TypeCelestialEvents, TypeWeatherOutfits, TypeRecipes, TypeSunsetAlerts:
		return true
	}
	return false
}

// Delivery status values stored in notification_logs.delivery_status.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Notification-time preference values and their UTC dispatch hours.
const (
	TimeMorning   = "morning"   // 08:00 UTC
	TimeAfternoon = "afternoon" // 14:00 UTC
	TimeEvening   = "evening"   // 20:00 UTC
)

// NotificationHourFor maps a daily-notification-time preference to its UTC
// hour. Unrecognized values fall back to morning.
func NotificationHourFor(pref string) int {
	switch pref {
	case TimeAfternoon:
		return 14
	case TimeEvening:
		return 20
	default:
		return 8
	}
}

// HourWindow is the half-open UTC interval [Start, End) used to select users
// due for notification. End is always Start plus one hour.
type HourWindow struct {
	Start time.Time
	End   time.Time
}

// WindowFor truncates now to the start of its UTC hour and returns the
// surrounding window. A user scheduled exactly at the boundary belongs to
// the window that starts there, never the one that ends there, so
// consecutive hourly invocations neither skip nor double-select anyone.
func WindowFor(now time.Time) HourWindow {
	start := now.UTC().Truncate(time.Hour)
	return HourWindow{Start: start, End: start.Add(time.Hour)}
}

// Contains reports whether t falls inside the window (inclusive start,
// exclusive end).
func (w HourWindow) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End)
}

// Hour returns the window's UTC hour of day. Scheduling is hour-granular,
// so selection matches users whose notification hour equals this value.
func (w HourWindow) Hour() int { return w.Start.Hour() }
