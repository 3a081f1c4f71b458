// Package form decodes and parses the signup form submission. The incoming
// body is a URL-encoded form, optionally wrapped in base64 by the upstream
// proxy. Parsing is schema-driven: known contact and preference fields are
// extracted with defaults, and each known notification type becomes a
// boolean flag (unknown fields default to empty string / false).
package form

import (
	"encoding/base64"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/sysutil"
)

// TurnstileField is the form field (and header) carrying the bot-challenge
// token issued by the client widget.
const TurnstileField = "cf-turnstile-response"

// Signup holds the parsed, typed signup submission.
type Signup struct {
	// Contact
	PreferredName    string
	PhoneCountryCode string
	PhoneNumber      string
	CityID           string

	// Preferences
	PreferredLanguage     string
	UnitPreference        string
	TimeFormat            string
	DailyNotificationTime string

	// Notifications maps every known type to its enabled flag.
	Notifications map[domain.NotificationType]bool

	// TurnstileToken is the bot-challenge token, when present in the form.
	TurnstileToken string
}

// FullPhone composes the E.164 send address from country code and number.
func (s Signup) FullPhone() string {
	cc := strings.TrimPrefix(s.PhoneCountryCode, "+")
	return "+" + cc + s.PhoneNumber
}

var (
	// ErrEmptyBody is returned when the request carries no form data.
	ErrEmptyBody = errors.New("no form data received in request body")

	// ErrMissingPhone is returned when the required phone fields are absent.
	ErrMissingPhone = errors.New("phone country code and number are required")

	// ErrInvalidPhone is returned when the phone fields fail basic shape checks.
	ErrInvalidPhone = errors.New("phone number is not valid")
)

// digitsRE matches a bare national number (no punctuation, 4-15 digits).
var digitsRE = regexp.MustCompile(`^[0-9]{4,15}$`)

// countryCodeRE matches a country calling code with optional leading '+'.
var countryCodeRE = regexp.MustCompile(`^\+?[0-9]{1,3}$`)

// DecodeBody turns a raw request body into url.Values. Base64-wrapped bodies
// are transparently unwrapped: if the payload decodes as base64 and the
// result parses as a form, the decoded variant wins.
func DecodeBody(raw []byte) (url.Values, error) {
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return nil, ErrEmptyBody
	}
	if decoded, err := base64.StdEncoding.DecodeString(body); err == nil {
		if vals, err := url.ParseQuery(string(decoded)); err == nil && len(vals) > 0 {
			return vals, nil
		}
	}
	vals, err := url.ParseQuery(body)
	if err != nil || len(vals) == 0 {
		return nil, ErrEmptyBody
	}
	return vals, nil
}

// Parse extracts the typed signup fields from form values, applying the
// schema defaults, and validates the contact identity.
func Parse(vals url.Values) (*Signup, error) {
	s := &Signup{
		PreferredName:         getDefault(vals, "preferred_name", "User"),
		PhoneCountryCode:      strings.TrimSpace(vals.Get("phone_country_code")),
		PhoneNumber:           normalizePhone(vals.Get("phone_number")),
		CityID:                strings.TrimSpace(vals.Get("city_id")),
		PreferredLanguage:     getDefault(vals, "preferred_language", "en"),
		UnitPreference:        getDefault(vals, "unit_preference", "imperial"),
		TimeFormat:            getDefault(vals, "time_format", "12h"),
		DailyNotificationTime: getDefault(vals, "daily_notification_time", domain.TimeMorning),
		Notifications:         parseNotifications(vals),
		TurnstileToken:        strings.TrimSpace(vals.Get(TurnstileField)),
	}

	if s.PhoneCountryCode == "" || s.PhoneNumber == "" {
		return nil, ErrMissingPhone
	}
	if !countryCodeRE.MatchString(s.PhoneCountryCode) || !digitsRE.MatchString(s.PhoneNumber) {
		return nil, ErrInvalidPhone
	}
	switch s.DailyNotificationTime {
	case domain.TimeMorning, domain.TimeAfternoon, domain.TimeEvening:
	default:
		s.DailyNotificationTime = domain.TimeMorning
	}
	switch s.UnitPreference {
	case "metric", "imperial":
	default:
		s.UnitPreference = "imperial"
	}
	switch s.TimeFormat {
	case "24h", "12h":
	default:
		s.TimeFormat = "12h"
	}

	return s, nil
}

// parseNotifications reads one boolean per known notification type. Checkbox
// semantics: the flag is on when the field is present with a truthy value
// ("on" is what HTML checkboxes submit; "true", "1", "yes" also count).
func parseNotifications(vals url.Values) map[domain.NotificationType]bool {
	out := make(map[domain.NotificationType]bool, len(domain.NotificationTypes()))
	for _, t := range domain.NotificationTypes() {
		out[t] = sysutil.IsTruthy(vals.Get(string(t)))
	}
	return out
}

// normalizePhone strips the punctuation a form widget may leave in the
// national number ("(555) 123-4567" -> "5551234567").
func normalizePhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func getDefault(vals url.Values, key, def string) string {
	if v := strings.TrimSpace(vals.Get(key)); v != "" {
		return v
	}
	return def
}
