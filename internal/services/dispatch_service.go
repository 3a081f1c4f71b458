// Package services – DispatchService
//
// This file implements the hourly dispatch cycle: compute the current UTC
// hour window, load the users due inside it grouped by enabled notification
// type, resolve content once per type, format and send one message per
// (user, type) pair with a bounded per-send deadline, and append one
// delivery-log row per attempt. Failures are contained: a broken content
// source skips its type, a failed send fails only that recipient, and a
// logging failure is swallowed. Only a failure to query the contact
// directory aborts the cycle.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/repo"
	"github.com/jsolly/text-notifications-app-sub000/internal/sms"
)

var (
	// notificationsTotal counts delivery attempts by type and outcome.
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total notification delivery attempts by type and status.",
		},
		[]string{"type", "status"},
	)

	// dispatchCycles counts dispatch cycle executions by outcome.
	dispatchCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_cycles_total",
			Help: "Total dispatch cycle executions.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(notificationsTotal, dispatchCycles)
}

// DispatchResult is the per-(user, type) outcome appended to the report.
type DispatchResult struct {
	UserID           string `json:"user_id"`
	PhoneNumber      string `json:"phone_number"`
	NotificationType string `json:"notification_type"`
	Status           string `json:"status"`
	MessageSID       string `json:"message_sid,omitempty"`
	Error            string `json:"error,omitempty"`
}

// DispatchReport summarizes one dispatch cycle. Results holds one entry per
// (user, enabled-type) pair processed, regardless of outcome.
type DispatchReport struct {
	Message    string           `json:"message"`
	TotalUsers int              `json:"total_users"`
	Results    []DispatchResult `json:"results,omitempty"`
}

// message is the formatted payload for one recipient.
type message struct {
	body      string
	mediaURLs []string
}

// DispatchService runs the per-invocation notification tick.
type DispatchService struct {
	// DB is the shared GORM handle; the pool lives for the process lifetime.
	DB *gorm.DB
	// Sender is the message transport.
	Sender sms.Sender
	// Resolver maps notification types to current content.
	Resolver *ContentResolver

	// SendTimeout bounds each transport call (defaults to 10s when zero).
	SendTimeout time.Duration
	// Concurrency caps the in-flight sends within one type. 1 preserves
	// strict per-user ordering of send-then-log; higher values keep only
	// per-user atomicity.
	Concurrency int
}

// NewDispatchService constructs a DispatchService with the default
// sequential send loop and 10 second transport deadline.
func NewDispatchService(db *gorm.DB, sender sms.Sender, resolver *ContentResolver) *DispatchService {
	return &DispatchService{
		DB:          db,
		Sender:      sender,
		Resolver:    resolver,
		SendTimeout: 10 * time.Second,
		Concurrency: 1,
	}
}

// Run executes one dispatch cycle for the hour window containing now.
// It returns an error only when the due-user query itself fails; every
// per-type and per-user failure is contained in the report.
func (s *DispatchService) Run(ctx context.Context, now time.Time) (*DispatchReport, error) {
	tr := otel.Tracer("services/DispatchService")
	ctx, span := tr.Start(ctx, "Run")
	defer span.End()

	window := domain.WindowFor(now)
	span.SetAttributes(attribute.Int("dispatch.window_hour", window.Hour()))

	due, err := repo.ListDueUsers(ctx, s.DB, window)
	if err != nil {
		dispatchCycles.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list due users: %w", err)
	}

	byType := groupByType(due)
	totalUsers := 0
	for _, users := range byType {
		totalUsers += len(users)
	}
	if totalUsers == 0 {
		log.Info().Int("window_hour", window.Hour()).Msg("no users to notify")
		dispatchCycles.WithLabelValues("empty").Inc()
		return &DispatchReport{Message: "No users to notify"}, nil
	}

	report := &DispatchReport{TotalUsers: totalUsers}
	skippedTypes := 0

	for _, t := range domain.NotificationTypes() {
		users := byType[t]
		if len(users) == 0 {
			continue
		}

		// One resolution per type; a failure skips the type, not the cycle.
		content, err := s.Resolver.Resolve(ctx, t)
		if err != nil {
			log.Warn().Err(err).Str("type", string(t)).
				Int("users", len(users)).Msg("content resolution failed, skipping type")
			skippedTypes++
			continue
		}

		report.Results = append(report.Results, s.sendToAll(ctx, t, content, users)...)
	}

	report.Message = fmt.Sprintf("Successfully processed %d notifications for %d users",
		len(report.Results), totalUsers)
	if skippedTypes > 0 {
		report.Message += fmt.Sprintf(" (%d types skipped)", skippedTypes)
	}
	dispatchCycles.WithLabelValues("ok").Inc()
	return report, nil
}

// sendToAll delivers one type's content to every enabled user with bounded
// concurrency. Each worker performs send-then-log atomically for its user;
// results arrive in user order regardless of completion order.
func (s *DispatchService) sendToAll(ctx context.Context, t domain.NotificationType, content Content, users []domain.User) []DispatchResult {
	results := make([]DispatchResult, len(users))

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	var mu sync.Mutex

	for i, u := range users {
		g.Go(func() error {
			res := s.sendOne(ctx, t, content, u)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in results

	return results
}

// sendOne formats, sends, and logs one message. It never returns an error:
// the outcome is captured in the result and the delivery log.
func (s *DispatchService) sendOne(ctx context.Context, t domain.NotificationType, content Content, u domain.User) DispatchResult {
	res := DispatchResult{
		UserID:           u.ID,
		PhoneNumber:      u.FullPhone,
		NotificationType: string(t),
	}

	msg := formatMessage(t, content, u)

	timeout := s.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	sid, err := s.Sender.Send(sendCtx, u.FullPhone, msg.body, msg.mediaURLs)
	cancel()

	if err != nil {
		log.Error().Err(err).
			Str("user_id", u.ID).
			Str("phone", MaskPhone(u.FullPhone)).
			Str("type", string(t)).
			Msg("notification send failed")
		res.Status = domain.StatusFailed
		res.Error = err.Error()
		notificationsTotal.WithLabelValues(string(t), domain.StatusFailed).Inc()
		s.logDelivery(ctx, u, t, domain.StatusFailed, err.Error())
		return res
	}

	log.Info().
		Str("user_id", u.ID).
		Str("phone", MaskPhone(u.FullPhone)).
		Str("type", string(t)).
		Str("message_sid", sid).
		Msg("notification sent")
	res.Status = domain.StatusSent
	res.MessageSID = sid
	notificationsTotal.WithLabelValues(string(t), domain.StatusSent).Inc()
	s.logDelivery(ctx, u, t, domain.StatusSent, sid)
	return res
}

// logDelivery appends a delivery-log row, best effort. A logging failure is
// observed only in diagnostics; it never surfaces to the caller because a
// delivered message must not be rolled back or retried over bookkeeping.
func (s *DispatchService) logDelivery(ctx context.Context, u domain.User, t domain.NotificationType, status, responseMessage string) {
	if err := repo.CreateNotificationLog(ctx, s.DB, u.ID, u.CityID, t, status, responseMessage); err != nil {
		log.Warn().Err(err).
			Str("user_id", u.ID).
			Str("type", string(t)).
			Msg("failed to write delivery log")
	}
}

// groupByType buckets due users under each notification type they enabled.
// A user with N enabled types appears in N buckets.
func groupByType(due []repo.DueUser) map[domain.NotificationType][]domain.User {
	out := make(map[domain.NotificationType][]domain.User, len(domain.NotificationTypes()))
	for _, d := range due {
		for _, t := range domain.NotificationTypes() {
			if d.Preferences.Enabled(t) {
				out[t] = append(out[t], d.User)
			}
		}
	}
	return out
}

// formatMessage builds the per-user message body (and media attachments)
// from the type's content and the user's name and language.
func formatMessage(t domain.NotificationType, content Content, u domain.User) message {
	greeting := fmt.Sprintf("%s %s! ", greetingFor(u.PreferredLanguage), u.PreferredName)

	switch t {
	case domain.TypeAstronomyPhoto:
		body := fmt.Sprintf("%sNASA's Astronomy Picture of the Day!\n\n%s\n\n%s",
			greeting, content.Title, truncate(content.Explanation, 200)+"...")
		m := message{body: body}
		if content.MediaURL != "" && content.MediaType != "video" {
			m.mediaURLs = []string{content.MediaURL}
		}
		return m
	default:
		return message{body: fmt.Sprintf("%s%s\n\n%s", greeting, content.Title, content.Explanation)}
	}
}

// supportedGreetings matches a user's preferred language to a greeting.
var supportedGreetings = language.NewMatcher([]language.Tag{
	language.English, // first tag is the fallback
	language.Spanish,
	language.French,
})

func greetingFor(lang string) string {
	tag, _ := language.MatchStrings(supportedGreetings, lang)
	base, _ := tag.Base()
	switch base.String() {
	case "es":
		return "¡Hola"
	case "fr":
		return "Salut"
	default:
		return "Hi"
	}
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune,
// so the result is always valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// MaskPhone redacts all but the last four digits of a phone number for log
// output.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
