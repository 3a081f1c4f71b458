// Package services – content resolution
//
// This file maps each notification type to its content source. Resolution is
// a strategy map keyed by type: each variant is independently implementable
// and independently failable, so a broken source for one type never affects
// the others. Types without a real source yet resolve to a static
// placeholder, and so does any unknown type.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/repo"
)

// Content is the ephemeral payload resolved once per dispatch cycle per
// notification type. It is never persisted by this service.
type Content struct {
	Title       string
	Explanation string
	MediaURL    string
	MediaType   string
}

// ResolverFunc resolves the current content for one notification type.
type ResolverFunc func(ctx context.Context) (Content, error)

// ContentResolver resolves per-type content via a strategy map.
type ContentResolver struct {
	resolvers map[domain.NotificationType]ResolverFunc
}

// NewContentResolver wires the default strategy map. The astronomy-photo
// type reads the most recent cached APOD entry; the remaining types are
// placeholders until their sources come online.
func NewContentResolver(db *gorm.DB) *ContentResolver {
	return &ContentResolver{
		resolvers: map[domain.NotificationType]ResolverFunc{
			domain.TypeAstronomyPhoto: latestApodContent(db),
			domain.TypeCelestialEvents: staticContent(
				"Celestial Events", "No celestial events today"),
			domain.TypeWeatherOutfits: staticContent(
				"Weather Outfit Suggestions", "No weather outfit suggestions today"),
			domain.TypeRecipes: staticContent(
				"Recipe Suggestions", "No recipe suggestions today"),
			domain.TypeSunsetAlerts: staticContent(
				"Sunset Alerts", "No sunset alerts today"),
		},
	}
}

// Resolve returns the current content for the given type. Unknown types
// yield a neutral placeholder rather than an error so that dispatch never
// fails because one content source is unready.
func (r *ContentResolver) Resolve(ctx context.Context, t domain.NotificationType) (Content, error) {
	if fn, ok := r.resolvers[t]; ok {
		return fn(ctx)
	}
	return Content{
		Title:       "Unknown Notification Type",
		Explanation: "Unknown notification type",
	}, nil
}

// Override replaces the strategy for one type. Used by tests and by
// deployments that plug in real sources incrementally.
func (r *ContentResolver) Override(t domain.NotificationType, fn ResolverFunc) {
	r.resolvers[t] = fn
}

// latestApodContent reads the newest cached astronomy-photo metadata.
// An empty cache is a resolution failure for the type (ErrNoContent), not a
// dispatch failure.
func latestApodContent(db *gorm.DB) ResolverFunc {
	return func(ctx context.Context) (Content, error) {
		e, err := repo.LatestApod(ctx, db)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Content{}, ErrNoContent
			}
			return Content{}, err
		}
		return Content{
			Title:       e.Title,
			Explanation: e.Explanation,
			MediaURL:    e.OriginalURL,
			MediaType:   e.MediaType,
		}, nil
	}
}

func staticContent(title, explanation string) ResolverFunc {
	c := Content{Title: title, Explanation: explanation}
	return func(context.Context) (Content, error) { return c, nil }
}
