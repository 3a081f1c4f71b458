package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/repo"
)

func TestContentResolver_StaticTypes(t *testing.T) {
	db := newServiceDB(t, &domain.ApodEntry{})
	r := NewContentResolver(db)
	ctx := context.Background()

	c, err := r.Resolve(ctx, domain.TypeRecipes)
	if err != nil {
		t.Fatalf("Resolve recipes: %v", err)
	}
	if c.Title != "Recipe Suggestions" || c.MediaURL != "" {
		t.Fatalf("unexpected recipes content: %+v", c)
	}

	c, err = r.Resolve(ctx, domain.TypeSunsetAlerts)
	if err != nil {
		t.Fatalf("Resolve sunset: %v", err)
	}
	if c.Title != "Sunset Alerts" {
		t.Fatalf("unexpected sunset content: %+v", c)
	}
}

func TestContentResolver_Astronomy_EmptyCache(t *testing.T) {
	db := newServiceDB(t, &domain.ApodEntry{})
	r := NewContentResolver(db)

	_, err := r.Resolve(context.Background(), domain.TypeAstronomyPhoto)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("Resolve = %v; want ErrNoContent", err)
	}
}

func TestContentResolver_Astronomy_FromCache(t *testing.T) {
	db := newServiceDB(t, &domain.ApodEntry{})
	if err := repo.UpsertApod(context.Background(), db, &domain.ApodEntry{
		Date:        "2026-03-15",
		Title:       "Pillars of Creation",
		Explanation: "Towering tendrils of cosmic dust and gas.",
		MediaType:   "image",
		OriginalURL: "https://apod.example/pillars.jpg",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := NewContentResolver(db)
	c, err := r.Resolve(context.Background(), domain.TypeAstronomyPhoto)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Title != "Pillars of Creation" || c.MediaURL != "https://apod.example/pillars.jpg" || c.MediaType != "image" {
		t.Fatalf("unexpected content: %+v", c)
	}
}

func TestContentResolver_UnknownType_Placeholder(t *testing.T) {
	r := NewContentResolver(newServiceDB(t))

	c, err := r.Resolve(context.Background(), domain.NotificationType("carrier_pigeon"))
	if err != nil {
		t.Fatalf("Resolve unknown: %v", err)
	}
	if c.Title != "Unknown Notification Type" {
		t.Fatalf("unexpected placeholder: %+v", c)
	}
}

func TestContentResolver_Override(t *testing.T) {
	r := NewContentResolver(newServiceDB(t))
	r.Override(domain.TypeRecipes, func(context.Context) (Content, error) {
		return Content{Title: "Tonight: Ratatouille"}, nil
	})

	c, err := r.Resolve(context.Background(), domain.TypeRecipes)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Title != "Tonight: Ratatouille" {
		t.Fatalf("override not applied: %+v", c)
	}
}
