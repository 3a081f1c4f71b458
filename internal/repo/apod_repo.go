// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read/write access to the cached
// astronomy-photo metadata; the cache is populated by the external fetcher
// job and read here when resolving astronomy-photo content.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
)

// LatestApod returns the most recent cached astronomy-photo entry by date.
// Returns ErrNotFound when the cache table is empty (the fetcher job has not
// run yet).
func LatestApod(ctx context.Context, db *gorm.DB) (*domain.ApodEntry, error) {
	var e domain.ApodEntry
	err := db.WithContext(ctx).Order("date desc").First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertApod inserts or replaces the cached entry for a given date. Exposed
// for the external fetcher job and for tests that seed content.
func UpsertApod(ctx context.Context, db *gorm.DB, e *domain.ApodEntry) error {
	return db.WithContext(ctx).Save(e).Error
}
