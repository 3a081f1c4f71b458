// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// notification delivery log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
)

// CreateNotificationLog appends one delivery-attempt row. SentAt is set only
// when status is "sent"; responseMessage carries the provider message SID on
// success or the error text on failure.
//
// Rows are never deduplicated: repeated attempts for the same (user, type)
// pair simply append additional entries.
func CreateNotificationLog(ctx context.Context, db *gorm.DB, userID, cityID string, t domain.NotificationType, status, responseMessage string) error {
	now := time.Now().UTC()
	entry := &domain.NotificationLog{
		ID:               uuid.NewString(),
		UserID:           userID,
		CityID:           cityID,
		NotificationType: string(t),
		AttemptedAt:      now,
		Status:           status,
		ResponseMessage:  responseMessage,
	}
	if status == domain.StatusSent {
		entry.SentAt = &now
	}
	return db.WithContext(ctx).Create(entry).Error
}

// CountNotificationLogs returns the total number of delivery-log rows.
func CountNotificationLogs(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.NotificationLog{}).Count(&total).Error
	return total, err
}

// ListNotificationLogsPage returns a page of delivery-log rows, newest
// attempt first. The caller computes offset and limit.
func ListNotificationLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.NotificationLog, error) {
	var out []domain.NotificationLog
	err := db.WithContext(ctx).
		Order("attempted_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
