package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, data *entity.Notification) error
	GetList(ctx context.Context, recipientID string, offset, limit int) ([]entity.Notification, error)

	// GetRecentUnread returns the newest unread notifications, capped at
	// limit. It backs the pending-delivery batch flushed on reconnect.
	GetRecentUnread(ctx context.Context, recipientID string, limit int) ([]entity.Notification, error)

	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID string, id int64) error
	MarkAllRead(ctx context.Context, recipientID string) error
	Delete(ctx context.Context, recipientID string, id int64) error
}

type notificationRepository struct{}

func NewNotificationRepository() *notificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) Create(ctx context.Context, data *entity.Notification) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *notificationRepository) GetList(
	ctx context.Context, recipientID string, offset, limit int,
) ([]entity.Notification, error) {
	var result []entity.Notification
	err := xcontext.DB(ctx).
		Where("recipient_id=?", recipientID).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *notificationRepository) GetRecentUnread(
	ctx context.Context, recipientID string, limit int,
) ([]entity.Notification, error) {
	var result []entity.Notification
	err := xcontext.DB(ctx).
		Where("recipient_id=? AND read_at IS NULL", recipientID).
		Order("id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *notificationRepository) CountUnread(
	ctx context.Context, recipientID string,
) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id=? AND read_at IS NULL", recipientID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

// MarkRead is idempotent. Marking an already read or unknown notification
// affects no rows and is not an error.
func (r *notificationRepository) MarkRead(
	ctx context.Context, recipientID string, id int64,
) error {
	return xcontext.DB(ctx).
		Model(&entity.Notification{}).
		Where("id=? AND recipient_id=? AND read_at IS NULL", id, recipientID).
		Update("read_at", sql.NullTime{Time: time.Now(), Valid: true}).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	return xcontext.DB(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id=? AND read_at IS NULL", recipientID).
		Update("read_at", sql.NullTime{Time: time.Now(), Valid: true}).Error
}

func (r *notificationRepository) Delete(
	ctx context.Context, recipientID string, id int64,
) error {
	tx := xcontext.DB(ctx).
		Where("id=? AND recipient_id=?", id, recipientID).
		Delete(&entity.Notification{})

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
