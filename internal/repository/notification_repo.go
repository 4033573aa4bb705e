package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, list []model.Notification) error
	ListForRecipient(ctx context.Context, recipientCode uint, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, recipientCode uint) error
	CountUnread(ctx context.Context, recipientCode uint) (int64, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) CreateBatch(ctx context.Context, list []model.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&list, 200).Error
}

func (r *notificationRepo) ListForRecipient(ctx context.Context, recipientCode uint, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).Where("recipient_code = ?", recipientCode).
		Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, recipientCode uint) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_code = ? AND is_read = ?", recipientCode, false).
		Update("is_read", true).Error
}

func (r *notificationRepo) CountUnread(ctx context.Context, recipientCode uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_code = ? AND is_read = ?", recipientCode, false).
		Count(&n).Error
	return n, err
}
