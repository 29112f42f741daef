package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) TopicByName(ctx context.Context, name string) (*model.NotificationTopic, error) {
	var topic model.NotificationTopic
	if err := r.db.WithContext(ctx).First(&topic, "name = ?", name).Error; err != nil {
		return nil, notFound(err)
	}
	return &topic, nil
}

func (r *NotificationRepository) SubscriberIDs(ctx context.Context, topicID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.NotificationSubscription{}).
		Where("topic_id = ?", topicID).
		Order("created_at").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *NotificationRepository) Create(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	var rows []model.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
