package model

import "github.com/google/uuid"

const TopicBirthday = "birthday"

type NotificationTopic struct {
	Base
	Name        string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:varchar(200)" json:"description"`
}

type NotificationSubscription struct {
	Base
	TopicID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_topic_user" json:"topic_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_topic_user" json:"user_id"`
}

type Notification struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Topic  string    `gorm:"type:varchar(50);not null" json:"topic"`
	Title  string    `gorm:"type:varchar(200);not null" json:"title"`
	Body   string    `gorm:"type:text" json:"body"`
	IsRead bool      `gorm:"not null" json:"is_read"`
}
