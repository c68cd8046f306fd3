package models

import (
	"time"
)

// PushToken is an FCM device registration for a user. Tokens are unique
// across users; re-registering on another account moves the token.
type PushToken struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Token     string    `gorm:"column:token;type:text;not null;uniqueIndex"`
	Platform  *string   `gorm:"column:platform;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
