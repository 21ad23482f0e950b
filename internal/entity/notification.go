package entity

import (
	"database/sql"

	"github.com/pacelog/backend/pkg/enum"
)

type NotificationType string

var (
	FollowRequestNotification  = enum.New(NotificationType("follow_request"))
	NewFollowerNotification    = enum.New(NotificationType("new_follower"))
	FollowAcceptedNotification = enum.New(NotificationType("follow_accepted"))
	ActivityLikedNotification  = enum.New(NotificationType("activity_liked"))
	BadgeEarnedNotification    = enum.New(NotificationType("badge_earned"))
)

// Notification ids are snowflakes, so ordering by id is ordering by creation
// time.
type Notification struct {
	SnowFlakeBase

	RecipientID string `gorm:"index"`
	Recipient   User   `gorm:"foreignKey:RecipientID"`

	Type    NotificationType
	ActorID sql.NullString
	Payload Map
	ReadAt  sql.NullTime
}
