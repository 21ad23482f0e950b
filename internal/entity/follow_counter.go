package entity

import "time"

// FollowCounter is the denormalized follower/following aggregate of one
// user. It is mutated only with atomic column expressions and periodically
// overwritten by reconciliation, so short-term drift is tolerated.
type FollowCounter struct {
	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	UpdatedAt time.Time

	FollowersCount int64
	FollowingCount int64
}
