package entity

import (
	"time"

	"github.com/pacelog/backend/pkg/enum"
)

type FollowEdgeState string

var (
	// FollowPending is a follow request waiting for a private account's
	// approval. Pending edges do not count toward either counter.
	FollowPending = enum.New(FollowEdgeState("pending"))
	FollowActive  = enum.New(FollowEdgeState("active"))
)

// FollowEdge is a directed follow relationship. The composite primary key
// guarantees at most one edge per ordered pair; an unfollow, cancel, or
// decline removes the row entirely instead of marking it terminal.
type FollowEdge struct {
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	FollowerID string `gorm:"primaryKey"`
	Follower   User   `gorm:"foreignKey:FollowerID"`

	FolloweeID string `gorm:"primaryKey"`
	Followee   User   `gorm:"foreignKey:FolloweeID"`

	State FollowEdgeState
}
