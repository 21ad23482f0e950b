package repository

import (
	"context"

	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowCounterRepository interface {
	Get(ctx context.Context, userID string) (*entity.FollowCounter, error)

	// Increase atomically applies the deltas, creating the counter row on
	// first use.
	Increase(ctx context.Context, userID string, followersDelta, followingDelta int64) error

	// Overwrite replaces both counters with recomputed values. Last writer
	// wins; a concurrent increment lost to the overwrite is corrected by
	// the next reconciliation pass.
	Overwrite(ctx context.Context, userID string, followers, following int64) error
}

type followCounterRepository struct{}

func NewFollowCounterRepository() *followCounterRepository {
	return &followCounterRepository{}
}

func (r *followCounterRepository) Get(
	ctx context.Context, userID string,
) (*entity.FollowCounter, error) {
	var result entity.FollowCounter
	if err := xcontext.DB(ctx).Take(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *followCounterRepository) Increase(
	ctx context.Context, userID string, followersDelta, followingDelta int64,
) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"followers_count": gorm.Expr("followers_count + ?", followersDelta),
				"following_count": gorm.Expr("following_count + ?", followingDelta),
			}),
		}).
		Create(&entity.FollowCounter{
			UserID:         userID,
			FollowersCount: followersDelta,
			FollowingCount: followingDelta,
		}).Error
}

func (r *followCounterRepository) Overwrite(
	ctx context.Context, userID string, followers, following int64,
) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"followers_count": followers,
				"following_count": following,
			}),
		}).
		Create(&entity.FollowCounter{
			UserID:         userID,
			FollowersCount: followers,
			FollowingCount: following,
		}).Error
}
