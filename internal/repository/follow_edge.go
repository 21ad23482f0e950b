package repository

import (
	"context"
	"errors"

	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/pkg/cursor"
	"github.com/pacelog/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// FollowListFilter selects one page of a keyset-paginated edge listing. A
// zero After key starts from the newest edge.
type FollowListFilter struct {
	UserID string
	State  entity.FollowEdgeState
	After  cursor.Key
	Limit  int
}

type FollowEdgeRepository interface {
	Create(ctx context.Context, data *entity.FollowEdge) error
	Get(ctx context.Context, followerID, followeeID string) (*entity.FollowEdge, error)
	Delete(ctx context.Context, followerID, followeeID string, state entity.FollowEdgeState) error
	UpdateState(ctx context.Context, followerID, followeeID string, from, to entity.FollowEdgeState) error
	GetFollowers(ctx context.Context, filter FollowListFilter) ([]entity.FollowEdge, error)
	GetFollowing(ctx context.Context, filter FollowListFilter) ([]entity.FollowEdge, error)
	GetActiveIn(ctx context.Context, followerID string, followeeIDs []string) ([]entity.FollowEdge, error)
	GetRelations(ctx context.Context, userID string, otherIDs []string) ([]entity.FollowEdge, error)
	CountActiveFollowers(ctx context.Context, userID string) (int64, error)
	CountActiveFollowing(ctx context.Context, userID string) (int64, error)
}

type followEdgeRepository struct{}

func NewFollowEdgeRepository() *followEdgeRepository {
	return &followEdgeRepository{}
}

func (r *followEdgeRepository) Create(ctx context.Context, data *entity.FollowEdge) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *followEdgeRepository) Get(
	ctx context.Context, followerID, followeeID string,
) (*entity.FollowEdge, error) {
	var result entity.FollowEdge
	err := xcontext.DB(ctx).
		Where("follower_id=? AND followee_id=?", followerID, followeeID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *followEdgeRepository) Delete(
	ctx context.Context, followerID, followeeID string, state entity.FollowEdgeState,
) error {
	tx := xcontext.DB(ctx).
		Where("follower_id=? AND followee_id=? AND state=?", followerID, followeeID, state).
		Delete(&entity.FollowEdge{})

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

func (r *followEdgeRepository) UpdateState(
	ctx context.Context, followerID, followeeID string, from, to entity.FollowEdgeState,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.FollowEdge{}).
		Where("follower_id=? AND followee_id=? AND state=?", followerID, followeeID, from).
		Update("state", to)

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

// GetFollowers lists edges pointing at the user, newest first. Rows are
// returned strictly after the filter's keyset position, so a page fetched
// with the previous page's last row as cursor never repeats or skips rows
// even when new edges are inserted in between.
func (r *followEdgeRepository) GetFollowers(
	ctx context.Context, filter FollowListFilter,
) ([]entity.FollowEdge, error) {
	tx := xcontext.DB(ctx).
		Where("followee_id=? AND state=?", filter.UserID, filter.State).
		Order("created_at DESC, follower_id DESC").
		Limit(filter.Limit)

	if !filter.After.IsZero() {
		tx = tx.Where(
			"created_at < ? OR (created_at = ? AND follower_id < ?)",
			filter.After.CreatedAt, filter.After.CreatedAt, filter.After.UserID,
		)
	}

	var result []entity.FollowEdge
	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *followEdgeRepository) GetFollowing(
	ctx context.Context, filter FollowListFilter,
) ([]entity.FollowEdge, error) {
	tx := xcontext.DB(ctx).
		Where("follower_id=? AND state=?", filter.UserID, filter.State).
		Order("created_at DESC, followee_id DESC").
		Limit(filter.Limit)

	if !filter.After.IsZero() {
		tx = tx.Where(
			"created_at < ? OR (created_at = ? AND followee_id < ?)",
			filter.After.CreatedAt, filter.After.CreatedAt, filter.After.UserID,
		)
	}

	var result []entity.FollowEdge
	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// GetActiveIn returns the subset of followeeIDs the user actively follows.
func (r *followEdgeRepository) GetActiveIn(
	ctx context.Context, followerID string, followeeIDs []string,
) ([]entity.FollowEdge, error) {
	var result []entity.FollowEdge
	err := xcontext.DB(ctx).
		Where("follower_id=? AND state=? AND followee_id IN (?)",
			followerID, entity.FollowActive, followeeIDs).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetRelations returns every edge between the user and the given ids, in
// both directions.
func (r *followEdgeRepository) GetRelations(
	ctx context.Context, userID string, otherIDs []string,
) ([]entity.FollowEdge, error) {
	var result []entity.FollowEdge
	err := xcontext.DB(ctx).
		Where("(follower_id=? AND followee_id IN (?)) OR (followee_id=? AND follower_id IN (?))",
			userID, otherIDs, userID, otherIDs).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *followEdgeRepository) CountActiveFollowers(
	ctx context.Context, userID string,
) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.FollowEdge{}).
		Where("followee_id=? AND state=?", userID, entity.FollowActive).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *followEdgeRepository) CountActiveFollowing(
	ctx context.Context, userID string,
) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.FollowEdge{}).
		Where("follower_id=? AND state=?", userID, entity.FollowActive).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
