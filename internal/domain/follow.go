package domain

import (
	"context"
	"errors"
	"time"

	"github.com/pacelog/backend/internal/common"
	"github.com/pacelog/backend/internal/domain/notification/engine"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/cursor"
	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/pacelog/backend/pkg/xredis"
	"gorm.io/gorm"
)

type FollowDomain interface {
	Follow(context.Context, *model.FollowUserRequest) (*model.FollowUserResponse, error)
	Unfollow(context.Context, *model.UnfollowUserRequest) (*model.UnfollowUserResponse, error)
	CancelRequest(context.Context, *model.CancelFollowRequestRequest) (*model.CancelFollowRequestResponse, error)
	AcceptRequest(context.Context, *model.AcceptFollowRequestRequest) (*model.AcceptFollowRequestResponse, error)
	DeclineRequest(context.Context, *model.DeclineFollowRequestRequest) (*model.DeclineFollowRequestResponse, error)
	RemoveFollower(context.Context, *model.RemoveFollowerRequest) (*model.RemoveFollowerResponse, error)
	GetFollowers(context.Context, *model.GetFollowersRequest) (*model.GetFollowersResponse, error)
	GetFollowing(context.Context, *model.GetFollowingRequest) (*model.GetFollowingResponse, error)
	GetFollowRequests(context.Context, *model.GetFollowRequestsRequest) (*model.GetFollowRequestsResponse, error)
	GetMutuals(context.Context, *model.GetMutualsRequest) (*model.GetMutualsResponse, error)
	GetRelationships(context.Context, *model.GetRelationshipsRequest) (*model.GetRelationshipsResponse, error)
	ReconcileCounters(context.Context, *model.ReconcileCountersRequest) (*model.ReconcileCountersResponse, error)
}

type followDomain struct {
	followEdgeRepo     repository.FollowEdgeRepository
	followCounterRepo  repository.FollowCounterRepository
	userRepo           repository.UserRepository
	notificationEngine engine.Engine
	redisClient        xredis.Client
}

func NewFollowDomain(
	followEdgeRepo repository.FollowEdgeRepository,
	followCounterRepo repository.FollowCounterRepository,
	userRepo repository.UserRepository,
	notificationEngine engine.Engine,
	redisClient xredis.Client,
) *followDomain {
	return &followDomain{
		followEdgeRepo:     followEdgeRepo,
		followCounterRepo:  followCounterRepo,
		userRepo:           userRepo,
		notificationEngine: notificationEngine,
		redisClient:        redisClient,
	}
}

func (d *followDomain) Follow(
	ctx context.Context, req *model.FollowUserRequest,
) (*model.FollowUserResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty user id")
	}

	actorID := xcontext.RequestUserID(ctx)
	if actorID == req.UserID {
		return nil, errorx.New(errorx.SelfFollow, "Cannot follow yourself")
	}

	target, err := d.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	// Repeating a follow returns the existing state without side effects.
	if edge, err := d.followEdgeRepo.Get(ctx, actorID, req.UserID); err == nil {
		return &model.FollowUserResponse{Action: followAction(edge.State)}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get follow edge: %v", err)
		return nil, errorx.Unknown
	}

	followCfg := xcontext.Configs(ctx).Follow
	counter, err := d.followCounterRepo.Get(ctx, actorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get follow counter: %v", err)
		return nil, errorx.Unknown
	}

	if counter != nil && counter.FollowingCount >= int64(followCfg.MaxFollowing) {
		return nil, errorx.New(errorx.FollowLimitExceeded,
			"Cannot follow more than %d accounts", followCfg.MaxFollowing)
	}

	if err := d.checkDailyQuota(ctx, actorID); err != nil {
		return nil, err
	}

	if target.IsPrivate {
		if err := d.createEdge(ctx, actorID, req.UserID, entity.FollowPending); err != nil {
			return nil, err
		}

		d.notify(ctx, req.UserID, entity.FollowRequestNotification, actorID)
		return &model.FollowUserResponse{Action: model.FollowActionRequested}, nil
	}

	err = xcontext.WithDBTransaction(ctx, func(ctx context.Context) error {
		if err := d.createEdge(ctx, actorID, req.UserID, entity.FollowActive); err != nil {
			return err
		}

		if err := d.followCounterRepo.Increase(ctx, req.UserID, 1, 0); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot increase followers counter: %v", err)
			return errorx.Unknown
		}

		if err := d.followCounterRepo.Increase(ctx, actorID, 0, 1); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot increase following counter: %v", err)
			return errorx.Unknown
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	d.notify(ctx, req.UserID, entity.NewFollowerNotification, actorID)
	return &model.FollowUserResponse{Action: model.FollowActionFollowed}, nil
}

// createEdge inserts the edge, treating a lost race against a concurrent
// identical request as an error so the unique constraint keeps counters
// from double counting.
func (d *followDomain) createEdge(
	ctx context.Context, followerID, followeeID string, state entity.FollowEdgeState,
) error {
	err := d.followEdgeRepo.Create(ctx, &entity.FollowEdge{
		FollowerID: followerID,
		FolloweeID: followeeID,
		State:      state,
	})
	if err != nil {
		if _, gerr := d.followEdgeRepo.Get(ctx, followerID, followeeID); gerr == nil {
			return errorx.New(errorx.AlreadyExists, "You already follow this user")
		}

		xcontext.Logger(ctx).Errorf("Cannot create follow edge: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (d *followDomain) checkDailyQuota(ctx context.Context, actorID string) error {
	followCfg := xcontext.Configs(ctx).Follow
	if followCfg.DailyLimit <= 0 {
		return nil
	}

	key := common.RedisKeyFollowQuota(actorID, time.Now())
	n, err := d.redisClient.IncrWithExpiry(ctx, key, 24*time.Hour)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot track follow quota: %v", err)
		return nil
	}

	if n > int64(followCfg.DailyLimit) {
		return errorx.New(errorx.DailyLimitExceeded,
			"Cannot follow more than %d accounts in a day", followCfg.DailyLimit)
	}

	return nil
}

func (d *followDomain) Unfollow(
	ctx context.Context, req *model.UnfollowUserRequest,
) (*model.UnfollowUserResponse, error) {
	actorID := xcontext.RequestUserID(ctx)
	err := xcontext.WithDBTransaction(ctx, func(ctx context.Context) error {
		return d.removeActiveEdge(ctx, actorID, req.UserID)
	})
	if err != nil {
		return nil, err
	}

	return &model.UnfollowUserResponse{}, nil
}

// removeActiveEdge deletes an active edge and decrements both counters. It
// must run inside a transaction.
func (d *followDomain) removeActiveEdge(ctx context.Context, followerID, followeeID string) error {
	if err := d.followEdgeRepo.Delete(ctx, followerID, followeeID, entity.FollowActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFollowing, "There is no active follow for this user")
		}

		xcontext.Logger(ctx).Errorf("Cannot delete follow edge: %v", err)
		return errorx.Unknown
	}

	if err := d.followCounterRepo.Increase(ctx, followeeID, -1, 0); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decrease followers counter: %v", err)
		return errorx.Unknown
	}

	if err := d.followCounterRepo.Increase(ctx, followerID, 0, -1); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decrease following counter: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (d *followDomain) CancelRequest(
	ctx context.Context, req *model.CancelFollowRequestRequest,
) (*model.CancelFollowRequestResponse, error) {
	actorID := xcontext.RequestUserID(ctx)
	err := d.followEdgeRepo.Delete(ctx, actorID, req.UserID, entity.FollowPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NoFollowRequest, "There is no follow request for this user")
		}

		xcontext.Logger(ctx).Errorf("Cannot delete follow request: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CancelFollowRequestResponse{}, nil
}

func (d *followDomain) AcceptRequest(
	ctx context.Context, req *model.AcceptFollowRequestRequest,
) (*model.AcceptFollowRequestResponse, error) {
	recipientID := xcontext.RequestUserID(ctx)
	err := xcontext.WithDBTransaction(ctx, func(ctx context.Context) error {
		err := d.followEdgeRepo.UpdateState(
			ctx, req.UserID, recipientID, entity.FollowPending, entity.FollowActive)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorx.New(errorx.NoFollowRequest, "There is no follow request from this user")
			}

			xcontext.Logger(ctx).Errorf("Cannot activate follow edge: %v", err)
			return errorx.Unknown
		}

		if err := d.followCounterRepo.Increase(ctx, recipientID, 1, 0); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot increase followers counter: %v", err)
			return errorx.Unknown
		}

		if err := d.followCounterRepo.Increase(ctx, req.UserID, 0, 1); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot increase following counter: %v", err)
			return errorx.Unknown
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	d.notify(ctx, req.UserID, entity.FollowAcceptedNotification, recipientID)
	return &model.AcceptFollowRequestResponse{}, nil
}

func (d *followDomain) DeclineRequest(
	ctx context.Context, req *model.DeclineFollowRequestRequest,
) (*model.DeclineFollowRequestResponse, error) {
	recipientID := xcontext.RequestUserID(ctx)
	err := d.followEdgeRepo.Delete(ctx, req.UserID, recipientID, entity.FollowPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NoFollowRequest, "There is no follow request from this user")
		}

		xcontext.Logger(ctx).Errorf("Cannot delete follow request: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DeclineFollowRequestResponse{}, nil
}

func (d *followDomain) RemoveFollower(
	ctx context.Context, req *model.RemoveFollowerRequest,
) (*model.RemoveFollowerResponse, error) {
	actorID := xcontext.RequestUserID(ctx)
	err := xcontext.WithDBTransaction(ctx, func(ctx context.Context) error {
		return d.removeActiveEdge(ctx, req.UserID, actorID)
	})
	if err != nil {
		return nil, err
	}

	return &model.RemoveFollowerResponse{}, nil
}

func (d *followDomain) GetFollowers(
	ctx context.Context, req *model.GetFollowersRequest,
) (*model.GetFollowersResponse, error) {
	target, limit, err := d.prepareListing(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, err
	}

	edges, err := d.followEdgeRepo.GetFollowers(ctx, repository.FollowListFilter{
		UserID: target.ID,
		State:  entity.FollowActive,
		After:  cursor.Decode(req.Cursor),
		Limit:  limit,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get followers: %v", err)
		return nil, errorx.Unknown
	}

	followers, err := d.convertEdges(ctx, edges, func(e entity.FollowEdge) string {
		return e.FollowerID
	})
	if err != nil {
		return nil, err
	}

	resp := &model.GetFollowersResponse{Followers: followers}
	if len(edges) == limit {
		last := edges[len(edges)-1]
		resp.NextCursor = cursor.Encode(cursor.Key{
			CreatedAt: last.CreatedAt,
			UserID:    last.FollowerID,
		})
	}

	return resp, nil
}

func (d *followDomain) GetFollowing(
	ctx context.Context, req *model.GetFollowingRequest,
) (*model.GetFollowingResponse, error) {
	target, limit, err := d.prepareListing(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, err
	}

	edges, err := d.followEdgeRepo.GetFollowing(ctx, repository.FollowListFilter{
		UserID: target.ID,
		State:  entity.FollowActive,
		After:  cursor.Decode(req.Cursor),
		Limit:  limit,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get following: %v", err)
		return nil, errorx.Unknown
	}

	following, err := d.convertEdges(ctx, edges, func(e entity.FollowEdge) string {
		return e.FolloweeID
	})
	if err != nil {
		return nil, err
	}

	resp := &model.GetFollowingResponse{Following: following}
	if len(edges) == limit {
		last := edges[len(edges)-1]
		resp.NextCursor = cursor.Encode(cursor.Key{
			CreatedAt: last.CreatedAt,
			UserID:    last.FolloweeID,
		})
	}

	return resp, nil
}

// GetFollowRequests lists incoming pending requests. Only the account owner
// can see their own requests, so no privacy gate is involved.
func (d *followDomain) GetFollowRequests(
	ctx context.Context, req *model.GetFollowRequestsRequest,
) (*model.GetFollowRequestsResponse, error) {
	limit, err := clampLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	edges, err := d.followEdgeRepo.GetFollowers(ctx, repository.FollowListFilter{
		UserID: xcontext.RequestUserID(ctx),
		State:  entity.FollowPending,
		After:  cursor.Decode(req.Cursor),
		Limit:  limit,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get follow requests: %v", err)
		return nil, errorx.Unknown
	}

	requests, err := d.convertEdges(ctx, edges, func(e entity.FollowEdge) string {
		return e.FollowerID
	})
	if err != nil {
		return nil, err
	}

	resp := &model.GetFollowRequestsResponse{Requests: requests}
	if len(edges) == limit {
		last := edges[len(edges)-1]
		resp.NextCursor = cursor.Encode(cursor.Key{
			CreatedAt: last.CreatedAt,
			UserID:    last.FollowerID,
		})
	}

	return resp, nil
}

// GetMutuals intersects the viewer's following set with the target's
// followers, one follower page at a time, so the per-request cost stays
// bounded by the page size. Pages can come back sparse; the cursor always
// advances along the target's follower listing.
func (d *followDomain) GetMutuals(
	ctx context.Context, req *model.GetMutualsRequest,
) (*model.GetMutualsResponse, error) {
	target, limit, err := d.prepareListing(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, err
	}

	edges, err := d.followEdgeRepo.GetFollowers(ctx, repository.FollowListFilter{
		UserID: target.ID,
		State:  entity.FollowActive,
		After:  cursor.Decode(req.Cursor),
		Limit:  limit,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get followers: %v", err)
		return nil, errorx.Unknown
	}

	followerIDs := []string{}
	for _, e := range edges {
		followerIDs = append(followerIDs, e.FollowerID)
	}

	mutualEdges := []entity.FollowEdge{}
	if len(followerIDs) > 0 {
		viewerID := xcontext.RequestUserID(ctx)
		viewerFollowing, err := d.followEdgeRepo.GetActiveIn(ctx, viewerID, followerIDs)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot intersect following set: %v", err)
			return nil, errorx.Unknown
		}

		followingSet := map[string]bool{}
		for _, e := range viewerFollowing {
			followingSet[e.FolloweeID] = true
		}

		for _, e := range edges {
			if followingSet[e.FollowerID] {
				mutualEdges = append(mutualEdges, e)
			}
		}
	}

	mutuals, err := d.convertEdges(ctx, mutualEdges, func(e entity.FollowEdge) string {
		return e.FollowerID
	})
	if err != nil {
		return nil, err
	}

	resp := &model.GetMutualsResponse{Mutuals: mutuals}
	if len(edges) == limit {
		last := edges[len(edges)-1]
		resp.NextCursor = cursor.Encode(cursor.Key{
			CreatedAt: last.CreatedAt,
			UserID:    last.FollowerID,
		})
	}

	return resp, nil
}

func (d *followDomain) GetRelationships(
	ctx context.Context, req *model.GetRelationshipsRequest,
) (*model.GetRelationshipsResponse, error) {
	viewerID := xcontext.RequestUserID(ctx)

	ids := req.UserIDs
	maxBatch := xcontext.Configs(ctx).Follow.MaxLookupBatch
	if maxBatch > 0 && len(ids) > maxBatch {
		ids = ids[:maxBatch]
	}

	resp := &model.GetRelationshipsResponse{Relationships: map[string]string{}}
	if len(ids) == 0 {
		return resp, nil
	}

	edges, err := d.followEdgeRepo.GetRelations(ctx, viewerID, ids)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get relations: %v", err)
		return nil, errorx.Unknown
	}

	outgoing := map[string]entity.FollowEdgeState{}
	incoming := map[string]entity.FollowEdgeState{}
	for _, e := range edges {
		if e.FollowerID == viewerID {
			outgoing[e.FolloweeID] = e.State
		} else {
			incoming[e.FollowerID] = e.State
		}
	}

	for _, id := range ids {
		switch {
		case outgoing[id] == entity.FollowActive && incoming[id] == entity.FollowActive:
			resp.Relationships[id] = model.RelationshipMutual
		case outgoing[id] == entity.FollowActive:
			resp.Relationships[id] = model.RelationshipFollowing
		case outgoing[id] == entity.FollowPending:
			resp.Relationships[id] = model.RelationshipRequested
		case incoming[id] == entity.FollowPending:
			resp.Relationships[id] = model.RelationshipIncomingRequest
		default:
			resp.Relationships[id] = model.RelationshipNone
		}
	}

	return resp, nil
}

// ReconcileCounters recomputes both counters from edge rows and overwrites
// the stored values. It is idempotent and safe to run concurrently with
// live mutations; any increment racing the overwrite is fixed by the next
// pass.
func (d *followDomain) ReconcileCounters(
	ctx context.Context, req *model.ReconcileCountersRequest,
) (*model.ReconcileCountersResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	followers, err := d.followEdgeRepo.CountActiveFollowers(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count followers: %v", err)
		return nil, errorx.Unknown
	}

	following, err := d.followEdgeRepo.CountActiveFollowing(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count following: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.followCounterRepo.Overwrite(ctx, userID, followers, following); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot overwrite counters: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ReconcileCountersResponse{
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

// prepareListing resolves the target (defaulting to the viewer), applies
// the privacy gate, and clamps the page size.
func (d *followDomain) prepareListing(
	ctx context.Context, targetID string, limit int,
) (*entity.User, int, error) {
	viewerID := xcontext.RequestUserID(ctx)
	if targetID == "" {
		targetID = viewerID
	}

	target, err := d.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, 0, errorx.Unknown
	}

	if target.IsPrivate && viewerID != target.ID {
		edge, err := d.followEdgeRepo.Get(ctx, viewerID, target.ID)
		if err != nil || edge.State != entity.FollowActive {
			return nil, 0, errorx.New(errorx.AccountPrivate, "This account is private")
		}
	}

	clamped, err := clampLimit(ctx, limit)
	if err != nil {
		return nil, 0, err
	}

	return target, clamped, nil
}

func clampLimit(ctx context.Context, limit int) (int, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if limit == 0 {
		return apiCfg.DefaultLimit, nil
	}

	if limit < 0 {
		return 0, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if limit > apiCfg.MaxLimit {
		return 0, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	return limit, nil
}

func (d *followDomain) convertEdges(
	ctx context.Context, edges []entity.FollowEdge, userIDOf func(entity.FollowEdge) string,
) ([]model.FollowEdge, error) {
	userIDs := []string{}
	for _, e := range edges {
		userIDs = append(userIDs, userIDOf(e))
	}

	userMap := map[string]*entity.User{}
	if len(userIDs) > 0 {
		users, err := d.userRepo.GetByIDs(ctx, userIDs)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get users: %v", err)
			return nil, errorx.Unknown
		}

		for i := range users {
			userMap[users[i].ID] = &users[i]
		}
	}

	result := []model.FollowEdge{}
	for i := range edges {
		result = append(result, model.ConvertFollowEdge(&edges[i], userMap[userIDOf(edges[i])]))
	}

	return result, nil
}

// notify reports the domain event to the notification engine. A failure
// there never fails the follow operation that triggered it.
func (d *followDomain) notify(
	ctx context.Context, recipientID string, typ entity.NotificationType, actorID string,
) {
	err := d.notificationEngine.Notify(ctx, recipientID, typ, actorID, nil, actorID, 0)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify %s to %s: %v", typ, recipientID, err)
	}
}

func followAction(state entity.FollowEdgeState) string {
	if state == entity.FollowPending {
		return model.FollowActionRequested
	}

	return model.FollowActionFollowed
}
