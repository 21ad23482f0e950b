package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/pacelog/backend/internal/domain/notification/engine"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/testutil"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestFollowDomain(t *testing.T) (*followDomain, repository.NotificationRepository) {
	redisClient := testutil.NewRedisClient(t)
	notificationRepo := repository.NewNotificationRepository()
	userRepo := repository.NewUserRepository()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notificationEngine := engine.NewEngine(
		notificationRepo, userRepo, redisClient, &testutil.MockPublisher{}, nil, node)

	d := NewFollowDomain(
		repository.NewFollowEdgeRepository(),
		repository.NewFollowCounterRepository(),
		userRepo,
		notificationEngine,
		redisClient,
	)

	return d, notificationRepo
}

func Test_followDomain_Follow_public(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, notificationRepo := newTestFollowDomain(t)

	resp, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)
	require.Equal(t, model.FollowActionFollowed, resp.Action)

	// Both counters move in the same operation.
	counter, err := d.followCounterRepo.Get(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.FollowersCount)

	counter, err = d.followCounterRepo.Get(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.FollowingCount)

	// Repeating the follow changes nothing.
	resp, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)
	require.Equal(t, model.FollowActionFollowed, resp.Action)

	counter, err = d.followCounterRepo.Get(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.FollowersCount)

	// The followee got exactly one new follower notification.
	notifications, err := notificationRepo.GetList(ctx, testutil.User2.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, entity.NewFollowerNotification, notifications[0].Type)
}

func Test_followDomain_Follow_errors(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	_, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User1.ID})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.SelfFollow, "Cannot follow yourself"), err)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: "no-such-user"})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.NotFound, "Not found user"), err)

	_, err = d.Follow(ctx, &model.FollowUserRequest{})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.BadRequest, "Not allow empty user id"), err)
}

func Test_followDomain_Follow_limits(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	cfg := xcontext.Configs(ctx)
	cfg.Follow.DailyLimit = 1
	ctx = xcontext.WithConfigs(ctx, cfg)

	_, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.Error(t, err)
	require.Equal(t, errorx.DailyLimitExceeded, err.(errorx.Error).Code)

	cfg.Follow.DailyLimit = 0
	cfg.Follow.MaxFollowing = 1
	ctx = xcontext.WithConfigs(ctx, cfg)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.Error(t, err)
	require.Equal(t, errorx.FollowLimitExceeded, err.(errorx.Error).Code)
}

func Test_followDomain_private_account_flow(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, notificationRepo := newTestFollowDomain(t)

	// Following a private account only creates a request.
	resp, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)
	require.Equal(t, model.FollowActionRequested, resp.Action)

	_, err = d.followCounterRepo.Get(ctx, testutil.User3.ID)
	require.Error(t, err)

	notifications, err := notificationRepo.GetList(ctx, testutil.User3.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, entity.FollowRequestNotification, notifications[0].Type)

	// The owner sees the incoming request.
	ownerCtx := xcontext.WithRequestUserID(ctx, testutil.User3.ID)
	requests, err := d.GetFollowRequests(ownerCtx, &model.GetFollowRequestsRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, requests.Requests, 1)
	require.Equal(t, testutil.User1.ID, requests.Requests[0].User.ID)

	// Accepting activates the edge and both counters.
	_, err = d.AcceptRequest(ownerCtx, &model.AcceptFollowRequestRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	counter, err := d.followCounterRepo.Get(ctx, testutil.User3.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.FollowersCount)

	edge, err := d.followEdgeRepo.Get(ctx, testutil.User1.ID, testutil.User3.ID)
	require.NoError(t, err)
	require.Equal(t, entity.FollowActive, edge.State)

	// The requester is told about the acceptance.
	notifications, err = notificationRepo.GetList(ctx, testutil.User1.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, entity.FollowAcceptedNotification, notifications[0].Type)

	// Accepting again fails, the request is gone.
	_, err = d.AcceptRequest(ownerCtx, &model.AcceptFollowRequestRequest{UserID: testutil.User1.ID})
	require.Error(t, err)
	require.Equal(t, errorx.NoFollowRequest, err.(errorx.Error).Code)
}

func Test_followDomain_cancel_and_decline(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	_, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)

	_, err = d.CancelRequest(ctx, &model.CancelFollowRequestRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)

	_, err = d.CancelRequest(ctx, &model.CancelFollowRequestRequest{UserID: testutil.User3.ID})
	require.Error(t, err)
	require.Equal(t, errorx.NoFollowRequest, err.(errorx.Error).Code)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)

	ownerCtx := xcontext.WithRequestUserID(ctx, testutil.User3.ID)
	_, err = d.DeclineRequest(ownerCtx, &model.DeclineFollowRequestRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	// A declined request leaves no edge behind; the user can ask again.
	_, err = d.followEdgeRepo.Get(ctx, testutil.User1.ID, testutil.User3.ID)
	require.Error(t, err)
}

func Test_followDomain_Unfollow_and_RemoveFollower(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	_, err := d.Unfollow(ctx, &model.UnfollowUserRequest{UserID: testutil.User2.ID})
	require.Error(t, err)
	require.Equal(t, errorx.NotFollowing, err.(errorx.Error).Code)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	_, err = d.Unfollow(ctx, &model.UnfollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	counter, err := d.followCounterRepo.Get(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), counter.FollowersCount)

	// The followee can also break the edge from their side.
	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	followeeCtx := xcontext.WithRequestUserID(ctx, testutil.User2.ID)
	_, err = d.RemoveFollower(followeeCtx, &model.RemoveFollowerRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	counter, err = d.followCounterRepo.Get(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), counter.FollowingCount)
}

func Test_followDomain_GetFollowers_privacy(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	// A stranger cannot list a private account.
	_, err := d.GetFollowers(ctx, &model.GetFollowersRequest{UserID: testutil.User3.ID, Limit: 10})
	require.Error(t, err)
	require.Equal(t, errorx.AccountPrivate, err.(errorx.Error).Code)

	// An accepted follower can.
	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)

	ownerCtx := xcontext.WithRequestUserID(ctx, testutil.User3.ID)
	_, err = d.AcceptRequest(ownerCtx, &model.AcceptFollowRequestRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	followers, err := d.GetFollowers(ctx, &model.GetFollowersRequest{UserID: testutil.User3.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, followers.Followers, 1)
	require.Equal(t, testutil.User1.ID, followers.Followers[0].User.ID)

	// The owner always can.
	_, err = d.GetFollowers(ownerCtx, &model.GetFollowersRequest{Limit: 10})
	require.NoError(t, err)

	// A limit above the configured maximum is rejected.
	_, err = d.GetFollowers(ctx, &model.GetFollowersRequest{UserID: testutil.User2.ID, Limit: 1000})
	require.Error(t, err)
	require.Equal(t, errorx.BadRequest, err.(errorx.Error).Code)
}

func Test_followDomain_GetRelationships(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	// user1 -> user2 active, user1 -> user3 pending, user2 -> user1 active.
	_, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)

	user2Ctx := xcontext.WithRequestUserID(ctx, testutil.User2.ID)
	_, err = d.Follow(user2Ctx, &model.FollowUserRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	resp, err := d.GetRelationships(ctx, &model.GetRelationshipsRequest{
		UserIDs: []string{testutil.User2.ID, testutil.User3.ID, "no-such-user"},
	})
	require.NoError(t, err)
	require.Equal(t, model.RelationshipMutual, resp.Relationships[testutil.User2.ID])
	require.Equal(t, model.RelationshipRequested, resp.Relationships[testutil.User3.ID])
	require.Equal(t, model.RelationshipNone, resp.Relationships["no-such-user"])

	resp, err = d.GetRelationships(user2Ctx, &model.GetRelationshipsRequest{
		UserIDs: []string{testutil.User1.ID},
	})
	require.NoError(t, err)
	require.Equal(t, model.RelationshipMutual, resp.Relationships[testutil.User1.ID])

	user3Ctx := xcontext.WithRequestUserID(ctx, testutil.User3.ID)
	resp, err = d.GetRelationships(user3Ctx, &model.GetRelationshipsRequest{
		UserIDs: []string{testutil.User1.ID},
	})
	require.NoError(t, err)
	require.Equal(t, model.RelationshipIncomingRequest, resp.Relationships[testutil.User1.ID])
}

func Test_followDomain_GetMutuals(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	// user1 and user3 both follow user2; user1 follows user3. So of user2's
	// followers, user3 is the one user1 also follows.
	_, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	user3Ctx := xcontext.WithRequestUserID(ctx, testutil.User3.ID)
	_, err = d.Follow(user3Ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	_, err = d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User3.ID})
	require.NoError(t, err)

	ownerCtx := xcontext.WithRequestUserID(ctx, testutil.User3.ID)
	_, err = d.AcceptRequest(ownerCtx, &model.AcceptFollowRequestRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	resp, err := d.GetMutuals(ctx, &model.GetMutualsRequest{UserID: testutil.User2.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Mutuals, 1)
	require.Equal(t, testutil.User3.ID, resp.Mutuals[0].User.ID)
	require.Empty(t, resp.NextCursor)
}

func Test_followDomain_ReconcileCounters(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)
	d, _ := newTestFollowDomain(t)

	_, err := d.Follow(ctx, &model.FollowUserRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)

	// Drift the counter on purpose; reconciliation must restore the truth.
	require.NoError(t, d.followCounterRepo.Overwrite(ctx, testutil.User2.ID, 42, 7))

	resp, err := d.ReconcileCounters(ctx, &model.ReconcileCountersRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.FollowersCount)
	require.Equal(t, int64(0), resp.FollowingCount)

	counter, err := d.followCounterRepo.Get(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.FollowersCount)
	require.Equal(t, int64(0), counter.FollowingCount)
}
