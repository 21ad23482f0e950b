package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/pacelog/backend/pkg/testutil"
	"github.com/pacelog/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func Test_notificationEngine_Notify_dedupe(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	mr := miniredis.RunT(t)
	redisClient := xredis.NewClientWith(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	notificationRepo := repository.NewNotificationRepository()
	publisher := &testutil.MockPublisher{}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	e := NewEngine(notificationRepo, repository.NewUserRepository(), redisClient, publisher, nil, node)

	// Two semantically equal events within the window produce one
	// notification and one fan-out pack.
	err = e.Notify(ctx, testutil.User2.ID, entity.NewFollowerNotification,
		testutil.User1.ID, nil, testutil.User1.ID, time.Minute)
	require.NoError(t, err)

	err = e.Notify(ctx, testutil.User2.ID, entity.NewFollowerNotification,
		testutil.User1.ID, nil, testutil.User1.ID, time.Minute)
	require.NoError(t, err)

	notifications, err := notificationRepo.GetList(ctx, testutil.User2.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Len(t, publisher.Published(), 1)

	// A different dedupe key is a different semantic event.
	err = e.Notify(ctx, testutil.User2.ID, entity.NewFollowerNotification,
		testutil.User3.ID, nil, testutil.User3.ID, time.Minute)
	require.NoError(t, err)

	notifications, err = notificationRepo.GetList(ctx, testutil.User2.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// Once the window passes, the same event notifies again.
	mr.FastForward(2 * time.Minute)
	err = e.Notify(ctx, testutil.User2.ID, entity.NewFollowerNotification,
		testutil.User1.ID, nil, testutil.User1.ID, time.Minute)
	require.NoError(t, err)

	notifications, err = notificationRepo.GetList(ctx, testutil.User2.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 3)
}

func Test_notificationEngine_Notify_pack_format(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	mr := miniredis.RunT(t)
	redisClient := xredis.NewClientWith(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	var published *pubsub.Pack
	publisher := &testutil.MockPublisher{
		PublishFunc: func(ctx context.Context, topic string, pack *pubsub.Pack) error {
			published = pack
			return nil
		},
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	e := NewEngine(repository.NewNotificationRepository(), repository.NewUserRepository(),
		redisClient, publisher, nil, node)

	err = e.Notify(ctx, testutil.User2.ID, entity.NewFollowerNotification,
		testutil.User1.ID, entity.Map{"source": "test"}, "key", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, published)
	require.Equal(t, testutil.User2.ID, string(published.Key))

	var req event.EventRequest
	require.NoError(t, json.Unmarshal(published.Msg, &req))
	require.Equal(t, event.NotificationEvent{}.Op(), req.Op)
	require.Equal(t, testutil.User2.ID, req.Metadata.To)

	data, err := event.ParseData[event.NotificationEvent](&req)
	require.NoError(t, err)
	require.Equal(t, string(entity.NewFollowerNotification), data.Notification.Type)
	require.Equal(t, testutil.User1.ID, data.Notification.Actor.ID)
	require.Equal(t, testutil.User1.Name, data.Notification.Actor.Name)
}
