package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func insertNotification(
	t *testing.T, ctx context.Context, repo repository.NotificationRepository,
	id int64, recipientID, actorID string, typ entity.NotificationType,
) {
	err := repo.Create(ctx, &entity.Notification{
		SnowFlakeBase: entity.SnowFlakeBase{ID: id},
		RecipientID:   recipientID,
		Type:          typ,
		ActorID:       sql.NullString{Valid: actorID != "", String: actorID},
	})
	require.NoError(t, err)
}

func Test_notificationDomain_GetNotifications(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	notificationRepo := repository.NewNotificationRepository()
	d := NewNotificationDomain(notificationRepo, repository.NewUserRepository(), &testutil.MockPublisher{})

	insertNotification(t, ctx, notificationRepo, 1, testutil.User1.ID, testutil.User2.ID, entity.NewFollowerNotification)
	insertNotification(t, ctx, notificationRepo, 2, testutil.User1.ID, testutil.User3.ID, entity.NewFollowerNotification)
	insertNotification(t, ctx, notificationRepo, 3, testutil.User2.ID, "", entity.BadgeEarnedNotification)

	// Newest first, scoped to the caller, actors resolved.
	resp, err := d.GetNotifications(ctx, &model.GetNotificationsRequest{Page: 0, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 2)
	require.Equal(t, int64(2), resp.Notifications[0].ID)
	require.Equal(t, testutil.User3.Name, resp.Notifications[0].Actor.Name)
	require.Equal(t, int64(1), resp.Notifications[1].ID)

	// Paging walks backwards in time.
	resp, err = d.GetNotifications(ctx, &model.GetNotificationsRequest{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	require.Equal(t, int64(1), resp.Notifications[0].ID)

	// A page size above the configured maximum is rejected.
	_, err = d.GetNotifications(ctx, &model.GetNotificationsRequest{PageSize: 1000})
	require.Error(t, err)
	require.Equal(t, errorx.BadRequest, err.(errorx.Error).Code)
}

func Test_notificationDomain_read_tracking(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	notificationRepo := repository.NewNotificationRepository()
	d := NewNotificationDomain(notificationRepo, repository.NewUserRepository(), &testutil.MockPublisher{})

	insertNotification(t, ctx, notificationRepo, 1, testutil.User1.ID, "", entity.BadgeEarnedNotification)
	insertNotification(t, ctx, notificationRepo, 2, testutil.User1.ID, "", entity.BadgeEarnedNotification)

	count, err := d.GetUnreadCount(ctx, &model.GetUnreadCountRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), count.Count)

	_, err = d.MarkRead(ctx, &model.MarkNotificationReadRequest{ID: 1})
	require.NoError(t, err)

	count, err = d.GetUnreadCount(ctx, &model.GetUnreadCountRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), count.Count)

	// Marking again, or marking an unknown id, is a no-op.
	_, err = d.MarkRead(ctx, &model.MarkNotificationReadRequest{ID: 1})
	require.NoError(t, err)

	_, err = d.MarkRead(ctx, &model.MarkNotificationReadRequest{ID: 999})
	require.NoError(t, err)

	_, err = d.MarkAllRead(ctx, &model.MarkAllNotificationsReadRequest{})
	require.NoError(t, err)

	count, err = d.GetUnreadCount(ctx, &model.GetUnreadCountRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(0), count.Count)
}

func Test_notificationDomain_Delete(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	notificationRepo := repository.NewNotificationRepository()
	publisher := &testutil.MockPublisher{}
	d := NewNotificationDomain(notificationRepo, repository.NewUserRepository(), publisher)

	insertNotification(t, ctx, notificationRepo, 1, testutil.User1.ID, "", entity.BadgeEarnedNotification)
	insertNotification(t, ctx, notificationRepo, 2, testutil.User2.ID, "", entity.BadgeEarnedNotification)

	// Someone else's notification is invisible to the caller.
	_, err := d.Delete(ctx, &model.DeleteNotificationRequest{ID: 2})
	require.Error(t, err)
	require.Equal(t, errorx.NotFound, err.(errorx.Error).Code)

	_, err = d.Delete(ctx, &model.DeleteNotificationRequest{ID: 1})
	require.NoError(t, err)

	_, err = d.Delete(ctx, &model.DeleteNotificationRequest{ID: 1})
	require.Error(t, err)
	require.Equal(t, errorx.NotFound, err.(errorx.Error).Code)

	// The deletion is broadcast so in-flight deliveries are dropped.
	packs := publisher.Published()
	require.Len(t, packs, 1)

	var req event.EventRequest
	require.NoError(t, json.Unmarshal(packs[0].Msg, &req))
	require.Equal(t, event.NotificationDeletedEvent{}.Op(), req.Op)
	require.Equal(t, testutil.User1.ID, req.Metadata.To)

	data, err := event.ParseData[event.NotificationDeletedEvent](&req)
	require.NoError(t, err)
	require.Equal(t, int64(1), data.NotificationID)
}
