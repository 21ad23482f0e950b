package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/pacelog/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type NotificationDomain interface {
	GetNotifications(context.Context, *model.GetNotificationsRequest) (*model.GetNotificationsResponse, error)
	GetUnreadCount(context.Context, *model.GetUnreadCountRequest) (*model.GetUnreadCountResponse, error)
	MarkRead(context.Context, *model.MarkNotificationReadRequest) (*model.MarkNotificationReadResponse, error)
	MarkAllRead(context.Context, *model.MarkAllNotificationsReadRequest) (*model.MarkAllNotificationsReadResponse, error)
	Delete(context.Context, *model.DeleteNotificationRequest) (*model.DeleteNotificationResponse, error)
}

type notificationDomain struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	fanoutPublisher  pubsub.Publisher
}

func NewNotificationDomain(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	fanoutPublisher pubsub.Publisher,
) *notificationDomain {
	return &notificationDomain{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		fanoutPublisher:  fanoutPublisher,
	}
}

func (d *notificationDomain) GetNotifications(
	ctx context.Context, req *model.GetNotificationsRequest,
) (*model.GetNotificationsResponse, error) {
	if req.Page < 0 {
		return nil, errorx.New(errorx.BadRequest, "Page must not be negative")
	}

	notificationCfg := xcontext.Configs(ctx).Notification
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = notificationCfg.MaxPageSize
	}

	if pageSize < 0 || pageSize > notificationCfg.MaxPageSize {
		return nil, errorx.New(errorx.BadRequest,
			"Exceed the maximum of page size (%d)", notificationCfg.MaxPageSize)
	}

	recipientID := xcontext.RequestUserID(ctx)
	notifications, err := d.notificationRepo.GetList(ctx, recipientID, req.Page*pageSize, pageSize)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get notifications: %v", err)
		return nil, errorx.Unknown
	}

	converted, err := d.convertNotifications(ctx, notifications)
	if err != nil {
		return nil, err
	}

	return &model.GetNotificationsResponse{Notifications: converted}, nil
}

func (d *notificationDomain) GetUnreadCount(
	ctx context.Context, req *model.GetUnreadCountRequest,
) (*model.GetUnreadCountResponse, error) {
	count, err := d.notificationRepo.CountUnread(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count unread notifications: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetUnreadCountResponse{Count: count}, nil
}

func (d *notificationDomain) MarkRead(
	ctx context.Context, req *model.MarkNotificationReadRequest,
) (*model.MarkNotificationReadResponse, error) {
	err := d.notificationRepo.MarkRead(ctx, xcontext.RequestUserID(ctx), req.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark notification as read: %v", err)
		return nil, errorx.Unknown
	}

	return &model.MarkNotificationReadResponse{}, nil
}

func (d *notificationDomain) MarkAllRead(
	ctx context.Context, req *model.MarkAllNotificationsReadRequest,
) (*model.MarkAllNotificationsReadResponse, error) {
	err := d.notificationRepo.MarkAllRead(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark notifications as read: %v", err)
		return nil, errorx.Unknown
	}

	return &model.MarkAllNotificationsReadResponse{}, nil
}

// Delete removes a notification of the caller. A notification owned by
// another user is indistinguishable from a missing one.
func (d *notificationDomain) Delete(
	ctx context.Context, req *model.DeleteNotificationRequest,
) (*model.DeleteNotificationResponse, error) {
	recipientID := xcontext.RequestUserID(ctx)
	if err := d.notificationRepo.Delete(ctx, recipientID, req.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found notification")
		}

		xcontext.Logger(ctx).Errorf("Cannot delete notification: %v", err)
		return nil, errorx.Unknown
	}

	// Tell every process to drop the notification from in-flight delivery.
	// The row is already gone, so a lost broadcast only costs a stale entry
	// in a catch-up batch.
	ev := event.New(
		event.NotificationDeletedEvent{NotificationID: req.ID},
		event.Metadata{To: recipientID},
	)

	b, err := json.Marshal(ev)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal deleted event: %v", err)
		return &model.DeleteNotificationResponse{}, nil
	}

	channel := xcontext.Configs(ctx).Notification.FanoutChannel
	pack := &pubsub.Pack{Key: []byte(recipientID), Msg: b}
	if err := d.fanoutPublisher.Publish(ctx, channel, pack); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish deleted event: %v", err)
	}

	return &model.DeleteNotificationResponse{}, nil
}

func (d *notificationDomain) convertNotifications(
	ctx context.Context, notifications []entity.Notification,
) ([]model.Notification, error) {
	actorIDs := []string{}
	for _, n := range notifications {
		if n.ActorID.Valid {
			actorIDs = append(actorIDs, n.ActorID.String)
		}
	}

	actorMap := map[string]*entity.User{}
	if len(actorIDs) > 0 {
		actors, err := d.userRepo.GetByIDs(ctx, actorIDs)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get actors: %v", err)
			return nil, errorx.Unknown
		}

		for i := range actors {
			actorMap[actors[i].ID] = &actors[i]
		}
	}

	result := []model.Notification{}
	for i := range notifications {
		var actor *entity.User
		if notifications[i].ActorID.Valid {
			actor = actorMap[notifications[i].ActorID.String]
		}

		result = append(result, model.ConvertNotification(&notifications[i], actor))
	}

	return result, nil
}
