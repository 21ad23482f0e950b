package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pacelog/backend/internal/common"
	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/pacelog/backend/pkg/xredis"
)

// Engine turns domain events into durable, deduplicated notifications and
// hands them to the fan-out.
type Engine interface {
	Notify(
		ctx context.Context,
		recipientID string,
		notificationType entity.NotificationType,
		actorID string,
		payload entity.Map,
		dedupeKey string,
		dedupeWindow time.Duration,
	) error
}

type notificationEngine struct {
	notificationRepo  repository.NotificationRepository
	userRepo          repository.UserRepository
	redisClient       xredis.Client
	fanoutPublisher   pubsub.Publisher
	outboundPublisher pubsub.Publisher
	snowflake         *snowflake.Node
}

func NewEngine(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	redisClient xredis.Client,
	fanoutPublisher pubsub.Publisher,
	outboundPublisher pubsub.Publisher,
	snowflakeNode *snowflake.Node,
) *notificationEngine {
	return &notificationEngine{
		notificationRepo:  notificationRepo,
		userRepo:          userRepo,
		redisClient:       redisClient,
		fanoutPublisher:   fanoutPublisher,
		outboundPublisher: outboundPublisher,
		snowflake:         snowflakeNode,
	}
}

// Notify persists and fans out a notification unless an equal semantic
// event was already notified within the dedupe window. The dedupe entry is
// created with an atomic check-and-set, so of two concurrent calls with the
// same key exactly one stores a notification; the other is a silent no-op.
//
// A storage failure is returned to the producer. A fan-out or outbound
// publish failure is logged and swallowed: the notification is already
// durable and will reach the recipient on their next connect.
func (e *notificationEngine) Notify(
	ctx context.Context,
	recipientID string,
	notificationType entity.NotificationType,
	actorID string,
	payload entity.Map,
	dedupeKey string,
	dedupeWindow time.Duration,
) error {
	if dedupeWindow <= 0 {
		dedupeWindow = xcontext.Configs(ctx).Notification.DedupeWindow
	}

	redisKey := common.RedisKeyNotificationDedupe(recipientID, string(notificationType), dedupeKey)
	won, err := e.redisClient.SetNX(ctx, redisKey, "1", dedupeWindow)
	if err != nil {
		// The gate is unavailable, not failed. Prefer a possible duplicate
		// over a lost notification.
		xcontext.Logger(ctx).Warnf("Cannot check dedupe entry %s: %v", redisKey, err)
	} else if !won {
		return nil
	}

	notification := &entity.Notification{
		SnowFlakeBase: entity.SnowFlakeBase{ID: e.snowflake.Generate().Int64()},
		RecipientID:   recipientID,
		Type:          notificationType,
		Payload:       payload,
	}

	if actorID != "" {
		notification.ActorID = sql.NullString{Valid: true, String: actorID}
	}

	if err := e.notificationRepo.Create(ctx, notification); err != nil {
		// Free the gate so a retry of the same event is not suppressed.
		if derr := e.redisClient.Del(ctx, redisKey); derr != nil {
			xcontext.Logger(ctx).Warnf("Cannot release dedupe entry %s: %v", redisKey, derr)
		}

		return err
	}

	var actor *entity.User
	if actorID != "" {
		if actor, err = e.userRepo.GetByID(ctx, actorID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot get actor %s: %v", actorID, err)
		}
	}

	e.publish(ctx, recipientID, model.ConvertNotification(notification, actor))
	return nil
}

func (e *notificationEngine) publish(
	ctx context.Context, recipientID string, notification model.Notification,
) {
	ev := event.New(
		event.NotificationEvent{Notification: notification},
		event.Metadata{To: recipientID},
	)

	b, err := json.Marshal(ev)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal notification event: %v", err)
		return
	}

	pack := &pubsub.Pack{Key: []byte(recipientID), Msg: b}

	channel := xcontext.Configs(ctx).Notification.FanoutChannel
	if err := e.fanoutPublisher.Publish(ctx, channel, pack); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish notification to fanout: %v", err)
	}

	if e.outboundPublisher != nil {
		topic := xcontext.Configs(ctx).Kafka.DispatchTopic
		if err := e.outboundPublisher.Publish(ctx, topic, pack); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot publish notification to dispatch queue: %v", err)
		}
	}
}
