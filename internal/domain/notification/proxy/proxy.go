package proxy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pacelog/backend/internal/domain/notification/directive"
	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/internal/entity"
	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/ws"
	"github.com/pacelog/backend/pkg/xcontext"
)

type Proxy struct {
	hub              *Hub
	registry         *Registry
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

func New(
	hub *Hub,
	registry *Registry,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
) *Proxy {
	return &Proxy{
		hub:              hub,
		registry:         registry,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// ServeSocket owns one websocket connection for its whole lifetime. It
// admits the connection against the per-user limit, flushes the unread
// catch-up batch, then multiplexes fan-out events, client directives, and
// heartbeats until the client goes away.
func (p *Proxy) ServeSocket(ctx context.Context, req *model.ServeSocketRequest) error {
	userID := xcontext.RequestUserID(ctx)
	client := xcontext.SocketClient(ctx)
	socketCfg := xcontext.Configs(ctx).Socket

	var seq int64
	count, err := p.registry.Count(ctx, userID)
	if err != nil {
		// An unreachable registry must not lock everyone out. Admit and let
		// the lease sort itself out once redis is back.
		xcontext.Logger(ctx).Warnf("Cannot count connections of %s: %v", userID, err)
		count = 0
	}

	if count >= socketCfg.MaxConnectionsPerUser {
		limitErr := errorx.New(errorx.ConnectionLimitExceeded,
			"Cannot open more than %d connections", socketCfg.MaxConnectionsPerUser)
		p.send(ctx, client, &seq, event.New(
			event.ErrorEvent{Code: int64(errorx.ConnectionLimitExceeded), Message: limitErr.Message},
			event.Metadata{To: userID},
		))
		return limitErr
	}

	s := newSession(userID)
	if err := p.registry.Register(ctx, userID, s.id); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot register connection %s: %v", s.id, err)
	}

	p.hub.register(s)
	defer func() {
		p.hub.unregister(s)
		if err := p.registry.Unregister(ctx, userID, s.id); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot unregister connection %s: %v", s.id, err)
		}
	}()

	p.send(ctx, client, &seq, event.New(
		event.ConnectedEvent{ConnectionID: s.id},
		event.Metadata{To: userID},
	))

	p.flushPending(ctx, client, &seq, userID)

	ping := time.NewTicker(socketCfg.PingPeriod)
	defer ping.Stop()

	lastPong := time.Now()
	for {
		select {
		case ev := <-s.c:
			p.send(ctx, client, &seq, ev)

		case msg, ok := <-client.R:
			if !ok {
				return nil
			}

			var d directive.ClientDirective
			if err := json.Unmarshal(msg, &d); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot parse directive: %v", err)
				continue
			}

			if d.Op == directive.PongDirectiveOp {
				lastPong = time.Now()
				if err := p.registry.Refresh(ctx, userID, s.id); err != nil {
					xcontext.Logger(ctx).Warnf("Cannot refresh connection %s: %v", s.id, err)
				}
			}

		case <-ping.C:
			if time.Since(lastPong) > socketCfg.PongTimeout {
				xcontext.Logger(ctx).Debugf("Closing unresponsive connection %s", s.id)
				return nil
			}

			p.send(ctx, client, &seq, event.New(event.PingEvent{}, event.Metadata{To: userID}))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// flushPending sends the newest unread notifications in chronological order
// so the client catches up on everything missed while disconnected.
func (p *Proxy) flushPending(ctx context.Context, client *ws.Client, seq *int64, userID string) {
	limit := xcontext.Configs(ctx).Notification.PendingBatchLimit
	notifications, err := p.notificationRepo.GetRecentUnread(ctx, userID, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unread notifications: %v", err)
		return
	}

	pending := []model.Notification{}
	for i := len(notifications) - 1; i >= 0; i-- {
		if p.hub.isSuppressed(userID, notifications[i].ID) {
			continue
		}

		pending = append(pending, model.ConvertNotification(&notifications[i], nil))
	}

	if len(pending) == 0 {
		return
	}

	p.decorateActors(ctx, pending)
	p.send(ctx, client, seq, event.New(
		event.PendingDeliveryEvent{Notifications: pending},
		event.Metadata{To: userID},
	))
}

func (p *Proxy) decorateActors(ctx context.Context, notifications []model.Notification) {
	actorIDs := []string{}
	for _, n := range notifications {
		if n.Actor.ID != "" {
			actorIDs = append(actorIDs, n.Actor.ID)
		}
	}

	if len(actorIDs) == 0 {
		return
	}

	actors, err := p.userRepo.GetByIDs(ctx, actorIDs)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get actors: %v", err)
		return
	}

	actorMap := map[string]*entity.User{}
	for i := range actors {
		actorMap[actors[i].ID] = &actors[i]
	}

	for i := range notifications {
		if actor, ok := actorMap[notifications[i].Actor.ID]; ok {
			notifications[i].Actor = model.ConvertShortUser(actor)
		}
	}
}

// send stamps the frame with the connection sequence number. The routing
// metadata never leaves the process.
func (p *Proxy) send(ctx context.Context, client *ws.Client, seq *int64, ev *event.EventRequest) {
	resp := event.Format(ev, *seq)
	b, err := json.Marshal(resp)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal event %s: %v", ev.Op, err)
		return
	}

	*seq++
	if err := client.Write(b); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot write event %s: %v", ev.Op, err)
	}
}
