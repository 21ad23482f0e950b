package proxy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/pacelog/backend/pkg/xcontext"
)

// HandleFanout consumes the cross-process fan-out channel. Every process
// receives every pack; packs addressed to users without a local session are
// dropped here.
func (p *Proxy) HandleFanout(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var req event.EventRequest
	if err := json.Unmarshal(pack.Msg, &req); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot parse fanout pack: %v", err)
		return
	}

	if req.Metadata.To == "" {
		xcontext.Logger(ctx).Warnf("Received fanout pack without recipient, op %s", req.Op)
		return
	}

	if req.Op == (event.NotificationDeletedEvent{}).Op() {
		data, err := event.ParseData[event.NotificationDeletedEvent](&req)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot parse deleted event: %v", err)
			return
		}

		ttl := xcontext.Configs(ctx).Socket.SuppressionTTL
		p.hub.suppress(req.Metadata.To, data.NotificationID, ttl)
	}

	// A push racing a deletion must not reach the client once the deletion
	// has been seen.
	if req.Op == (event.NotificationEvent{}).Op() {
		data, err := event.ParseData[event.NotificationEvent](&req)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot parse notification event: %v", err)
			return
		}

		if p.hub.isSuppressed(req.Metadata.To, data.Notification.ID) {
			return
		}
	}

	p.hub.deliver(req.Metadata.To, &req)
}
