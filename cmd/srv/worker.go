package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/pacelog/backend/pkg/kafka"
	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startWorker(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()

	cfg := xcontext.Configs(s.ctx)
	subscriber := kafka.NewSubscriber(
		"pacelog-dispatch",
		strings.Split(cfg.Kafka.Addr, ","),
		[]string{cfg.Kafka.DispatchTopic},
		s.dispatch,
	)

	xcontext.Logger(s.ctx).Infof("Starting dispatch worker on topic: %s", cfg.Kafka.DispatchTopic)
	subscriber.Subscribe(s.ctx)

	<-s.ctx.Done()
	return subscriber.Stop(s.ctx)
}

// dispatch handles one queued notification for out-of-band channels. Push
// and email providers plug in here; for now the worker only records the
// delivery intent.
func (s *srv) dispatch(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var req event.EventRequest
	if err := json.Unmarshal(pack.Msg, &req); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot parse dispatch pack: %v", err)
		return
	}

	data, err := event.ParseData[event.NotificationEvent](&req)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot parse notification event: %v", err)
		return
	}

	xcontext.Logger(ctx).Infof("Dispatching %s notification %d to %s",
		data.Notification.Type, data.Notification.ID, req.Metadata.To)
}
