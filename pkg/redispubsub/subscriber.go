package redispubsub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/redis/go-redis/v9"
)

type subscriber struct {
	redisClient *redis.Client
	channels    []string
	handler     pubsub.SubscribeHandler

	sub *redis.PubSub
}

func NewSubscriber(
	redisClient *redis.Client,
	channels []string,
	handler pubsub.SubscribeHandler,
) pubsub.Subscriber {
	return &subscriber{
		redisClient: redisClient,
		channels:    channels,
		handler:     handler,
	}
}

func (s *subscriber) Subscribe(ctx context.Context) {
	s.sub = s.redisClient.Subscribe(ctx, s.channels...)

	go func() {
		for msg := range s.sub.Channel() {
			var pack pubsub.Pack
			if err := json.Unmarshal([]byte(msg.Payload), &pack); err != nil {
				log.Printf("Cannot unmarshal pack: %v", err)
				continue
			}

			s.handler(ctx, &pack, time.Now())
		}
	}()
}

func (s *subscriber) Stop(ctx context.Context) error {
	if s.sub == nil {
		return nil
	}

	return s.sub.Close()
}
