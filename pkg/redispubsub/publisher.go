package redispubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pacelog/backend/pkg/pubsub"
	"github.com/redis/go-redis/v9"
)

// publisher relays packs over redis channels. Redis pub/sub delivers every
// message to every live subscriber and keeps nothing, which is exactly the
// fan-out contract: durability lives in the store, not in the transport.
type publisher struct {
	redisClient *redis.Client
}

func NewPublisher(redisClient *redis.Client) pubsub.Publisher {
	return &publisher{redisClient: redisClient}
}

func (p *publisher) Publish(ctx context.Context, channel string, pack *pubsub.Pack) error {
	b, err := json.Marshal(pack)
	if err != nil {
		return err
	}

	if err := p.redisClient.Publish(ctx, channel, b).Err(); err != nil {
		return fmt.Errorf("p.redisClient.Publish: %w", err)
	}

	return nil
}

func (p *publisher) Stop(ctx context.Context) error {
	return nil
}
