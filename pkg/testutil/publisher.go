package testutil

import (
	"context"
	"sync"

	"github.com/pacelog/backend/pkg/pubsub"
)

type MockPublisher struct {
	PublishFunc func(context.Context, string, *pubsub.Pack) error

	mutex  sync.Mutex
	packs  []*pubsub.Pack
	topics []string
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, pack)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.packs = append(m.packs, pack)
	m.topics = append(m.topics, topic)
	return nil
}

func (m *MockPublisher) Stop(ctx context.Context) error {
	return nil
}

// Published returns every pack recorded by the default Publish.
func (m *MockPublisher) Published() []*pubsub.Pack {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*pubsub.Pack{}, m.packs...)
}
