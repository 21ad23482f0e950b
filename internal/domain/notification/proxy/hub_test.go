package proxy

import (
	"testing"
	"time"

	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/stretchr/testify/require"
)

func TestHub_deliver(t *testing.T) {
	hub := NewHub()

	s1 := newSession("user1")
	s2 := newSession("user1")
	other := newSession("user2")
	hub.register(s1)
	hub.register(s2)
	hub.register(other)

	ev := event.New(event.PingEvent{}, event.Metadata{To: "user1"})

	// Every session of the recipient gets the event, nobody else does.
	require.Equal(t, 2, hub.deliver("user1", ev))
	require.Equal(t, ev, <-s1.c)
	require.Equal(t, ev, <-s2.c)
	require.Empty(t, other.c)

	// Nothing is held for users without a local session.
	require.Equal(t, 0, hub.deliver("unknown", ev))

	hub.unregister(s1)
	require.Equal(t, 1, hub.deliver("user1", ev))
	require.Empty(t, s1.c)

	hub.unregister(s2)
	require.Equal(t, 0, hub.deliver("user1", ev))
}

func TestHub_register_after_last_unregister(t *testing.T) {
	hub := NewHub()

	s1 := newSession("user1")
	hub.register(s1)
	hub.unregister(s1)

	// Dropping the last session removes the user's entry; a later connection
	// from the same user starts fresh.
	s2 := newSession("user1")
	hub.register(s2)

	ev := event.New(event.PingEvent{}, event.Metadata{To: "user1"})
	require.Equal(t, 1, hub.deliver("user1", ev))
	require.Equal(t, ev, <-s2.c)
	require.Empty(t, s1.c)
}

func TestHub_deliver_full_queue(t *testing.T) {
	hub := NewHub()
	s := newSession("user1")
	hub.register(s)

	ev := event.New(event.PingEvent{}, event.Metadata{To: "user1"})
	for i := 0; i < cap(s.c); i++ {
		require.Equal(t, 1, hub.deliver("user1", ev))
	}

	// A session that stopped draining is skipped instead of blocking the
	// fan-out path.
	require.Equal(t, 0, hub.deliver("user1", ev))
}

func TestHub_suppression(t *testing.T) {
	hub := NewHub()

	hub.suppress("user1", 42, time.Minute)
	require.True(t, hub.isSuppressed("user1", 42))
	require.False(t, hub.isSuppressed("user1", 43))
	require.False(t, hub.isSuppressed("user2", 42))

	hub.suppress("user1", 99, -time.Second)
	require.False(t, hub.isSuppressed("user1", 99))
}
