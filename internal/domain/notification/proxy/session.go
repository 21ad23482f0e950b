package proxy

import (
	"github.com/google/uuid"
	"github.com/pacelog/backend/internal/domain/notification/event"
)

// session is one live websocket connection of one user. Events queued on c
// are drained by the serving goroutine; a full queue drops the event rather
// than blocking the fan-out path.
type session struct {
	id     string
	userID string
	c      chan *event.EventRequest
}

func newSession(userID string) *session {
	return &session{
		id:     uuid.NewString(),
		userID: userID,
		c:      make(chan *event.EventRequest, 64),
	}
}
