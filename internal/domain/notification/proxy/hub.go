package proxy

import (
	"fmt"
	"sync"
	"time"

	"github.com/pacelog/backend/internal/domain/notification/event"
	"github.com/puzpuzpuz/xsync"
)

type userSessions struct {
	mutex    sync.RWMutex
	sessions map[string]*session

	// set under mutex when the entry has been removed from the hub map; a
	// racing register must not add sessions to a removed entry.
	gone bool
}

// Hub maps user ids to the sessions this process holds for them. It also
// remembers recently deleted notification ids so a deletion racing a
// delivery does not resurrect the notification in a catch-up batch.
type Hub struct {
	users       *xsync.MapOf[string, *userSessions]
	suppression *xsync.MapOf[string, time.Time]
}

func NewHub() *Hub {
	return &Hub{
		users:       xsync.NewMapOf[*userSessions](),
		suppression: xsync.NewMapOf[time.Time](),
	}
}

func (h *Hub) register(s *session) {
	for {
		us, _ := h.users.LoadOrStore(s.userID, &userSessions{sessions: map[string]*session{}})

		us.mutex.Lock()
		if us.gone {
			us.mutex.Unlock()
			continue
		}

		us.sessions[s.id] = s
		us.mutex.Unlock()
		return
	}
}

func (h *Hub) unregister(s *session) {
	us, ok := h.users.Load(s.userID)
	if !ok {
		return
	}

	us.mutex.Lock()
	delete(us.sessions, s.id)
	if len(us.sessions) == 0 {
		us.gone = true
		h.users.Delete(s.userID)
	}
	us.mutex.Unlock()
}

// deliver queues the event on every local session of the user and reports
// how many sessions accepted it. A session whose queue is full is skipped.
func (h *Hub) deliver(userID string, ev *event.EventRequest) int {
	us, ok := h.users.Load(userID)
	if !ok {
		return 0
	}

	us.mutex.RLock()
	defer us.mutex.RUnlock()

	delivered := 0
	for _, s := range us.sessions {
		select {
		case s.c <- ev:
			delivered++
		default:
		}
	}

	return delivered
}

func (h *Hub) suppress(userID string, notificationID int64, ttl time.Duration) {
	h.suppression.Store(suppressionKey(userID, notificationID), time.Now().Add(ttl))
}

func (h *Hub) isSuppressed(userID string, notificationID int64) bool {
	key := suppressionKey(userID, notificationID)
	deadline, ok := h.suppression.Load(key)
	if !ok {
		return false
	}

	if time.Now().After(deadline) {
		h.suppression.Delete(key)
		return false
	}

	return true
}

func suppressionKey(userID string, notificationID int64) string {
	return fmt.Sprintf("%s:%d", userID, notificationID)
}
