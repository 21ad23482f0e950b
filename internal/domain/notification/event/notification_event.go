package event

import (
	"encoding/json"

	"github.com/pacelog/backend/internal/model"
)

type ConnectedEvent struct {
	ConnectionID string `json:"connection_id"`
}

func (ConnectedEvent) Op() string {
	return "connected"
}

type NotificationEvent struct {
	Notification model.Notification `json:"notification"`
}

func (NotificationEvent) Op() string {
	return "notification"
}

// PendingDeliveryEvent is the catch-up batch flushed right after a client
// connects, oldest first.
type PendingDeliveryEvent struct {
	Notifications []model.Notification `json:"notifications"`
}

func (PendingDeliveryEvent) Op() string {
	return "pending_delivery"
}

// NotificationDeletedEvent tells every process to drop the notification
// from any in-flight delivery for this user.
type NotificationDeletedEvent struct {
	NotificationID int64 `json:"notification_id"`
}

func (NotificationDeletedEvent) Op() string {
	return "notification_deleted"
}

type ErrorEvent struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (ErrorEvent) Op() string {
	return "error"
}

type PingEvent struct{}

func (PingEvent) Op() string {
	return "ping"
}

// ParseData re-decodes the Data field of an EventRequest that crossed the
// wire, where it is an untyped json object.
func ParseData[T any](req *EventRequest) (*T, error) {
	b, err := json.Marshal(req.Data)
	if err != nil {
		return nil, err
	}

	var data T
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}

	return &data, nil
}
