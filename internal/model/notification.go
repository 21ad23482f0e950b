package model

type Notification struct {
	ID          int64          `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        string         `json:"type"`
	Actor       ShortUser      `json:"actor,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   string         `json:"created_at"`
	ReadAt      string         `json:"read_at,omitempty"`
}

type GetNotificationsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type GetNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

type GetUnreadCountRequest struct{}

type GetUnreadCountResponse struct {
	Count int64 `json:"count"`
}

type MarkNotificationReadRequest struct {
	ID int64 `json:"id"`
}

type MarkNotificationReadResponse struct{}

type MarkAllNotificationsReadRequest struct{}

type MarkAllNotificationsReadResponse struct{}

type DeleteNotificationRequest struct {
	ID int64 `json:"id"`
}

type DeleteNotificationResponse struct{}

type ServeSocketRequest struct{}
