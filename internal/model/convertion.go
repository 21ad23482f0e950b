package model

import (
	"time"

	"github.com/pacelog/backend/internal/entity"
)

const DefaultTimeLayout = time.RFC3339Nano

func ConvertShortUser(user *entity.User) ShortUser {
	if user == nil {
		return ShortUser{}
	}

	return ShortUser{
		ID:         user.ID,
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
		IsVerified: user.IsVerified,
	}
}

func ConvertFollowEdge(edge *entity.FollowEdge, user *entity.User) FollowEdge {
	if edge == nil {
		return FollowEdge{}
	}

	shortUser := ConvertShortUser(user)
	if shortUser.ID == "" {
		shortUser = ShortUser{ID: edge.FollowerID}
	}

	return FollowEdge{
		User:       shortUser,
		State:      string(edge.State),
		FollowedAt: edge.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertNotification(n *entity.Notification, actor *entity.User) Notification {
	if n == nil {
		return Notification{}
	}

	resp := Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        string(n.Type),
		Payload:     n.Payload,
		CreatedAt:   n.CreatedAt.Format(DefaultTimeLayout),
	}

	if actor != nil {
		resp.Actor = ConvertShortUser(actor)
	} else if n.ActorID.Valid {
		resp.Actor = ShortUser{ID: n.ActorID.String}
	}

	if n.ReadAt.Valid {
		resp.ReadAt = n.ReadAt.Time.Format(DefaultTimeLayout)
	}

	return resp
}
