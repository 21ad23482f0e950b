package model

const (
	// Follow actions returned by the follow operation.
	FollowActionFollowed  = "followed"
	FollowActionRequested = "requested"
)

const (
	// Relationship of a viewer to a target, resolved by the batch lookup.
	RelationshipNone            = "none"
	RelationshipFollowing       = "following"
	RelationshipRequested       = "requested"
	RelationshipIncomingRequest = "incoming_request"
	RelationshipMutual          = "mutual"
)

type FollowUserRequest struct {
	UserID string `json:"user_id"`
}

type FollowUserResponse struct {
	Action string `json:"action"`
}

type UnfollowUserRequest struct {
	UserID string `json:"user_id"`
}

type UnfollowUserResponse struct{}

type CancelFollowRequestRequest struct {
	UserID string `json:"user_id"`
}

type CancelFollowRequestResponse struct{}

type AcceptFollowRequestRequest struct {
	UserID string `json:"user_id"`
}

type AcceptFollowRequestResponse struct{}

type DeclineFollowRequestRequest struct {
	UserID string `json:"user_id"`
}

type DeclineFollowRequestResponse struct{}

type RemoveFollowerRequest struct {
	UserID string `json:"user_id"`
}

type RemoveFollowerResponse struct{}

type FollowEdge struct {
	User       ShortUser `json:"user"`
	State      string    `json:"state"`
	FollowedAt string    `json:"followed_at"`
}

type GetFollowersRequest struct {
	UserID string `json:"user_id"`
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

type GetFollowersResponse struct {
	Followers  []FollowEdge `json:"followers"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type GetFollowingRequest struct {
	UserID string `json:"user_id"`
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

type GetFollowingResponse struct {
	Following  []FollowEdge `json:"following"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type GetFollowRequestsRequest struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

type GetFollowRequestsResponse struct {
	Requests   []FollowEdge `json:"requests"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type GetMutualsRequest struct {
	UserID string `json:"user_id"`
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

type GetMutualsResponse struct {
	Mutuals    []FollowEdge `json:"mutuals"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type GetRelationshipsRequest struct {
	UserIDs []string `json:"user_ids"`
}

type GetRelationshipsResponse struct {
	Relationships map[string]string `json:"relationships"`
}

type ReconcileCountersRequest struct {
	UserID string `json:"user_id"`
}

type ReconcileCountersResponse struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}
