package cursor

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key is the keyset position of the last row a client has seen. Listings
// ordered by (created_at DESC, user_id DESC) resume strictly after it.
type Key struct {
	CreatedAt time.Time
	UserID    string
}

func (k Key) IsZero() bool {
	return k.UserID == "" && k.CreatedAt.IsZero()
}

// Encode renders the key as an opaque token. The same key always encodes to
// the same token.
func Encode(k Key) string {
	raw := fmt.Sprintf("%d:%s", k.CreatedAt.UnixNano(), k.UserID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a continuation token. An empty or malformed token yields the
// zero Key, meaning the listing starts from the beginning. Clients can echo
// back garbage without breaking pagination.
func Decode(token string) Key {
	if token == "" {
		return Key{}
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Key{}
	}

	nanos, userID, found := strings.Cut(string(raw), ":")
	if !found || userID == "" {
		return Key{}
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return Key{}
	}

	return Key{CreatedAt: time.Unix(0, n), UserID: userID}
}
