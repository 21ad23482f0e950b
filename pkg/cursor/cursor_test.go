package cursor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	key := Key{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		UserID:    "user1",
	}

	token := Encode(key)
	require.NotEmpty(t, token)
	require.Equal(t, token, Encode(key))

	decoded := Decode(token)
	require.True(t, key.CreatedAt.Equal(decoded.CreatedAt))
	require.Equal(t, key.UserID, decoded.UserID)
	require.False(t, decoded.IsZero())
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not base64", token: "!!!not-base64!!!"},
		{name: "no separator", token: "MTIzNDU"},
		{name: "missing user id", token: "MTIzNDU6"},
		{name: "non numeric time", token: "YWJjOnVzZXIx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, Decode(tt.token).IsZero())
		})
	}
}
