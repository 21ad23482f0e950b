package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Format(t *testing.T) {
	ev := New(NotificationDeletedEvent{NotificationID: 42}, Metadata{To: "user1"})

	resp := Format(ev, 3)
	require.Equal(t, ev.Op, resp.Op)
	require.Equal(t, int64(3), resp.Seq)

	// The client frame carries op, seq, and data; the routing metadata stays
	// inside the process.
	b, err := json.Marshal(resp)
	require.NoError(t, err)

	fields := map[string]any{}
	require.NoError(t, json.Unmarshal(b, &fields))
	require.Contains(t, fields, "o")
	require.Contains(t, fields, "s")
	require.Contains(t, fields, "d")
	require.NotContains(t, fields, "m")
}
