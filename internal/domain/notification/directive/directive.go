package directive

import "encoding/json"

const (
	// PongDirectiveOp is the only directive a client sends. It answers the
	// server's ping and keeps the connection lease alive.
	PongDirectiveOp = "pong"
)

type ClientDirective struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data,omitempty"`
}
