package event

type Event interface {
	Op() string
}

// Metadata routes a fan-out pack to its recipient. Every subscribed process
// receives the pack; only processes holding a live connection for To act on
// it.
type Metadata struct {
	To string `json:"to"`
}

type EventRequest struct {
	Op       string   `json:"o"`
	Data     any      `json:"d"`
	Metadata Metadata `json:"m"`
}

// EventResponse is the frame written to a socket client. Seq increases by
// one per frame within a connection, so clients can detect gaps.
type EventResponse struct {
	Op   string `json:"o"`
	Seq  int64  `json:"s"`
	Data any    `json:"d"`
}

func New(ev Event, metadata Metadata) *EventRequest {
	return &EventRequest{
		Op:       ev.Op(),
		Data:     ev,
		Metadata: metadata,
	}
}

func Format(event *EventRequest, seq int64) *EventResponse {
	return &EventResponse{
		Op:   event.Op,
		Seq:  seq,
		Data: event.Data,
	}
}
