package realtime

import "encoding/json"

// AckEvent is the event name of acknowledgement frames.
const AckEvent = "ack"

// InboundFrame is a client event. Ack is set when the client expects a reply.
type InboundFrame struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundFrame is a server event or an acknowledgement.
type OutboundFrame struct {
	Event string      `json:"event"`
	Ack   string      `json:"ack,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// EncodeEvent marshals an event frame.
func EncodeEvent(event string, data interface{}) ([]byte, error) {
	return json.Marshal(OutboundFrame{Event: event, Data: data})
}
