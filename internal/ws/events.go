package ws

import (
	"encoding/json"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
)

// Event is the envelope of every frame sent to a client
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Inbound event types. Connect and disconnect are implicit in the socket lifecycle.
const (
	EventSendMessage = "send-message"
	EventReadAck     = "read-ack"
	EventTyping      = "typing"
)

// inboundEvent is a tagged client frame; Payload is decoded per Type
type inboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReadAckPayload acknowledges one conversation, or every conversation when All is set
type ReadAckPayload struct {
	ConversationID string `json:"conversationId"`
	All            bool   `json:"all"`
}

// TypingRequest names the user who should see the indicator
type TypingRequest struct {
	ReceiverID string `json:"receiverId"`
}

func parseInbound(data []byte) (*inboundEvent, error) {
	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, common.Validation("malformed event")
	}
	if ev.Type == "" {
		return nil, common.Validation("event type is required")
	}
	return &ev, nil
}

func decodePayload(ev *inboundEvent, dest interface{}) error {
	if len(ev.Payload) == 0 {
		return common.Validation("%s payload is required", ev.Type)
	}
	if err := json.Unmarshal(ev.Payload, dest); err != nil {
		return common.Validation("malformed %s payload", ev.Type)
	}
	return nil
}
