package domain

import "time"

// Outbound realtime event types
const (
	EventPresenceList     = "presence-list"
	EventMessageReceived  = "message-received"
	EventMessageSent      = "message-sent"
	EventMessageDelivered = "message-delivered"
	EventMessagesRead     = "messages-read"
	EventMessageDeleted   = "message-deleted"
	EventChatDeleted      = "chat-deleted"
	EventUserBlocked      = "user-blocked"
	EventUserUnblocked    = "user-unblocked"
	EventTyping           = "typing"
	EventError            = "error"
)

// PresenceListPayload is the viewer's list of visible online users
type PresenceListPayload struct {
	OnlineUsers []string `json:"onlineUsers"`
}

// DeliveredPayload tells a sender that messages reached the receiver's devices.
// MessageID is set for a single message, Count for a batch.
type DeliveredPayload struct {
	DeliveredAt    time.Time `json:"deliveredAt"`
	ConversationID string    `json:"conversationId"`
	ReceiverID     string    `json:"receiverId"`
	MessageID      int64     `json:"messageId,omitempty"`
	Count          int64     `json:"count"`
}

// ReadPayload tells a sender that the reader has seen their messages
type ReadPayload struct {
	ReadAt         time.Time `json:"readAt"`
	ConversationID string    `json:"conversationId"`
	ReaderID       string    `json:"readerId"`
	Count          int64     `json:"count"`
}

// MessageDeletedPayload is sent to the sessions of the user who hid a message
type MessageDeletedPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      int64  `json:"messageId"`
}

// ChatDeletedPayload is sent to the sessions of the user who hid a conversation
type ChatDeletedPayload struct {
	ConversationID string `json:"conversationId"`
	OtherUserID    string `json:"otherUserId"`
	Count          int64  `json:"count"`
}

// BlockEventPayload is sent to both sides of a block change
type BlockEventPayload struct {
	BlockerID string `json:"blockerId"`
	BlockedID string `json:"blockedId"`
}

// TypingPayload relays an ephemeral typing indicator
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
}

// ErrorPayload reports a failed inbound event to the originating connection
type ErrorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	TempID  string `json:"tempId,omitempty"`
}
