package domain

import (
	"sort"
	"strings"
	"time"
)

// ConversationSeparator joins the two sorted participant ids.
// User ids may not contain it, otherwise ("a_b","c") and ("a","b_c") would share a conversation.
const ConversationSeparator = "_"

// ValidUserID reports whether id can take part in a conversation
func ValidUserID(id string) bool {
	return id != "" && !strings.Contains(id, ConversationSeparator)
}

// ConversationID returns the order-independent identifier of the conversation between a and b.
// Every producer and consumer must address conversations through this function.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ConversationSeparator)
}

// OtherParticipant resolves the participant of conversationID that is not userID.
// ok is false when userID does not take part in the conversation.
func OtherParticipant(conversationID, userID string) (string, bool) {
	if !ValidUserID(userID) {
		return "", false
	}
	var other string
	switch {
	case strings.HasPrefix(conversationID, userID+ConversationSeparator):
		other = strings.TrimPrefix(conversationID, userID+ConversationSeparator)
	case strings.HasSuffix(conversationID, ConversationSeparator+userID):
		other = strings.TrimSuffix(conversationID, ConversationSeparator+userID)
	default:
		return "", false
	}
	if !ValidUserID(other) || ConversationID(userID, other) != conversationID {
		return "", false
	}
	return other, true
}

// MessageStatus is the delivery lifecycle state of a message
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// rank orders statuses; a message only moves to a higher rank
func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// CanAdvanceTo reports whether s -> next is a forward transition.
// sent -> read is allowed (delivered may be skipped).
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.rank() > s.rank() && s.rank() > 0
}

// Message is one entry of the chat message log (chat_messages table)
type Message struct {
	CreatedAt      time.Time     `gorm:"column:created_at;index:idx_chat_conv_created,priority:2" json:"created_at"`
	DeliveredAt    *time.Time    `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	ReadAt         *time.Time    `gorm:"column:read_at" json:"read_at,omitempty"`
	ReplyToID      *int64        `gorm:"column:reply_to_id" json:"reply_to_id,omitempty"`
	ConversationID string        `gorm:"column:conversation_id;size:161;not null;index:idx_chat_conv_created,priority:1" json:"conversation_id"`
	SenderID       string        `gorm:"column:sender_id;size:64;not null;index" json:"sender_id"`
	ReceiverID     string        `gorm:"column:receiver_id;size:64;not null;index:idx_chat_receiver_status,priority:1" json:"receiver_id"`
	Text           string        `gorm:"column:text;type:text" json:"text"`
	Status         MessageStatus `gorm:"column:status;size:16;not null;default:'sent';index:idx_chat_receiver_status,priority:2" json:"status"`
	ClientTempID   string        `gorm:"column:client_temp_id;size:64" json:"temp_id,omitempty"`
	Attachments    []Attachment  `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments"`
	ID             int64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
}

func (Message) TableName() string {
	return "chat_messages"
}

// OtherParticipant returns the participant that is not userID
func (m *Message) OtherParticipant(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// IsParticipant reports whether userID is the sender or the receiver
func (m *Message) IsParticipant(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Attachment is a blob reference carried by a message, ordered by Position
type Attachment struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MessageID int64  `gorm:"column:message_id;not null;index" json:"-"`
	Position  int    `gorm:"column:position;not null" json:"-"`
	Name      string `gorm:"column:name;size:255;not null" json:"name"`
	URL       string `gorm:"column:url;size:1024;not null" json:"url"`
	MimeType  string `gorm:"column:mime_type;size:128" json:"mime_type"`
	Size      int64  `gorm:"column:size" json:"size"`
}

func (Attachment) TableName() string {
	return "chat_message_attachments"
}

// MessageDeletion hides a message from one participant only
type MessageDeletion struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UserID    string    `gorm:"column:user_id;size:64;primaryKey"`
	MessageID int64     `gorm:"column:message_id;primaryKey"`
}

func (MessageDeletion) TableName() string {
	return "chat_message_deletions"
}

// AttachmentInput is the client-supplied reference to an already uploaded blob
type AttachmentInput struct {
	Name     string `json:"name" binding:"required"`
	URL      string `json:"url" binding:"required"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// SendMessageRequest is the payload of a send-message event
type SendMessageRequest struct {
	ReceiverID  string            `json:"receiverId"`
	Text        string            `json:"text"`
	ReplyToID   *int64            `json:"replyToId,omitempty"`
	Attachments []AttachmentInput `json:"attachments,omitempty"`
	TempID      string            `json:"tempId,omitempty"`
}

// MessagePage is one page of a conversation in chronological order
type MessagePage struct {
	Messages []*Message `json:"messages"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	HasMore  bool       `json:"has_more"`
}

// UnreadCount is the per-sender unread badge
type UnreadCount struct {
	LastMessageAt time.Time `json:"last_message_at"`
	SenderID      string    `json:"sender_id"`
	Count         int64     `json:"count"`
}

// UnreadSummary groups badges with their total
type UnreadSummary struct {
	Senders []UnreadCount `json:"senders"`
	Total   int64         `json:"total"`
}

// ReadReceipt counts messages moved to read in one conversation for one sender
type ReadReceipt struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Count          int64  `json:"count"`
}
