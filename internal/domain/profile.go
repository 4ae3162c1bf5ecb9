package domain

import "time"

// Profile is the subset of the matrimonial profile record the chat subsystem reads.
// The profile service owns the row; chat only stamps LastSeenAt.
type Profile struct {
	LastSeenAt  *time.Time `gorm:"column:last_seen_at" json:"last_seen_at,omitempty"`
	ID          string     `gorm:"column:id;size:64;primaryKey" json:"id"`
	DisplayName string     `gorm:"column:display_name;size:100" json:"display_name"`
	PhotoURL    string     `gorm:"column:photo_url;size:1024" json:"photo_url,omitempty"`
	DeviceToken string     `gorm:"column:device_token;size:255" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ProfileHeader is what a chat list row or conversation header shows about a user
type ProfileHeader struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Header projects a Profile onto a ProfileHeader
func (p *Profile) Header() ProfileHeader {
	return ProfileHeader{UserID: p.ID, DisplayName: p.DisplayName, PhotoURL: p.PhotoURL}
}

// ConversationInfo is the header of a conversation as seen by one participant.
// Presence fields are cleared when a block exists in either direction.
type ConversationInfo struct {
	LastSeenAt     *time.Time    `json:"last_seen_at,omitempty"`
	ConversationID string        `json:"conversation_id"`
	User           ProfileHeader `json:"user"`
	IsOnline       bool          `json:"is_online"`
	BlockedByMe    bool          `json:"blocked_by_me"`
	BlockedMe      bool          `json:"blocked_me"`
	CanMessage     bool          `json:"can_message"`
}

// ChatListFilter narrows the chat list
type ChatListFilter string

const (
	ChatListAll    ChatListFilter = "all"
	ChatListUnread ChatListFilter = "unread"
	ChatListOnline ChatListFilter = "online"
)

// ParseChatListFilter defaults to all; ok is false for unknown values
func ParseChatListFilter(s string) (ChatListFilter, bool) {
	switch ChatListFilter(s) {
	case "", ChatListAll:
		return ChatListAll, true
	case ChatListUnread:
		return ChatListUnread, true
	case ChatListOnline:
		return ChatListOnline, true
	}
	return "", false
}

// ChatListItem is one conversation in the viewer's chat list
type ChatListItem struct {
	LastMessage    *Message      `json:"last_message"`
	ConversationID string        `json:"conversation_id"`
	User           ProfileHeader `json:"user"`
	UnreadCount    int64         `json:"unread_count"`
	IsOnline       bool          `json:"is_online"`
	IsBlocked      bool          `json:"is_blocked"`
}
