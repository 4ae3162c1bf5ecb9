package domain

import "time"

// UserBlock is a directional block: BlockerID no longer exchanges messages with BlockedID
type UserBlock struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	BlockerID string    `gorm:"column:blocker_id;size:64;not null;uniqueIndex:uq_chat_block_pair,priority:1" json:"blocker_id"`
	BlockedID string    `gorm:"column:blocked_id;size:64;not null;uniqueIndex:uq_chat_block_pair,priority:2;index" json:"blocked_id"`
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
}

func (UserBlock) TableName() string {
	return "chat_user_blocks"
}

// BlockResponse represents a block item in API responses
type BlockResponse struct {
	BlockedAt   time.Time `json:"blocked_at"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
}

// BlockStatus describes the block relation between the viewer and another user
type BlockStatus struct {
	BlockedByMe bool `json:"blocked_by_me"`
	BlockedMe   bool `json:"blocked_me"`
}

// Blocked reports whether either direction exists
func (s BlockStatus) Blocked() bool {
	return s.BlockedByMe || s.BlockedMe
}
