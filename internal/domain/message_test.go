package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationID_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"},
		{"b", "a"},
		{"65f1c0a", "65f1c0b"},
		{"same", "same"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationID(p[0], p[1]), ConversationID(p[1], p[0]))
	}
	assert.Equal(t, "u1_u2", ConversationID("u2", "u1"))
}

func TestMessageStatus_CanAdvanceTo(t *testing.T) {
	assert.True(t, StatusSent.CanAdvanceTo(StatusDelivered))
	assert.True(t, StatusSent.CanAdvanceTo(StatusRead))
	assert.True(t, StatusDelivered.CanAdvanceTo(StatusRead))

	assert.False(t, StatusRead.CanAdvanceTo(StatusDelivered))
	assert.False(t, StatusDelivered.CanAdvanceTo(StatusSent))
	assert.False(t, StatusRead.CanAdvanceTo(StatusRead))
	assert.False(t, MessageStatus("bogus").CanAdvanceTo(StatusRead))
}

func TestParseChatListFilter(t *testing.T) {
	f, ok := ParseChatListFilter("")
	assert.True(t, ok)
	assert.Equal(t, ChatListAll, f)

	f, ok = ParseChatListFilter("unread")
	assert.True(t, ok)
	assert.Equal(t, ChatListUnread, f)

	_, ok = ParseChatListFilter("archived")
	assert.False(t, ok)
}

func TestOtherParticipant(t *testing.T) {
	other, ok := OtherParticipant("u1_u2", "u1")
	assert.True(t, ok)
	assert.Equal(t, "u2", other)

	other, ok = OtherParticipant("u1_u2", "u2")
	assert.True(t, ok)
	assert.Equal(t, "u1", other)

	_, ok = OtherParticipant("u1_u2", "u3")
	assert.False(t, ok)

	_, ok = OtherParticipant("u1_u2", "u")
	assert.False(t, ok)

	_, ok = OtherParticipant("u1_", "u1")
	assert.False(t, ok)
}

func TestValidUserID(t *testing.T) {
	assert.True(t, ValidUserID("u1"))
	assert.True(t, ValidUserID("65f1c0a-9"))
	assert.False(t, ValidUserID(""))
	assert.False(t, ValidUserID("a_b"))
}

func TestOtherParticipant_AmbiguousIDs(t *testing.T) {
	// "a_b"+"c" and "a"+"b_c" both join to the same string
	assert.Equal(t, ConversationID("a_b", "c"), ConversationID("a", "b_c"))

	_, ok := OtherParticipant("a_b_c", "a")
	assert.False(t, ok)
	_, ok = OtherParticipant("a_b_c", "c")
	assert.False(t, ok)
	_, ok = OtherParticipant("a_b_c", "a_b")
	assert.False(t, ok)
}
