package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
)

func TestDeliveryService_OfflineThenRead(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	msg := f.send(t, "u1", "u2", "hello")
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Empty(t, f.emitter.to("u1", domain.EventMessageDelivered))

	n, err := f.delivery.ReadConversation(ctx, domain.ConversationID("u2", "u1"), "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := f.messages.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, stored.Status)

	receipts := f.emitter.to("u1", domain.EventMessagesRead)
	require.Len(t, receipts, 1)
	payload := receipts[0].Payload.(domain.ReadPayload)
	assert.Equal(t, "u2", payload.ReaderID)
	assert.Equal(t, int64(1), payload.Count)
	assert.Equal(t, "u1_u2", payload.ConversationID)
}

func TestDeliveryService_OnlineReceiverGetsDelivered(t *testing.T) {
	f := newChatFixture(t)
	f.presence.Register("u2", "conn-u2")

	msg := f.send(t, "u1", "u2", "are you there?")
	assert.Equal(t, domain.StatusDelivered, msg.Status)
	require.NotNil(t, msg.DeliveredAt)

	stored, err := f.messages.FindByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)

	receipts := f.emitter.to("u1", domain.EventMessageDelivered)
	require.Len(t, receipts, 1)
	payload := receipts[0].Payload.(domain.DeliveredPayload)
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, "u2", payload.ReceiverID)
	assert.Empty(t, f.emitter.to("u1", domain.EventMessagesRead))
}

func TestDeliveryService_ReadAckIsIdempotent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.send(t, "u1", "u2", "one")
	f.send(t, "u1", "u2", "two")

	conv := domain.ConversationID("u1", "u2")
	n, err := f.delivery.ReadConversation(ctx, conv, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.delivery.ReadConversation(ctx, conv, "u2")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Len(t, f.emitter.to("u1", domain.EventMessagesRead), 1, "zero-row transitions emit nothing")
}

func TestDeliveryService_ReadConversationRejectsOutsider(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.delivery.ReadConversation(context.Background(), domain.ConversationID("u1", "u2"), "u3")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.delivery.ReadConversation(context.Background(), "", "u3")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeliveryService_DeliverPendingOneReceiptPerSender(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.send(t, "u1", "u3", "a")
	f.send(t, "u1", "u3", "b")
	f.send(t, "u2", "u3", "c")
	f.emitter.reset()

	moved, err := f.delivery.DeliverPending(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	fromU1 := f.emitter.to("u1", domain.EventMessageDelivered)
	require.Len(t, fromU1, 1)
	assert.Equal(t, int64(2), fromU1[0].Payload.(domain.DeliveredPayload).Count)

	fromU2 := f.emitter.to("u2", domain.EventMessageDelivered)
	require.Len(t, fromU2, 1)
	assert.Equal(t, int64(1), fromU2[0].Payload.(domain.DeliveredPayload).Count)

	moved, err = f.delivery.DeliverPending(ctx, "u3")
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestDeliveryService_ReadAll(t *testing.T) {
	f := newChatFixture(t)
	f.send(t, "u2", "u1", "x")
	f.send(t, "u3", "u1", "y")
	f.send(t, "u3", "u1", "z")

	receipts, err := f.delivery.ReadAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	assert.Len(t, f.emitter.to("u2", domain.EventMessagesRead), 1)
	fromU3 := f.emitter.to("u3", domain.EventMessagesRead)
	require.Len(t, fromU3, 1)
	assert.Equal(t, int64(2), fromU3[0].Payload.(domain.ReadPayload).Count)

	receipts, err = f.delivery.ReadAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, receipts)
}
