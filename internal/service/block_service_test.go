package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
)

func TestBlockService_Directional(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.blocks.Block(ctx, "u1", "u2")
	require.NoError(t, err)

	status, err := f.blocks.BlockStatus(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, status.BlockedByMe)
	assert.False(t, status.BlockedMe)

	ok, err := f.blocks.CanExchange(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.blocks.CanExchange(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.False(t, ok, "either direction forbids exchange")

	ok, err = f.blocks.CanExchange(ctx, "u2", "u3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlockService_MutualBlocksLiftIndependently(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.blocks.Block(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = f.blocks.Block(ctx, "u2", "u1")
	require.NoError(t, err)

	require.NoError(t, f.blocks.Unblock(ctx, "u1", "u2"))

	status, err := f.blocks.BlockStatus(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, status.BlockedByMe)
	assert.True(t, status.BlockedMe)
	for _, pair := range [][2]string{{"u1", "u2"}, {"u2", "u1"}} {
		ok, err := f.blocks.CanExchange(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, ok, "u2's own block still gates %s -> %s", pair[0], pair[1])
	}

	require.NoError(t, f.blocks.Unblock(ctx, "u2", "u1"))
	ok, err := f.blocks.CanExchange(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlockService_ReblockIsSilentNoOp(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.blocks.Block(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "User u2", first.DisplayName)

	_, err = f.blocks.Block(ctx, "u1", "u2")
	require.NoError(t, err)

	list, err := f.blocks.ListBlocks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].UserID)

	assert.Len(t, f.emitter.to("u1", domain.EventUserBlocked), 1)
	assert.Len(t, f.emitter.to("u2", domain.EventUserBlocked), 1)
}

func TestBlockService_BlockValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.blocks.Block(ctx, "u1", "u1")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.blocks.Block(ctx, "u1", "u2_u3")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.blocks.Block(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBlockService_Unblock(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.blocks.Unblock(ctx, "u1", "u2"), common.ErrNotFound)

	_, err := f.blocks.Block(ctx, "u1", "u2")
	require.NoError(t, err)
	require.NoError(t, f.blocks.Unblock(ctx, "u1", "u2"))

	ok, err := f.blocks.CanExchange(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, ok)

	events := f.emitter.to("u2", domain.EventUserUnblocked)
	require.Len(t, events, 1)
	assert.Equal(t, domain.BlockEventPayload{BlockerID: "u1", BlockedID: "u2"}, events[0].Payload)
}
