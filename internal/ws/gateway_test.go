package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/presence"
	"github.com/vivahsetu/vivahsetu-backend/internal/repository"
	"github.com/vivahsetu/vivahsetu-backend/internal/service"
	"github.com/vivahsetu/vivahsetu-backend/internal/testutil"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type gatewayEnv struct {
	server   *httptest.Server
	hub      *Hub
	messages repository.MessageRepository
	profiles repository.ProfileRepository
	blocks   service.BlockService
}

func newGatewayEnv(t *testing.T, limiter *SendLimiter) *gatewayEnv {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedProfiles(t, db, "u1", "u2", "u3")

	registry := presence.NewRegistry()
	hub := NewHub(registry)
	go hub.Run()

	messages := repository.NewMessageRepository(db)
	profiles := repository.NewProfileRepository(db)
	blocks := service.NewBlockService(repository.NewBlockRepository(db), profiles, hub)
	delivery := service.NewDeliveryService(messages, registry, hub)
	chat := service.NewChatService(service.ChatDeps{
		Messages: messages,
		Profiles: profiles,
		Blocks:   blocks,
		Delivery: delivery,
		Presence: registry,
		Emitter:  hub,
	}, config.Default().Chat)
	gateway := NewGateway(hub, chat, delivery, limiter)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, r.URL.Query().Get("user"), gateway)
		go client.WritePump()
		gateway.Connect(client)
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return &gatewayEnv{server: server, hub: hub, messages: messages, profiles: profiles, blocks: blocks}
}

func (e *gatewayEnv) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// the first presence list proves the connection is registered
	expectFrame(t, conn, domain.EventPresenceList)
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, eventType string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": eventType, "payload": payload}))
}

// expectFrame reads until a frame of eventType arrives
func expectFrame(t *testing.T, conn *websocket.Conn, eventType string) frame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s: %v", eventType, err)
		}
		if f.Type == eventType {
			return f
		}
	}
}

func TestGateway_SendDeliverAndRead(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice := env.dial(t, "u1")
	bob := env.dial(t, "u2")

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{
		"receiverId": "u2",
		"text":       "hello",
		"tempId":     "t-1",
	})

	received := expectFrame(t, bob, domain.EventMessageReceived)
	var msg domain.Message
	require.NoError(t, json.Unmarshal(received.Payload, &msg))
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, domain.StatusDelivered, msg.Status)

	delivered := expectFrame(t, alice, domain.EventMessageDelivered)
	var receipt domain.DeliveredPayload
	require.NoError(t, json.Unmarshal(delivered.Payload, &receipt))
	assert.Equal(t, msg.ID, receipt.MessageID)

	sent := expectFrame(t, alice, domain.EventMessageSent)
	var echo domain.Message
	require.NoError(t, json.Unmarshal(sent.Payload, &echo))
	assert.Equal(t, "t-1", echo.ClientTempID)

	writeEvent(t, bob, EventReadAck, ReadAckPayload{ConversationID: domain.ConversationID("u2", "u1")})
	read := expectFrame(t, alice, domain.EventMessagesRead)
	var readReceipt domain.ReadPayload
	require.NoError(t, json.Unmarshal(read.Payload, &readReceipt))
	assert.Equal(t, "u2", readReceipt.ReaderID)
	assert.Equal(t, int64(1), readReceipt.Count)

	stored, err := env.messages.FindByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, stored.Status)
}

func TestGateway_SenderOtherSessionsGetConfirmation(t *testing.T) {
	env := newGatewayEnv(t, nil)
	phone := env.dial(t, "u1")
	laptop := env.dial(t, "u1")

	writeEvent(t, phone, EventSendMessage, map[string]interface{}{"receiverId": "u3", "text": "hi"})

	expectFrame(t, phone, domain.EventMessageSent)
	expectFrame(t, laptop, domain.EventMessageSent)
}

func TestGateway_InvalidEventKeepsConnection(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice := env.dial(t, "u1")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	errFrame := expectFrame(t, alice, domain.EventError)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(errFrame.Payload, &payload))
	assert.Equal(t, "VALIDATION_ERROR", payload.Code)

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{"receiverId": "u2", "text": "", "tempId": "t-9"})
	errFrame = expectFrame(t, alice, domain.EventError)
	require.NoError(t, json.Unmarshal(errFrame.Payload, &payload))
	assert.Equal(t, EventSendMessage, payload.Type)
	assert.Equal(t, "t-9", payload.TempID)

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{"receiverId": "u2", "text": "still here"})
	expectFrame(t, alice, domain.EventMessageSent)
}

func TestGateway_BlockedSendReturnsError(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice := env.dial(t, "u1")
	bob := env.dial(t, "u2")

	_, err := env.blocks.Block(context.Background(), "u2", "u1")
	require.NoError(t, err)
	expectFrame(t, alice, domain.EventUserBlocked)
	expectFrame(t, bob, domain.EventUserBlocked)

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{"receiverId": "u2", "text": "why?"})
	errFrame := expectFrame(t, alice, domain.EventError)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(errFrame.Payload, &payload))
	assert.Equal(t, "FORBIDDEN", payload.Code)

	page, total, err := env.messages.ListByConversation(context.Background(), domain.ConversationID("u1", "u2"), "u2", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

func TestGateway_DeliverPendingOnConnect(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice := env.dial(t, "u1")

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{"receiverId": "u3", "text": "while you were away"})
	expectFrame(t, alice, domain.EventMessageSent)

	env.dial(t, "u3")
	delivered := expectFrame(t, alice, domain.EventMessageDelivered)
	var receipt domain.DeliveredPayload
	require.NoError(t, json.Unmarshal(delivered.Payload, &receipt))
	assert.Equal(t, "u3", receipt.ReceiverID)
	assert.Equal(t, int64(1), receipt.Count)
}

func TestGateway_PresenceTransitions(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice := env.dial(t, "u1")
	bob := env.dial(t, "u2")

	online := expectFrame(t, alice, domain.EventPresenceList)
	var list domain.PresenceListPayload
	require.NoError(t, json.Unmarshal(online.Payload, &list))
	assert.Equal(t, []string{"u2"}, list.OnlineUsers)

	require.NoError(t, bob.Close())
	offline := expectFrame(t, alice, domain.EventPresenceList)
	require.NoError(t, json.Unmarshal(offline.Payload, &list))
	assert.Empty(t, list.OnlineUsers)

	require.Eventually(t, func() bool {
		p, err := env.profiles.FindByID(context.Background(), "u2")
		return err == nil && p.LastSeenAt != nil
	}, 3*time.Second, 20*time.Millisecond)
	assert.False(t, env.hub.Presence().IsOnline("u2"))
}

func TestGateway_SendRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newGatewayEnv(t, NewSendLimiter(client, 1))
	alice := env.dial(t, "u1")

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{"receiverId": "u2", "text": "one"})
	expectFrame(t, alice, domain.EventMessageSent)

	writeEvent(t, alice, EventSendMessage, map[string]interface{}{"receiverId": "u2", "text": "two"})
	errFrame := expectFrame(t, alice, domain.EventError)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(errFrame.Payload, &payload))
	assert.Equal(t, "RATE_LIMITED", payload.Code)
}
