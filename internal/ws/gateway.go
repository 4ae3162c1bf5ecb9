package ws

import (
	"context"
	"time"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/service"
	"github.com/vivahsetu/vivahsetu-backend/pkg/i18n"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

const eventTimeout = 10 * time.Second

// Gateway bridges socket events to the chat services.
// Failed events are logged and answered with an error frame; the connection stays open.
type Gateway struct {
	hub      *Hub
	chat     service.ChatService
	delivery service.DeliveryService
	limiter  *SendLimiter
}

// NewGateway creates a new Gateway
func NewGateway(hub *Hub, chat service.ChatService, delivery service.DeliveryService, limiter *SendLimiter) *Gateway {
	return &Gateway{
		hub:      hub,
		chat:     chat,
		delivery: delivery,
		limiter:  limiter,
	}
}

// Connect registers the client. When its user comes online every visible
// presence list is refreshed and pending messages are delivered.
func (g *Gateway) Connect(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	first := g.hub.Register(client)
	client.log.Debug().Bool("first", first).Msg("connected")

	if !first {
		g.sendPresence(ctx, client.userID, client.id)
		return
	}

	g.broadcastPresence(ctx)
	if _, err := g.delivery.DeliverPending(ctx, client.userID); err != nil {
		client.log.Warn().Err(err).Msg("deliver pending failed")
	}
}

// Disconnect unregisters the client. The last connection of a user stamps last-seen
// and refreshes presence for everyone else.
func (g *Gateway) Disconnect(client *Client) {
	last := g.hub.Unregister(client)
	client.log.Debug().Bool("last", last).Msg("disconnected")
	if !last {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := g.chat.TouchLastSeen(ctx, client.userID); err != nil {
		client.log.Warn().Err(err).Msg("last seen update failed")
	}
	g.broadcastPresence(ctx)
}

// Dispatch handles one inbound frame
func (g *Gateway) Dispatch(client *Client, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	ev, err := parseInbound(data)
	if err != nil {
		g.fail(client, "", "", err)
		return
	}

	tempID, err := g.handle(ctx, client, ev)
	if err != nil {
		g.fail(client, ev.Type, tempID, err)
	}
}

func (g *Gateway) handle(ctx context.Context, client *Client, ev *inboundEvent) (string, error) {
	switch ev.Type {
	case EventSendMessage:
		var req domain.SendMessageRequest
		if err := decodePayload(ev, &req); err != nil {
			return "", err
		}
		if err := g.limiter.Allow(ctx, client.userID); err != nil {
			return req.TempID, err
		}
		_, err := g.chat.SendMessage(ctx, client.userID, &req)
		return req.TempID, err

	case EventReadAck:
		var req ReadAckPayload
		if err := decodePayload(ev, &req); err != nil {
			return "", err
		}
		if req.All {
			_, err := g.chat.MarkAllRead(ctx, client.userID)
			return "", err
		}
		_, err := g.chat.ReadConversation(ctx, client.userID, req.ConversationID)
		return "", err

	case EventTyping:
		var req TypingRequest
		if err := decodePayload(ev, &req); err != nil {
			return "", err
		}
		return "", g.chat.Typing(ctx, client.userID, req.ReceiverID)

	default:
		return "", common.Validation("unknown event type %q", ev.Type)
	}
}

func (g *Gateway) fail(client *Client, eventType, tempID string, err error) {
	kind := common.Classify(err)
	logEvent := client.log.Warn()
	if kind.Status >= 500 {
		logEvent = client.log.Error()
	}
	logEvent.Err(err).Str("event", eventType).Msg("realtime event failed")

	message := common.Detail(err)
	if message == "" {
		message = i18n.Default().T(i18n.LocaleEn, kind.MessageKey)
	}
	g.hub.SendToConn(client.id, &Event{
		Type: domain.EventError,
		Payload: domain.ErrorPayload{
			Type:    eventType,
			Code:    kind.Code,
			Message: message,
			TempID:  tempID,
		},
	})
}

// sendPresence sends the presence list visible to userID, to one connection when connID is set
func (g *Gateway) sendPresence(ctx context.Context, userID, connID string) {
	online, err := g.chat.OnlineStatus(ctx, userID)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("user_id", userID).Msg("presence list failed")
		return
	}
	event := &Event{Type: domain.EventPresenceList, Payload: domain.PresenceListPayload{OnlineUsers: online}}
	if connID != "" {
		g.hub.SendToConn(connID, event)
		return
	}
	g.hub.SendToUser(userID, event)
}

// broadcastPresence refreshes every online user's list; each list hides users across a block
func (g *Gateway) broadcastPresence(ctx context.Context) {
	for _, userID := range g.hub.Presence().ListOnlineUsers() {
		g.sendPresence(ctx, userID, "")
	}
}
