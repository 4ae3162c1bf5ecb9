package service

import (
	"context"
	"time"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/repository"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

// Emitter fans an event out to every live connection of a user (the user's room)
type Emitter interface {
	Emit(userID, eventType string, payload interface{})
}

// Presence is the read side of the presence registry
type Presence interface {
	IsOnline(userID string) bool
	ListOnlineUsers() []string
}

// DeliveryService drives the sent -> delivered -> read lifecycle.
// Every transition that moves at least one row emits a receipt to the sender side.
type DeliveryService interface {
	Send(ctx context.Context, msg *domain.Message) error
	DeliverPending(ctx context.Context, receiverID string) (int, error)
	ReadConversation(ctx context.Context, conversationID, readerID string) (int64, error)
	ReadAll(ctx context.Context, readerID string) ([]domain.ReadReceipt, error)
}

type deliveryService struct {
	messages repository.MessageRepository
	presence Presence
	emitter  Emitter
	now      func() time.Time
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(messages repository.MessageRepository, presence Presence, emitter Emitter) DeliveryService {
	return &deliveryService{
		messages: messages,
		presence: presence,
		emitter:  emitter,
		now:      time.Now,
	}
}

// Send appends msg in the sent state and upgrades it to delivered when the receiver is online.
// The upgrade is best effort: a receiver disconnecting concurrently leaves the message sent.
func (s *deliveryService) Send(ctx context.Context, msg *domain.Message) error {
	msg.Status = domain.StatusSent
	msg.DeliveredAt = nil
	msg.ReadAt = nil
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return err
	}
	messagesSent.Inc()

	if !s.presence.IsOnline(msg.ReceiverID) {
		return nil
	}

	at := s.now()
	n, err := s.messages.MarkDelivered(ctx, msg.ID, at)
	if err != nil {
		// the message is durable in sent; a later connect will deliver it
		pkglogger.GetLogger().Warn().Err(err).Int64("message_id", msg.ID).Msg("delivered upgrade failed")
		return nil
	}
	if n == 0 {
		return nil
	}
	msg.Status = domain.StatusDelivered
	msg.DeliveredAt = &at

	s.emit(msg.SenderID, domain.EventMessageDelivered, domain.DeliveredPayload{
		DeliveredAt:    at,
		ConversationID: msg.ConversationID,
		ReceiverID:     msg.ReceiverID,
		MessageID:      msg.ID,
		Count:          1,
	})
	return nil
}

// DeliverPending moves everything still sent to receiverID to delivered.
// Each sender gets one receipt per conversation carrying the count.
func (s *deliveryService) DeliverPending(ctx context.Context, receiverID string) (int, error) {
	if receiverID == "" {
		return 0, common.Validation("receiver id is required")
	}

	at := s.now()
	moved, err := s.messages.MarkPendingDelivered(ctx, receiverID, at)
	if err != nil {
		return 0, err
	}

	type key struct{ conversationID, senderID string }
	counts := make(map[key]int64)
	var order []key
	for _, m := range moved {
		k := key{m.ConversationID, m.SenderID}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		s.emit(k.senderID, domain.EventMessageDelivered, domain.DeliveredPayload{
			DeliveredAt:    at,
			ConversationID: k.conversationID,
			ReceiverID:     receiverID,
			Count:          counts[k],
		})
	}
	return len(moved), nil
}

// ReadConversation marks every unread message addressed to readerID in the conversation as read
func (s *deliveryService) ReadConversation(ctx context.Context, conversationID, readerID string) (int64, error) {
	if conversationID == "" || readerID == "" {
		return 0, common.Validation("conversation id and reader id are required")
	}
	other, ok := domain.OtherParticipant(conversationID, readerID)
	if !ok {
		return 0, common.Forbidden("not a participant of conversation %s", conversationID)
	}

	at := s.now()
	n, err := s.messages.MarkConversationRead(ctx, conversationID, readerID, at)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.emit(other, domain.EventMessagesRead, domain.ReadPayload{
			ReadAt:         at,
			ConversationID: conversationID,
			ReaderID:       readerID,
			Count:          n,
		})
	}
	return n, nil
}

// ReadAll clears every unread message addressed to readerID
func (s *deliveryService) ReadAll(ctx context.Context, readerID string) ([]domain.ReadReceipt, error) {
	if readerID == "" {
		return nil, common.Validation("reader id is required")
	}

	at := s.now()
	receipts, err := s.messages.MarkAllRead(ctx, readerID, at)
	if err != nil {
		return nil, err
	}
	for _, r := range receipts {
		s.emit(r.SenderID, domain.EventMessagesRead, domain.ReadPayload{
			ReadAt:         at,
			ConversationID: r.ConversationID,
			ReaderID:       readerID,
			Count:          r.Count,
		})
	}
	if receipts == nil {
		receipts = []domain.ReadReceipt{}
	}
	return receipts, nil
}

func (s *deliveryService) emit(userID, eventType string, payload interface{}) {
	if s.emitter == nil {
		return
	}
	receiptsEmitted.WithLabelValues(eventType).Inc()
	s.emitter.Emit(userID, eventType, payload)
}
