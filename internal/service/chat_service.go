package service

import (
	"context"
	"strings"
	"time"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/repository"
	"github.com/vivahsetu/vivahsetu-backend/pkg/cache"
	"github.com/vivahsetu/vivahsetu-backend/pkg/i18n"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
	"github.com/vivahsetu/vivahsetu-backend/pkg/push"
)

const pushTimeout = 2 * time.Second

// ChatService business logic for one-to-one chat
type ChatService interface {
	SendMessage(ctx context.Context, senderID string, req *domain.SendMessageRequest) (*domain.Message, error)
	Typing(ctx context.Context, senderID, receiverID string) error

	ListMessages(ctx context.Context, me, otherUserID string, page, limit int) (*domain.MessagePage, error)
	UnreadCounts(ctx context.Context, me string) (*domain.UnreadSummary, error)
	OnlineStatus(ctx context.Context, me string) ([]string, error)
	SearchMessages(ctx context.Context, me, query, conversationID string) ([]*domain.Message, error)
	ConversationInfo(ctx context.Context, me, otherUserID string) (*domain.ConversationInfo, error)
	ChatList(ctx context.Context, me string, filter domain.ChatListFilter) ([]*domain.ChatListItem, error)

	DeleteMessage(ctx context.Context, me string, messageID int64) error
	DeleteConversation(ctx context.Context, me, otherUserID string) (int64, error)
	MarkRead(ctx context.Context, me, otherUserID string) (int64, error)
	ReadConversation(ctx context.Context, me, conversationID string) (int64, error)
	MarkAllRead(ctx context.Context, me string) ([]domain.ReadReceipt, error)

	TouchLastSeen(ctx context.Context, userID string) error
}

// ChatDeps groups the collaborators of the chat service
type ChatDeps struct {
	Messages repository.MessageRepository
	Profiles repository.ProfileRepository
	Blocks   BlockService
	Delivery DeliveryService
	Presence Presence
	Emitter  Emitter
	Cache    cache.Service
	Notifier push.Notifier
}

type chatService struct {
	messages repository.MessageRepository
	profiles repository.ProfileRepository
	blocks   BlockService
	delivery DeliveryService
	presence Presence
	emitter  Emitter
	cache    cache.Service
	notifier push.Notifier
	cfg      config.ChatConfig
}

// NewChatService creates a new ChatService
func NewChatService(deps ChatDeps, cfg config.ChatConfig) ChatService {
	if deps.Cache == nil {
		deps.Cache = cache.NewService(nil)
	}
	return &chatService{
		messages: deps.Messages,
		profiles: deps.Profiles,
		blocks:   deps.Blocks,
		delivery: deps.Delivery,
		presence: deps.Presence,
		emitter:  deps.Emitter,
		cache:    deps.Cache,
		notifier: deps.Notifier,
		cfg:      cfg,
	}
}

func (s *chatService) validateSend(senderID string, req *domain.SendMessageRequest) error {
	if req == nil {
		return common.Validation("message payload is required")
	}
	if senderID == "" || req.ReceiverID == "" {
		return common.Validation("sender and receiver are required")
	}
	if !domain.ValidUserID(senderID) || !domain.ValidUserID(req.ReceiverID) {
		return common.Validation("user ids may not contain %q", domain.ConversationSeparator)
	}
	if senderID == req.ReceiverID {
		return common.Validation("cannot message yourself")
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Attachments) == 0 {
		return common.Validation("message needs text or an attachment")
	}
	if s.cfg.MaxTextLength > 0 && len([]rune(req.Text)) > s.cfg.MaxTextLength {
		return common.Validation("text exceeds %d characters", s.cfg.MaxTextLength)
	}
	if s.cfg.MaxAttachments > 0 && len(req.Attachments) > s.cfg.MaxAttachments {
		return common.Validation("at most %d attachments per message", s.cfg.MaxAttachments)
	}
	for i, a := range req.Attachments {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.URL) == "" {
			return common.Validation("attachment %d needs a name and url", i)
		}
	}
	return nil
}

// SendMessage validates, checks the block gate, persists and fans the message out.
// Nothing is appended or emitted when any check fails.
func (s *chatService) SendMessage(ctx context.Context, senderID string, req *domain.SendMessageRequest) (*domain.Message, error) {
	if err := s.validateSend(senderID, req); err != nil {
		sendsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	receiver, err := s.profiles.FindByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	ok, err := s.blocks.CanExchange(ctx, senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		sendsRejected.WithLabelValues("blocked").Inc()
		return nil, common.Forbidden("messaging is blocked between these users")
	}

	conversationID := domain.ConversationID(senderID, req.ReceiverID)
	if req.ReplyToID != nil {
		target, err := s.messages.FindByID(ctx, *req.ReplyToID)
		if err != nil {
			return nil, err
		}
		if target.ConversationID != conversationID {
			return nil, common.Validation("reply target belongs to another conversation")
		}
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Text:           req.Text,
		ReplyToID:      req.ReplyToID,
		ClientTempID:   req.TempID,
		CreatedAt:      time.Now(),
	}
	for _, a := range req.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			Name:     a.Name,
			URL:      a.URL,
			MimeType: a.MimeType,
			Size:     a.Size,
		})
	}

	if err := s.delivery.Send(ctx, msg); err != nil {
		return nil, err
	}

	s.emit(req.ReceiverID, domain.EventMessageReceived, msg)
	s.emit(senderID, domain.EventMessageSent, msg)

	if !s.presence.IsOnline(req.ReceiverID) {
		s.pushOffline(ctx, senderID, receiver, msg)
	}
	return msg, nil
}

// pushOffline notifies an offline receiver; failures are logged and swallowed
func (s *chatService) pushOffline(ctx context.Context, senderID string, receiver *domain.Profile, msg *domain.Message) {
	if s.notifier == nil || receiver.DeviceToken == "" {
		return
	}

	senderName := senderID
	if sender, err := s.profile(ctx, senderID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	}

	bundle := i18n.Default()
	body := msg.Text
	if strings.TrimSpace(body) == "" {
		body = bundle.T(i18n.LocaleEn, "push.attachment_body")
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	err := s.notifier.Notify(pushCtx, receiver.DeviceToken,
		bundle.T(i18n.LocaleEn, "push.new_message_title", senderName),
		body,
		map[string]string{
			"type":            domain.EventMessageReceived,
			"conversation_id": msg.ConversationID,
			"sender_id":       senderID,
		})
	if err != nil {
		pushFailures.Inc()
		pkglogger.GetLogger().Warn().Err(err).
			Str("receiver_id", receiver.ID).
			Int64("message_id", msg.ID).
			Msg("push notification failed")
	}
}

// Typing relays an ephemeral indicator. Indicators across a block are dropped silently.
func (s *chatService) Typing(ctx context.Context, senderID, receiverID string) error {
	if senderID == "" || receiverID == "" || senderID == receiverID {
		return common.Validation("a receiver other than yourself is required")
	}
	if !domain.ValidUserID(senderID) || !domain.ValidUserID(receiverID) {
		return common.Validation("user ids may not contain %q", domain.ConversationSeparator)
	}
	ok, err := s.blocks.CanExchange(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.emit(receiverID, domain.EventTyping, domain.TypingPayload{
		ConversationID: domain.ConversationID(senderID, receiverID),
		SenderID:       senderID,
	})
	return nil
}

func (s *chatService) pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if limit < 1 {
		limit = 30
	}
	return page, limit
}

func validateOther(me, otherUserID string) error {
	if me == "" || otherUserID == "" {
		return common.Validation("user id is required")
	}
	if me == otherUserID {
		return common.Validation("a conversation needs two different users")
	}
	if !domain.ValidUserID(me) || !domain.ValidUserID(otherUserID) {
		return common.Validation("user ids may not contain %q", domain.ConversationSeparator)
	}
	return nil
}

// ListMessages returns one page of the conversation with otherUserID in chronological order
func (s *chatService) ListMessages(ctx context.Context, me, otherUserID string, page, limit int) (*domain.MessagePage, error) {
	if err := validateOther(me, otherUserID); err != nil {
		return nil, err
	}
	page, limit = s.pageBounds(page, limit)

	messages, total, err := s.messages.ListByConversation(ctx, domain.ConversationID(me, otherUserID), me, page, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return &domain.MessagePage{
		Messages: messages,
		Total:    total,
		Page:     page,
		Limit:    limit,
		HasMore:  int64(page*limit) < total,
	}, nil
}

func (s *chatService) UnreadCounts(ctx context.Context, me string) (*domain.UnreadSummary, error) {
	counts, err := s.messages.CountUnread(ctx, me)
	if err != nil {
		return nil, err
	}
	summary := &domain.UnreadSummary{Senders: counts}
	for _, c := range counts {
		summary.Total += c.Count
	}
	return summary, nil
}

// OnlineStatus lists online users visible to me: users in a block relation are hidden
func (s *chatService) OnlineStatus(ctx context.Context, me string) ([]string, error) {
	related, err := s.blocks.RelatedUserIDs(ctx, me)
	if err != nil {
		return nil, err
	}
	visible := []string{}
	for _, id := range s.presence.ListOnlineUsers() {
		if id == me || related[id] {
			continue
		}
		visible = append(visible, id)
	}
	return visible, nil
}

func (s *chatService) SearchMessages(ctx context.Context, me, query, conversationID string) ([]*domain.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.Validation("search query is required")
	}
	if conversationID != "" {
		if _, ok := domain.OtherParticipant(conversationID, me); !ok {
			return nil, common.Forbidden("not a participant of conversation %s", conversationID)
		}
	}
	limit := s.cfg.SearchLimit
	if limit < 1 {
		limit = 50
	}

	results, err := s.messages.SearchText(ctx, me, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*domain.Message{}
	}
	return results, nil
}

// ConversationInfo builds the conversation header. Presence is hidden under a block.
func (s *chatService) ConversationInfo(ctx context.Context, me, otherUserID string) (*domain.ConversationInfo, error) {
	if err := validateOther(me, otherUserID); err != nil {
		return nil, err
	}
	other, err := s.profile(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	status, err := s.blocks.BlockStatus(ctx, me, otherUserID)
	if err != nil {
		return nil, err
	}

	info := &domain.ConversationInfo{
		ConversationID: domain.ConversationID(me, otherUserID),
		User:           other.Header(),
		BlockedByMe:    status.BlockedByMe,
		BlockedMe:      status.BlockedMe,
		CanMessage:     !status.Blocked(),
	}
	if !status.Blocked() {
		info.IsOnline = s.presence.IsOnline(otherUserID)
		info.LastSeenAt = other.LastSeenAt
	}
	return info, nil
}

// ChatList returns one row per conversation that still has a message visible to me, newest first
func (s *chatService) ChatList(ctx context.Context, me string, filter domain.ChatListFilter) ([]*domain.ChatListItem, error) {
	latest, err := s.messages.LatestPerConversation(ctx, me)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, me)
	if err != nil {
		return nil, err
	}
	related, err := s.blocks.RelatedUserIDs(ctx, me)
	if err != nil {
		return nil, err
	}

	unreadBySender := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadBySender[u.SenderID] = u.Count
	}
	others := make([]string, len(latest))
	for i, m := range latest {
		others[i] = m.OtherParticipant(me)
	}
	profiles, err := s.profileMap(ctx, others)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.ChatListItem, 0, len(latest))
	for _, m := range latest {
		otherID := m.OtherParticipant(me)
		item := &domain.ChatListItem{
			LastMessage:    m,
			ConversationID: m.ConversationID,
			User:           domain.ProfileHeader{UserID: otherID},
			UnreadCount:    unreadBySender[otherID],
			IsBlocked:      related[otherID],
		}
		if p, ok := profiles[otherID]; ok {
			item.User = p.Header()
		}
		if !item.IsBlocked {
			item.IsOnline = s.presence.IsOnline(otherID)
		}

		switch filter {
		case domain.ChatListUnread:
			if item.UnreadCount == 0 {
				continue
			}
		case domain.ChatListOnline:
			if !item.IsOnline {
				continue
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// DeleteMessage hides a message for its sender; the receiver keeps it
func (s *chatService) DeleteMessage(ctx context.Context, me string, messageID int64) error {
	if me == "" || messageID <= 0 {
		return common.Validation("message id is required")
	}
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.IsParticipant(me) {
		return common.NotFound("message %d", messageID)
	}
	if msg.SenderID != me {
		return common.Forbidden("only the sender can delete a message")
	}

	if err := s.messages.MarkDeletedFor(ctx, messageID, me); err != nil {
		return err
	}
	s.emit(me, domain.EventMessageDeleted, domain.MessageDeletedPayload{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
	})
	return nil
}

// DeleteConversation hides the whole conversation with otherUserID for me
func (s *chatService) DeleteConversation(ctx context.Context, me, otherUserID string) (int64, error) {
	if err := validateOther(me, otherUserID); err != nil {
		return 0, err
	}
	conversationID := domain.ConversationID(me, otherUserID)
	n, err := s.messages.MarkConversationDeletedFor(ctx, conversationID, me)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.emit(me, domain.EventChatDeleted, domain.ChatDeletedPayload{
			ConversationID: conversationID,
			OtherUserID:    otherUserID,
			Count:          n,
		})
	}
	return n, nil
}

func (s *chatService) MarkRead(ctx context.Context, me, otherUserID string) (int64, error) {
	if err := validateOther(me, otherUserID); err != nil {
		return 0, err
	}
	return s.delivery.ReadConversation(ctx, domain.ConversationID(me, otherUserID), me)
}

func (s *chatService) ReadConversation(ctx context.Context, me, conversationID string) (int64, error) {
	return s.delivery.ReadConversation(ctx, conversationID, me)
}

func (s *chatService) MarkAllRead(ctx context.Context, me string) ([]domain.ReadReceipt, error) {
	return s.delivery.ReadAll(ctx, me)
}

// TouchLastSeen stamps the profile when the user's last connection closes
func (s *chatService) TouchLastSeen(ctx context.Context, userID string) error {
	if err := s.profiles.UpdateLastSeen(ctx, userID, time.Now()); err != nil {
		return err
	}
	if err := s.cache.InvalidateProfile(ctx, userID); err != nil {
		pkglogger.GetLogger().Debug().Err(err).Str("user_id", userID).Msg("profile cache invalidate failed")
	}
	return nil
}

// profile reads through the profile cache
func (s *chatService) profile(ctx context.Context, userID string) (*domain.Profile, error) {
	var cached domain.Profile
	if err := s.cache.GetProfile(ctx, userID, &cached); err == nil {
		return &cached, nil
	}

	p, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, p)
	return p, nil
}

func (s *chatService) profileMap(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	result := make(map[string]*domain.Profile, len(ids))
	var missing []string
	for _, id := range ids {
		var cached domain.Profile
		if err := s.cache.GetProfile(ctx, id, &cached); err == nil {
			result[id] = &cached
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	found, err := s.profiles.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range found {
		result[id] = p
		s.cacheProfile(ctx, p)
	}
	return result, nil
}

func (s *chatService) cacheProfile(ctx context.Context, p *domain.Profile) {
	if err := s.cache.SetProfile(ctx, p.ID, p); err != nil {
		pkglogger.GetLogger().Debug().Err(err).Str("user_id", p.ID).Msg("profile cache write failed")
	}
}

func (s *chatService) emit(userID, eventType string, payload interface{}) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(userID, eventType, payload)
}
