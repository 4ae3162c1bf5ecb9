package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository is the chat message log. It is the only writer of message rows.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID, requesterID string, page, limit int) ([]*domain.Message, int64, error)
	MarkDeletedFor(ctx context.Context, messageID int64, userID string) error
	MarkConversationDeletedFor(ctx context.Context, conversationID, userID string) (int64, error)
	SearchText(ctx context.Context, requesterID, query, conversationID string, limit int) ([]*domain.Message, error)
	CountUnread(ctx context.Context, receiverID string) ([]domain.UnreadCount, error)
	LatestPerConversation(ctx context.Context, userID string) ([]*domain.Message, error)

	// Delivery transitions. Each is a single predicate-guarded UPDATE.
	MarkDelivered(ctx context.Context, id int64, at time.Time) (int64, error)
	MarkPendingDelivered(ctx context.Context, receiverID string, at time.Time) ([]*domain.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, readerID string, at time.Time) ([]domain.ReadReceipt, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// visibleTo hides messages the user soft-deleted
func visibleTo(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"NOT EXISTS (SELECT 1 FROM chat_message_deletions d WHERE d.message_id = chat_messages.id AND d.user_id = ?)",
			userID,
		)
	}
}

func participant(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(chat_messages.sender_id = ? OR chat_messages.receiver_id = ?)", userID, userID)
	}
}

func orderedAttachments(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Append inserts the message and its attachments in one transaction
func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	for i := range msg.Attachments {
		msg.Attachments[i].Position = i
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(msg).Error
	})
	return common.StoreError("append message", err)
}

// FindByID loads a message with its attachments
func (r *messageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments", orderedAttachments).
		Where("id = ?", id).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("message %d", id)
	}
	if err != nil {
		return nil, common.StoreError("find message", err)
	}
	return &msg, nil
}

// ListByConversation pages newest-first and returns each page in chronological order
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID, requesterID string, page, limit int) ([]*domain.Message, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Scopes(participant(requesterID), visibleTo(requesterID))

	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, common.StoreError("count conversation", err)
	}

	var messages []*domain.Message
	offset := (page - 1) * limit
	err := base.Session(&gorm.Session{}).
		Preload("Attachments", orderedAttachments).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, common.StoreError("list conversation", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

// MarkDeletedFor hides one message from userID; repeating it is a no-op
func (r *messageRepository) MarkDeletedFor(ctx context.Context, messageID int64, userID string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.MessageDeletion{MessageID: messageID, UserID: userID, CreatedAt: time.Now()}).Error
	return common.StoreError("soft delete message", err)
}

// MarkConversationDeletedFor hides every message of the conversation from userID
func (r *messageRepository) MarkConversationDeletedFor(ctx context.Context, conversationID, userID string) (int64, error) {
	sql := insertIgnore(r.db) + ` INTO chat_message_deletions (message_id, user_id, created_at)
		SELECT m.id, ?, ? FROM chat_messages m
		WHERE m.conversation_id = ?
		AND (m.sender_id = ? OR m.receiver_id = ?)
		AND NOT EXISTS (SELECT 1 FROM chat_message_deletions d WHERE d.message_id = m.id AND d.user_id = ?)`

	result := r.db.WithContext(ctx).Exec(sql, userID, time.Now(), conversationID, userID, userID, userID)
	if result.Error != nil {
		return 0, common.StoreError("soft delete conversation", result.Error)
	}
	return result.RowsAffected, nil
}

// insertIgnore returns the dialect's duplicate-tolerant INSERT keyword
func insertIgnore(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "INSERT IGNORE"
	case "sqlite":
		return "INSERT OR IGNORE"
	default:
		return "INSERT"
	}
}

// likeEscape escapes LIKE wildcards with '!' which is portable across MySQL and SQLite
func likeEscape(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}

// SearchText matches text bodies and attachment names case-insensitively, newest first
func (r *messageRepository) SearchText(ctx context.Context, requesterID, query, conversationID string, limit int) ([]*domain.Message, error) {
	pattern := likeEscape(query)

	q := r.db.WithContext(ctx).Model(&domain.Message{}).
		Scopes(participant(requesterID), visibleTo(requesterID)).
		Where(`(LOWER(chat_messages.text) LIKE ? ESCAPE '!' OR EXISTS (
			SELECT 1 FROM chat_message_attachments a
			WHERE a.message_id = chat_messages.id AND LOWER(a.name) LIKE ? ESCAPE '!'))`, pattern, pattern)
	if conversationID != "" {
		q = q.Where("chat_messages.conversation_id = ?", conversationID)
	}

	var messages []*domain.Message
	err := q.Preload("Attachments", orderedAttachments).
		Order("chat_messages.id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, common.StoreError("search messages", err)
	}
	return messages, nil
}

type unreadRow struct {
	SenderID string
	Count    int64
	LastID   int64
}

// CountUnread groups unread messages addressed to receiverID by sender, most recent first
func (r *messageRepository) CountUnread(ctx context.Context, receiverID string) ([]domain.UnreadCount, error) {
	var rows []unreadRow
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("sender_id, COUNT(*) AS count, MAX(id) AS last_id").
		Where("receiver_id = ? AND status <> ?", receiverID, domain.StatusRead).
		Scopes(visibleTo(receiverID)).
		Group("sender_id").
		Order("last_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, common.StoreError("count unread", err)
	}
	if len(rows) == 0 {
		return []domain.UnreadCount{}, nil
	}

	// aggregate timestamps do not scan portably, so resolve them through the ids
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.LastID
	}
	var stamps []struct {
		ID        int64
		CreatedAt time.Time
	}
	if err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("id, created_at").Where("id IN ?", ids).Scan(&stamps).Error; err != nil {
		return nil, common.StoreError("count unread", err)
	}
	createdAt := make(map[int64]time.Time, len(stamps))
	for _, s := range stamps {
		createdAt[s.ID] = s.CreatedAt
	}

	counts := make([]domain.UnreadCount, len(rows))
	for i, row := range rows {
		counts[i] = domain.UnreadCount{
			SenderID:      row.SenderID,
			Count:         row.Count,
			LastMessageAt: createdAt[row.LastID],
		}
	}
	return counts, nil
}

// LatestPerConversation returns the newest message userID can still see in each conversation
func (r *messageRepository) LatestPerConversation(ctx context.Context, userID string) ([]*domain.Message, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("MAX(id)").
		Scopes(participant(userID), visibleTo(userID)).
		Group("conversation_id").
		Pluck("MAX(id)", &ids).Error
	if err != nil {
		return nil, common.StoreError("chat list", err)
	}
	if len(ids) == 0 {
		return []*domain.Message{}, nil
	}

	var messages []*domain.Message
	err = r.db.WithContext(ctx).
		Preload("Attachments", orderedAttachments).
		Where("id IN ?", ids).
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, common.StoreError("chat list", err)
	}
	return messages, nil
}

// MarkDelivered moves a single sent message to delivered
func (r *messageRepository) MarkDelivered(ctx context.Context, id int64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND status = ?", id, domain.StatusSent).
		Updates(map[string]interface{}{
			"status":       domain.StatusDelivered,
			"delivered_at": at,
		})
	if result.Error != nil {
		return 0, common.StoreError("mark delivered", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkPendingDelivered moves every sent message addressed to receiverID to delivered
// and returns only the rows this call moved.
func (r *messageRepository) MarkPendingDelivered(ctx context.Context, receiverID string, at time.Time) ([]*domain.Message, error) {
	var moved []*domain.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []*domain.Message
		if err := tx.Scopes(lockForUpdate).
			Select("id, conversation_id, sender_id, receiver_id").
			Where("receiver_id = ? AND status = ?", receiverID, domain.StatusSent).
			Order("id ASC").
			Find(&pending).Error; err != nil {
			return err
		}

		for _, m := range pending {
			// a concurrent read may have overtaken the row since it was selected
			result := tx.Model(&domain.Message{}).
				Where("id = ? AND status = ?", m.ID, domain.StatusSent).
				Updates(map[string]interface{}{
					"status":       domain.StatusDelivered,
					"delivered_at": at,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}
			m.Status = domain.StatusDelivered
			m.DeliveredAt = &at
			moved = append(moved, m)
		}
		return nil
	})
	if err != nil {
		return nil, common.StoreError("deliver pending", err)
	}
	return moved, nil
}

// lockForUpdate holds the selected rows until the transaction ends where the dialect supports it
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() != "mysql" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// readUpdates backfills delivered_at for messages that skipped the delivered state
func readUpdates(at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":       domain.StatusRead,
		"read_at":      at,
		"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
	}
}

// MarkConversationRead marks every unread message addressed to readerID in the conversation as read
func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND status <> ?", conversationID, readerID, domain.StatusRead).
		Updates(readUpdates(at))
	if result.Error != nil {
		return 0, common.StoreError("mark conversation read", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkAllRead marks every unread message addressed to readerID as read and
// reports how many rows this call moved per conversation.
func (r *messageRepository) MarkAllRead(ctx context.Context, readerID string, at time.Time) ([]domain.ReadReceipt, error) {
	var receipts []domain.ReadReceipt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unread []*domain.Message
		if err := tx.Scopes(lockForUpdate).
			Select("id, conversation_id, sender_id").
			Where("receiver_id = ? AND status <> ?", readerID, domain.StatusRead).
			Order("id ASC").
			Find(&unread).Error; err != nil {
			return err
		}

		type group struct {
			conversationID string
			senderID       string
			ids            []int64
		}
		var groups []*group
		index := make(map[string]*group)
		for _, m := range unread {
			g, ok := index[m.ConversationID]
			if !ok {
				g = &group{conversationID: m.ConversationID, senderID: m.SenderID}
				index[m.ConversationID] = g
				groups = append(groups, g)
			}
			g.ids = append(g.ids, m.ID)
		}

		for _, g := range groups {
			result := tx.Model(&domain.Message{}).
				Where("id IN ? AND status <> ?", g.ids, domain.StatusRead).
				Updates(readUpdates(at))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}
			receipts = append(receipts, domain.ReadReceipt{
				ConversationID: g.conversationID,
				SenderID:       g.senderID,
				Count:          result.RowsAffected,
			})
		}
		return nil
	})
	if err != nil {
		return nil, common.StoreError("mark all read", err)
	}
	return receipts, nil
}
