package repository

import (
	"context"
	"time"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository block data access interface
type BlockRepository interface {
	Create(ctx context.Context, blockerID, blockedID string) (*domain.UserBlock, bool, error)
	Delete(ctx context.Context, blockerID, blockedID string) (bool, error)
	FindByBlocker(ctx context.Context, blockerID string) ([]*domain.UserBlock, error)
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)
	Status(ctx context.Context, viewerID, otherID string) (domain.BlockStatus, error)
	RelatedUserIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new BlockRepository
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Create adds a block; an existing pair is returned unchanged with created false
func (r *blockRepository) Create(ctx context.Context, blockerID, blockedID string) (*domain.UserBlock, bool, error) {
	block := &domain.UserBlock{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now(),
	}
	db := r.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(block)
	if result.Error != nil {
		return nil, false, common.StoreError("create block", result.Error)
	}
	created := result.RowsAffected > 0

	var stored domain.UserBlock
	if err := db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).First(&stored).Error; err != nil {
		return nil, false, common.StoreError("load block", err)
	}
	return &stored, created, nil
}

// Delete removes a block and reports whether one existed
func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&domain.UserBlock{})
	if result.Error != nil {
		return false, common.StoreError("delete block", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindByBlocker returns every block created by blockerID, newest first
func (r *blockRepository) FindByBlocker(ctx context.Context, blockerID string) ([]*domain.UserBlock, error) {
	var blocks []*domain.UserBlock
	err := r.db.WithContext(ctx).Where("blocker_id = ?", blockerID).Order("id DESC").Find(&blocks).Error
	if err != nil {
		return nil, common.StoreError("list blocks", err)
	}
	return blocks, nil
}

// Exists checks one direction
func (r *blockRepository) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.UserBlock{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	if err != nil {
		return false, common.StoreError("check block", err)
	}
	return count > 0, nil
}

// Status resolves both directions between viewerID and otherID in one query
func (r *blockRepository) Status(ctx context.Context, viewerID, otherID string) (domain.BlockStatus, error) {
	var blocks []domain.UserBlock
	err := r.db.WithContext(ctx).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Find(&blocks).Error
	if err != nil {
		return domain.BlockStatus{}, common.StoreError("block status", err)
	}

	var status domain.BlockStatus
	for _, b := range blocks {
		if b.BlockerID == viewerID {
			status.BlockedByMe = true
		} else {
			status.BlockedMe = true
		}
	}
	return status, nil
}

// RelatedUserIDs returns every user in a block relation with userID, either direction
func (r *blockRepository) RelatedUserIDs(ctx context.Context, userID string) (map[string]bool, error) {
	var blocks []domain.UserBlock
	err := r.db.WithContext(ctx).
		Select("blocker_id, blocked_id").
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, common.StoreError("related blocks", err)
	}

	related := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			related[b.BlockedID] = true
		} else {
			related[b.BlockerID] = true
		}
	}
	return related, nil
}
