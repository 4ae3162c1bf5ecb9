package service

import (
	"context"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/repository"
)

// BlockService is the block policy gate plus the bookkeeping behind it
type BlockService interface {
	// CanExchange is false when a block exists in either direction
	CanExchange(ctx context.Context, userA, userB string) (bool, error)
	Block(ctx context.Context, blockerID, blockedID string) (*domain.BlockResponse, error)
	Unblock(ctx context.Context, blockerID, blockedID string) error
	ListBlocks(ctx context.Context, userID string) ([]*domain.BlockResponse, error)
	BlockStatus(ctx context.Context, viewerID, otherID string) (domain.BlockStatus, error)
	RelatedUserIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type blockService struct {
	blockRepo   repository.BlockRepository
	profileRepo repository.ProfileRepository
	emitter     Emitter
}

// NewBlockService creates a new BlockService
func NewBlockService(blockRepo repository.BlockRepository, profileRepo repository.ProfileRepository, emitter Emitter) BlockService {
	return &blockService{
		blockRepo:   blockRepo,
		profileRepo: profileRepo,
		emitter:     emitter,
	}
}

func (s *blockService) CanExchange(ctx context.Context, userA, userB string) (bool, error) {
	status, err := s.blockRepo.Status(ctx, userA, userB)
	if err != nil {
		return false, err
	}
	return !status.Blocked(), nil
}

// Block blocks a user. Blocking someone already blocked succeeds without change.
func (s *blockService) Block(ctx context.Context, blockerID, blockedID string) (*domain.BlockResponse, error) {
	if blockerID == "" || blockedID == "" {
		return nil, common.Validation("user id is required")
	}
	if blockerID == blockedID {
		return nil, common.Validation("cannot block yourself")
	}
	if !domain.ValidUserID(blockerID) || !domain.ValidUserID(blockedID) {
		return nil, common.Validation("user ids may not contain %q", domain.ConversationSeparator)
	}

	target, err := s.profileRepo.FindByID(ctx, blockedID)
	if err != nil {
		return nil, err
	}

	block, created, err := s.blockRepo.Create(ctx, blockerID, blockedID)
	if err != nil {
		return nil, err
	}

	if created {
		s.notifyBoth(domain.EventUserBlocked, blockerID, blockedID)
	}
	return &domain.BlockResponse{
		BlockedAt:   block.CreatedAt,
		UserID:      blockedID,
		DisplayName: target.DisplayName,
		PhotoURL:    target.PhotoURL,
	}, nil
}

// Unblock removes a block; unblocking a user that is not blocked is NotFound
func (s *blockService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == "" || blockedID == "" {
		return common.Validation("user id is required")
	}

	existed, err := s.blockRepo.Delete(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !existed {
		return common.NotFound("block on user %s", blockedID)
	}

	s.notifyBoth(domain.EventUserUnblocked, blockerID, blockedID)
	return nil
}

// ListBlocks returns the users blocked by userID, newest first
func (s *blockService) ListBlocks(ctx context.Context, userID string) ([]*domain.BlockResponse, error) {
	blocks, err := s.blockRepo.FindByBlocker(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	profiles, err := s.profileRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.BlockResponse, len(blocks))
	for i, b := range blocks {
		resp := &domain.BlockResponse{BlockedAt: b.CreatedAt, UserID: b.BlockedID}
		if p, ok := profiles[b.BlockedID]; ok {
			resp.DisplayName = p.DisplayName
			resp.PhotoURL = p.PhotoURL
		}
		responses[i] = resp
	}
	return responses, nil
}

func (s *blockService) BlockStatus(ctx context.Context, viewerID, otherID string) (domain.BlockStatus, error) {
	return s.blockRepo.Status(ctx, viewerID, otherID)
}

func (s *blockService) RelatedUserIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return s.blockRepo.RelatedUserIDs(ctx, userID)
}

func (s *blockService) notifyBoth(eventType, blockerID, blockedID string) {
	if s.emitter == nil {
		return
	}
	payload := domain.BlockEventPayload{BlockerID: blockerID, BlockedID: blockedID}
	s.emitter.Emit(blockerID, eventType, payload)
	s.emitter.Emit(blockedID, eventType, payload)
}
