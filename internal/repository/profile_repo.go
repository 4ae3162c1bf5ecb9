package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"gorm.io/gorm"
)

// ProfileRepository reads profile rows owned by the profile service
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("user %s", id)
	}
	if err != nil {
		return nil, common.StoreError("find profile", err)
	}
	return &p, nil
}

// FindByIDs returns the profiles that exist, keyed by id
func (r *profileRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	result := make(map[string]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var profiles []*domain.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, common.StoreError("find profiles", err)
	}
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}

// UpdateLastSeen stamps the user's last-seen time; it is the only profile column chat writes
func (r *profileRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.Profile{}).
		Where("id = ?", id).
		UpdateColumn("last_seen_at", at).Error
	return common.StoreError("update last seen", err)
}
