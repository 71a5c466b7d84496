package repository

import (
	"context"
	"time"

	"roundtable-ingestor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedSourceRepository defines the interface for the feed registry.
type FeedSourceRepository interface {
	Upsert(ctx context.Context, source *entity.FeedSource) error
	FindActive(ctx context.Context) ([]entity.FeedSource, error)
	UpdateLastFetchedAt(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

// NewFeedSourceRepository creates a new instance of FeedSourceRepository.
func NewFeedSourceRepository(db *gorm.DB) FeedSourceRepository {
	return &feedSourceRepository{db: db}
}

type feedSourceRepository struct {
	db *gorm.DB
}

// Upsert inserts a feed keyed by URL. An existing row keeps its active flag and
// only takes the new name and region.
func (r *feedSourceRepository) Upsert(ctx context.Context, source *entity.FeedSource) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "region", "updated_at"}),
	}).Create(source).Error
}

func (r *feedSourceRepository) FindActive(ctx context.Context) ([]entity.FeedSource, error) {
	var sources []entity.FeedSource
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&sources).Error
	return sources, err
}

func (r *feedSourceRepository) UpdateLastFetchedAt(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.FeedSource{}).
		Where("id = ?", id).
		Update("last_fetched_at", at).Error
}

func (r *feedSourceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.FeedSource{}).Count(&count).Error
	return count, err
}
