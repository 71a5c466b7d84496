package repository

import (
	"context"
	"errors"
	"time"

	"roundtable-ingestor/internal/entity"

	"gorm.io/gorm"
)

// PolicyRepository defines the interface for the policy aggregate store.
type PolicyRepository interface {
	// Transaction runs fn against a repository bound to a single database transaction.
	Transaction(ctx context.Context, fn func(repo PolicyRepository) error) error
	// Create inserts a policy together with its Events.
	Create(ctx context.Context, policy *entity.Policy) error
	// FindByTitleMatch returns the oldest policy whose normalized title or short
	// title equals any of the given normalized titles, or nil.
	FindByTitleMatch(ctx context.Context, normalizedTitles ...string) (*entity.Policy, error)
	AppendEvent(ctx context.Context, event *entity.PolicyEvent) error
	UpdateStatus(ctx context.Context, id uint, status entity.PolicyStatus, nextMilestone *string) error
	// Touch marks the policy as updated at the given time.
	Touch(ctx context.Context, id uint, at time.Time) error
	// FindActive returns active policies, most recently updated first, with events newest first.
	FindActive(ctx context.Context, limit int) ([]entity.Policy, error)
	Count(ctx context.Context) (int64, error)
}

// NewPolicyRepository creates a new instance of PolicyRepository.
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

type policyRepository struct {
	db *gorm.DB
}

func (r *policyRepository) Transaction(ctx context.Context, fn func(repo PolicyRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&policyRepository{db: tx})
	})
}

func (r *policyRepository) Create(ctx context.Context, policy *entity.Policy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

func (r *policyRepository) FindByTitleMatch(ctx context.Context, normalizedTitles ...string) (*entity.Policy, error) {
	titles := make([]string, 0, len(normalizedTitles))
	for _, t := range normalizedTitles {
		if t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return nil, nil
	}

	var policy entity.Policy
	err := r.db.WithContext(ctx).
		Where("normalized_short_title IN ? OR normalized_title IN ?", titles, titles).
		Order("id ASC").
		First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) AppendEvent(ctx context.Context, event *entity.PolicyEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *policyRepository) UpdateStatus(ctx context.Context, id uint, status entity.PolicyStatus, nextMilestone *string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Policy{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"next_milestone": nextMilestone,
		}).Error
}

func (r *policyRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Policy{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}

func (r *policyRepository) FindActive(ctx context.Context, limit int) ([]entity.Policy, error) {
	var policies []entity.Policy
	err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("event_date DESC, id DESC")
		}).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		Limit(limit).
		Find(&policies).Error
	return policies, err
}

func (r *policyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Policy{}).Count(&count).Error
	return count, err
}
