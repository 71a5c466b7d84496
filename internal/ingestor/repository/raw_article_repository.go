package repository

import (
	"context"
	"errors"
	"fmt"

	"roundtable-ingestor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleStatus is returned when a raw article is no longer in the status the
// writer expected, usually because another run already moved it.
var ErrStaleStatus = errors.New("raw article status changed concurrently")

// RawArticleRepository defines the interface for the raw article store.
type RawArticleRepository interface {
	FindBySourceURL(ctx context.Context, sourceURL string) (*entity.RawArticle, error)
	FindByID(ctx context.Context, id uint) (*entity.RawArticle, error)
	// Create stores a new article and reports false if the URL already existed.
	Create(ctx context.Context, article *entity.RawArticle) (bool, error)
	// Update persists the mutable fields of article only if its stored status is still expected.
	Update(ctx context.Context, article *entity.RawArticle, expected entity.RawArticleStatus) error
	FindByStatus(ctx context.Context, status entity.RawArticleStatus, limit int) ([]entity.RawArticle, error)
	CountByStatus(ctx context.Context) (map[entity.RawArticleStatus]int64, error)
}

// NewRawArticleRepository creates a new instance of RawArticleRepository.
func NewRawArticleRepository(db *gorm.DB) RawArticleRepository {
	return &rawArticleRepository{db: db}
}

type rawArticleRepository struct {
	db *gorm.DB
}

func (r *rawArticleRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*entity.RawArticle, error) {
	var article entity.RawArticle
	err := r.db.WithContext(ctx).Where("source_url = ?", sourceURL).First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *rawArticleRepository) FindByID(ctx context.Context, id uint) (*entity.RawArticle, error) {
	var article entity.RawArticle
	err := r.db.WithContext(ctx).First(&article, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *rawArticleRepository) Create(ctx context.Context, article *entity.RawArticle) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_url"}},
		DoNothing: true,
	}).Create(article)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *rawArticleRepository) Update(ctx context.Context, article *entity.RawArticle, expected entity.RawArticleStatus) error {
	tx := r.db.WithContext(ctx).
		Model(&entity.RawArticle{}).
		Where("id = ? AND status = ?", article.ID, expected).
		Updates(map[string]interface{}{
			"status":          article.Status,
			"source_content":  article.SourceContent,
			"relevance_score": article.RelevanceScore,
			"error_message":   article.ErrorMessage,
			"processed_at":    article.ProcessedAt,
			"policy_id":       article.PolicyID,
			"article_id":      article.ArticleID,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d expected=%s", ErrStaleStatus, article.ID, expected)
	}
	return nil
}

// FindByStatus returns the oldest articles in status first.
func (r *rawArticleRepository) FindByStatus(ctx context.Context, status entity.RawArticleStatus, limit int) ([]entity.RawArticle, error) {
	var articles []entity.RawArticle
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

func (r *rawArticleRepository) CountByStatus(ctx context.Context) (map[entity.RawArticleStatus]int64, error) {
	var rows []struct {
		Status entity.RawArticleStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.RawArticle{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.RawArticleStatus]int64, len(entity.AllRawArticleStatuses))
	for _, s := range entity.AllRawArticleStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
