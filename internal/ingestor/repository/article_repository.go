package repository

import (
	"context"

	"roundtable-ingestor/internal/entity"

	"gorm.io/gorm"
)

// ArticleRepository stores flat audience-facing articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	Count(ctx context.Context) (int64, error)
}

// NewArticleRepository creates a new instance of ArticleRepository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

type articleRepository struct {
	db *gorm.DB
}

func (r *articleRepository) Create(ctx context.Context, article *entity.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Article{}).Count(&count).Error
	return count, err
}
