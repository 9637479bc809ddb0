package repository

import (
	"context"

	"kointos-backend/internal/entity"

	"gorm.io/gorm"
)

// NewsArticleRepository stores ingested news.
type NewsArticleRepository interface {
	Create(ctx context.Context, article *entity.NewsArticle) error
	ExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

// NewNewsArticleRepository creates a new instance of NewsArticleRepository.
func NewNewsArticleRepository(db *gorm.DB) NewsArticleRepository {
	return &newsArticleRepository{db: db}
}

type newsArticleRepository struct {
	db *gorm.DB
}

func (r *newsArticleRepository) Create(ctx context.Context, article *entity.NewsArticle) error {
	return r.db.WithContext(ctx).Create(article).Error
}

// ExistingSourceURLs returns the subset of urls already stored.
func (r *newsArticleRepository) ExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(urls) == 0 {
		return existing, nil
	}

	var found []string
	if err := r.db.WithContext(ctx).Model(&entity.NewsArticle{}).
		Where("source_url IN ?", urls).
		Pluck("source_url", &found).Error; err != nil {
		return nil, err
	}
	for _, u := range found {
		existing[u] = true
	}
	return existing, nil
}
