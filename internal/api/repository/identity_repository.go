package repository

import (
	"context"

	"kointos-backend/internal/entity"

	"gorm.io/gorm"
)

// IdentityRepository stores sign-in accounts.
type IdentityRepository interface {
	Create(ctx context.Context, identity *entity.Identity) error
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)
	FindByID(ctx context.Context, id string) (*entity.Identity, error)
}

// NewIdentityRepository creates a new GORM-based identity repository.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

type identityRepository struct {
	db *gorm.DB
}

func (r *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	return translate(r.db.WithContext(ctx).Create(identity).Error)
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var identity entity.Identity
	if err := r.db.WithContext(ctx).First(&identity, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (r *identityRepository) FindByID(ctx context.Context, id string) (*entity.Identity, error) {
	var identity entity.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}
