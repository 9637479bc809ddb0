// Package admin provisions data that the public API cannot write: accounts with groups and
// the FAQ catalogue.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/auth"
	"kointos-backend/internal/entity"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/config"
	"kointos-backend/pkg/errs"
	"kointos-backend/pkg/logger"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// FAQFile is the document read by LoadFAQs.
type FAQFile struct {
	FAQs []entity.FAQ `yaml:"faqs"`
}

// ImportResult counts what ImportFAQs changed.
type ImportResult struct {
	Created int
	Updated int
}

// Service runs administrative operations against the database.
type Service struct {
	db        *gorm.DB
	auth      config.Auth
	validator *schema.Validator
	logger    *logger.Logger
}

// NewService creates a new admin Service.
func NewService(db *gorm.DB, authCfg config.Auth, validator *schema.Validator, log *logger.Logger) *Service {
	return &Service{db: db, auth: authCfg, validator: validator, logger: log}
}

// AddUser creates an identity that belongs to groups. Every group must be declared in the
// auth configuration.
func (s *Service) AddUser(ctx context.Context, email, password string, groups []string) (*entity.Identity, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if err := auth.ValidateGroups(s.auth.Groups, groups); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	identities := repository.NewIdentityRepository(s.db)
	if _, err := identities.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("identity %s: %w", email, errs.ErrAlreadyExists)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	identity := &entity.Identity{Email: email, PasswordHash: hash, Groups: groups}
	if err := identities.Create(ctx, identity); err != nil {
		return nil, err
	}
	s.logger.Info("Identity provisioned",
		logger.StringField("sub", identity.ID),
		logger.Field("groups", groups))
	return identity, nil
}

// LoadFAQs decodes an FAQ document. Unknown keys are rejected.
func LoadFAQs(r io.Reader) ([]entity.FAQ, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file FAQFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode faq file: %w", err)
	}
	return file.FAQs, nil
}

// ImportFAQs validates every entry first and then upserts them in one transaction, matching
// existing entries by question.
func (s *Service) ImportFAQs(ctx context.Context, faqs []entity.FAQ) (ImportResult, error) {
	var result ImportResult
	for i := range faqs {
		faqs[i].Question = strings.TrimSpace(faqs[i].Question)
		if err := s.validator.Validate(&faqs[i]); err != nil {
			return result, fmt.Errorf("faq #%d: %w", i+1, err)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range faqs {
			faq := faqs[i]
			faq.ID = ""
			faq.Owner = ""

			var existing entity.FAQ
			err := tx.First(&existing, "question = ?", faq.Question).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&faq).Error; err != nil {
					return fmt.Errorf("failed to create faq %q: %w", faq.Question, err)
				}
				result.Created++
			case err != nil:
				return err
			default:
				faq.ID = existing.ID
				faq.CreatedAt = existing.CreatedAt
				if faq.IsPublished == nil {
					faq.IsPublished = existing.IsPublished
				}
				if faq.Order == nil {
					faq.Order = existing.Order
				}
				if err := tx.Save(&faq).Error; err != nil {
					return fmt.Errorf("failed to update faq %q: %w", faq.Question, err)
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("FAQs imported", logger.IntField("created", result.Created), logger.IntField("updated", result.Updated))
	return result, nil
}
