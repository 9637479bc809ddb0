package service

import (
	"context"

	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/entity"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/errs"
	"kointos-backend/pkg/logger"
)

// Hook runs after id has written a record. It must not fail the request.
type Hook[T any] func(ctx context.Context, id *schema.Identity, record *T)

// ListQuery holds the caller-controlled part of a list request.
type ListQuery struct {
	Equals map[string]string
	Limit  int
	Offset int
}

// ModelService defines the authorized data operations on one declared model.
type ModelService[T any] interface {
	Create(ctx context.Context, id *schema.Identity, record *T) (*T, error)
	Get(ctx context.Context, id *schema.Identity, recordID string) (*T, error)
	List(ctx context.Context, id *schema.Identity, q ListQuery) ([]T, error)
	Update(ctx context.Context, id *schema.Identity, recordID string, apply func(*T) error) (*T, error)
	Delete(ctx context.Context, id *schema.Identity, recordID string) error
}

// NewModelService creates a service for model backed by repo. Hooks run after every
// successful create and update.
func NewModelService[T any, P interface {
	*T
	entity.Model
}](model *schema.Model, repo repository.ModelRepository[T], validator *schema.Validator, log *logger.Logger, hooks ...Hook[T]) ModelService[T] {
	return &modelService[T, P]{
		model:     model,
		repo:      repo,
		validator: validator,
		logger:    log,
		hooks:     hooks,
	}
}

type modelService[T any, P interface {
	*T
	entity.Model
}] struct {
	model     *schema.Model
	repo      repository.ModelRepository[T]
	validator *schema.Validator
	logger    *logger.Logger
	hooks     []Hook[T]
}

// Create stamps a fresh identity and the caller as owner, validates and stores record.
func (s *modelService[T, P]) Create(ctx context.Context, id *schema.Identity, record *T) (*T, error) {
	if err := s.model.Authorize(id, schema.OpCreate, ""); err != nil {
		return nil, err
	}

	P(record).ResetIdentity(P(new(T)))
	if s.model.OwnerScoped() {
		P(record).SetOwner(id.Subject)
	}

	if err := s.validator.Validate(record); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to create record", logger.StringField("model", s.model.Name), logger.ErrorField(err))
		return nil, err
	}

	s.logger.Info("Record created",
		logger.StringField("model", s.model.Name),
		logger.StringField("id", P(record).GetID()),
		logger.StringField("owner", P(record).GetOwner()),
	)
	s.runHooks(ctx, id, record)
	return record, nil
}

// Get retrieves a record the caller may read.
func (s *modelService[T, P]) Get(ctx context.Context, id *schema.Identity, recordID string) (*T, error) {
	return s.load(ctx, id, schema.OpRead, recordID)
}

// List returns the records visible to the caller.
func (s *modelService[T, P]) List(ctx context.Context, id *schema.Identity, q ListQuery) ([]T, error) {
	owner, err := s.model.ListScope(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, repository.Filter{
		Owner:  owner,
		Equals: q.Equals,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// Update applies a partial change to a stored record. Identifier, owner and timestamps
// are kept from the stored version whatever apply does.
func (s *modelService[T, P]) Update(ctx context.Context, id *schema.Identity, recordID string, apply func(*T) error) (*T, error) {
	record, err := s.load(ctx, id, schema.OpUpdate, recordID)
	if err != nil {
		return nil, err
	}

	stored := *record
	if err := apply(record); err != nil {
		return nil, err
	}
	P(record).ResetIdentity(P(&stored))

	if err := s.validator.Validate(record); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("Failed to update record",
			logger.StringField("model", s.model.Name),
			logger.StringField("id", recordID),
			logger.ErrorField(err),
		)
		return nil, err
	}

	s.logger.Info("Record updated", logger.StringField("model", s.model.Name), logger.StringField("id", recordID))
	s.runHooks(ctx, id, record)
	return record, nil
}

// Delete removes a record the caller may delete.
func (s *modelService[T, P]) Delete(ctx context.Context, id *schema.Identity, recordID string) error {
	if _, err := s.load(ctx, id, schema.OpDelete, recordID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, recordID); err != nil {
		s.logger.Error("Failed to delete record",
			logger.StringField("model", s.model.Name),
			logger.StringField("id", recordID),
			logger.ErrorField(err),
		)
		return err
	}
	s.logger.Info("Record deleted", logger.StringField("model", s.model.Name), logger.StringField("id", recordID))
	return nil
}

// load fetches recordID and checks op against its owner. Guests are rejected before the
// lookup so they cannot probe for existence.
func (s *modelService[T, P]) load(ctx context.Context, id *schema.Identity, op schema.Operation, recordID string) (*T, error) {
	if id == nil || id.Subject == "" {
		return nil, errs.ErrUnauthenticated
	}
	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.model.Authorize(id, op, P(record).GetOwner()); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *modelService[T, P]) runHooks(ctx context.Context, id *schema.Identity, record *T) {
	for _, h := range s.hooks {
		h(ctx, id, record)
	}
}
