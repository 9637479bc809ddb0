package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"kointos-backend/pkg/errs"

	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// ErrInvalidFilter is returned when a list filter names an unknown or unfilterable field.
var ErrInvalidFilter = errors.New("invalid filter")

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Filter narrows a list query. Equals is keyed by JSON field name.
type Filter struct {
	Owner  string
	Equals map[string]string
	Limit  int
	Offset int
}

// ModelRepository defines the data operations shared by every declared model.
type ModelRepository[T any] interface {
	Create(ctx context.Context, record *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
	Update(ctx context.Context, record *T) error
	Delete(ctx context.Context, id string) error
}

// NewModelRepository creates a new GORM-based repository for T.
func NewModelRepository[T any](db *gorm.DB) ModelRepository[T] {
	return &modelRepository[T]{db: db}
}

type modelRepository[T any] struct {
	db *gorm.DB

	once    sync.Once
	fields  map[string]*gormschema.Field
	loadErr error
}

// Create inserts a new record.
func (r *modelRepository[T]) Create(ctx context.Context, record *T) error {
	return translate(r.db.WithContext(ctx).Create(record).Error)
}

// FindByID retrieves a record by its ID.
func (r *modelRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var record T
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// Find lists records matching filter, newest first.
func (r *modelRepository[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	q := r.db.WithContext(ctx)
	if filter.Owner != "" {
		q = q.Where("owner = ?", filter.Owner)
	}

	if len(filter.Equals) > 0 {
		fields, err := r.filterableFields()
		if err != nil {
			return nil, err
		}
		for name, raw := range filter.Equals {
			field, ok := fields[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, name)
			}
			value, err := filterValue(field, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFilter, name, err)
			}
			q = q.Where(fmt.Sprintf("%s = ?", field.DBName), value)
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var records []T
	if err := q.Order("created_at desc").Limit(limit).Offset(filter.Offset).Find(&records).Error; err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// Update saves every column of record.
func (r *modelRepository[T]) Update(ctx context.Context, record *T) error {
	return translate(r.db.WithContext(ctx).Save(record).Error)
}

// Delete removes a record by its ID.
func (r *modelRepository[T]) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// filterableFields maps JSON names to the string and boolean columns of T.
func (r *modelRepository[T]) filterableFields() (map[string]*gormschema.Field, error) {
	r.once.Do(func() {
		stmt := &gorm.Statement{DB: r.db}
		if err := stmt.Parse(new(T)); err != nil {
			r.loadErr = err
			return
		}
		r.fields = make(map[string]*gormschema.Field)
		for _, f := range stmt.Schema.Fields {
			if f.DBName == "" {
				continue
			}
			switch f.IndirectFieldType.Kind() {
			case reflect.String, reflect.Bool:
			default:
				continue
			}
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				continue
			}
			r.fields[name] = f
		}
	})
	return r.fields, r.loadErr
}

func filterValue(field *gormschema.Field, raw string) (interface{}, error) {
	if field.IndirectFieldType.Kind() == reflect.Bool {
		return strconv.ParseBool(raw)
	}
	return raw, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.ErrAlreadyExists
	default:
		return err
	}
}
