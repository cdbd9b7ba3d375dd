package queryset

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/models"
	"github.com/shepherrrd/hybrid/internal/query"
)

// Manager is the entry point for querying model T. Its query methods start a fresh QuerySet, so
// hybrid arguments are understood on the first call as well as on every chained one.
type Manager[T any] struct {
	db      *gorm.DB
	dialect query.Dialect
	model   *models.EntityModel
}

func NewManager[T any](db *gorm.DB, dialect query.Dialect, model *models.EntityModel) *Manager[T] {
	return &Manager[T]{db: db, dialect: dialect, model: model}
}

func (m *Manager[T]) Model() *models.EntityModel { return m.model }

// All - returns a QuerySet over every row
func (m *Manager[T]) All() *QuerySet[T] {
	return New[T](m.db, m.dialect, m.model)
}

func (m *Manager[T]) Filter(args ...any) *QuerySet[T] { return m.All().Filter(args...) }

func (m *Manager[T]) Exclude(args ...any) *QuerySet[T] { return m.All().Exclude(args...) }

func (m *Manager[T]) Annotate(args ...any) *QuerySet[T] { return m.All().Annotate(args...) }

func (m *Manager[T]) OrderBy(fields ...string) *QuerySet[T] { return m.All().OrderBy(fields...) }

// Create - inserts entity
func (m *Manager[T]) Create(ctx context.Context, entity *T) error {
	if err := m.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", m.model.Name, err)
	}
	return nil
}

// Count - counts every row
func (m *Manager[T]) Count(ctx context.Context) (int64, error) {
	return m.All().Count(ctx)
}
