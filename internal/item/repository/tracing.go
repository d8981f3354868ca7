package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
)

var tracer = otel.Tracer("item-repository")

// GormItemRepositoryWithTracing wraps GormItemRepository with tracing for
// the read paths used by request handlers
type GormItemRepositoryWithTracing struct {
	*GormItemRepository
}

// NewGormItemRepositoryWithTracing creates a new repository with tracing
func NewGormItemRepositoryWithTracing(db *gorm.DB) *GormItemRepositoryWithTracing {
	return &GormItemRepositoryWithTracing{
		GormItemRepository: NewGormItemRepository(db),
	}
}

// CreateWithContext records a span around Create
func (r *GormItemRepositoryWithTracing) CreateWithContext(ctx context.Context, item *domain.Item) error {
	_, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.Int("user.id", int(item.UserID)),
			attribute.String("item.name", item.Name),
		),
	)
	defer span.End()

	if err := r.GormItemRepository.Create(item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("item.id", int(item.ID)))
	return nil
}

// FindByIDForUserWithContext records a span around FindByIDForUser
func (r *GormItemRepositoryWithTracing) FindByIDForUserWithContext(ctx context.Context, id, userID uint) (*domain.Item, error) {
	_, span := tracer.Start(ctx, "repository.FindByIDForUser")
	span.SetAttributes(
		attribute.Int("item.id", int(id)),
		attribute.Int("user.id", int(userID)),
	)
	defer span.End()

	item, err := r.GormItemRepository.FindByIDForUser(id, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("item.status", string(item.Status)))
	return item, nil
}

// FindByUserWithContext records a span around FindByUser
func (r *GormItemRepositoryWithTracing) FindByUserWithContext(ctx context.Context, userID uint, limit, offset int) ([]domain.Item, error) {
	_, span := tracer.Start(ctx, "repository.FindByUser")
	span.SetAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.Int("query.limit", limit),
		attribute.Int("query.offset", offset),
	)
	defer span.End()

	items, err := r.GormItemRepository.FindByUser(userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(items)))
	return items, nil
}

// UpdateWithContext records a span around Update
func (r *GormItemRepositoryWithTracing) UpdateWithContext(ctx context.Context, item *domain.Item) error {
	_, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int("item.id", int(item.ID)),
			attribute.String("item.status", string(item.Status)),
		),
	)
	defer span.End()

	if err := r.GormItemRepository.Update(item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
