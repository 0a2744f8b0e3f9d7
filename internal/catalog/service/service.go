package service

import (
	"context"
	"errors"
	"log/slog"

	"foodgram/internal/catalog/models"
	"foodgram/internal/catalog/store"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
	"foodgram/pkg/requestcontext"
)

type Store interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id domain.TagID) error
	FindTag(ctx context.Context, id domain.TagID) (*models.Tag, error)
	ListTags(ctx context.Context) ([]*models.Tag, error)
	TagsByIDs(ctx context.Context, ids []domain.TagID) (map[domain.TagID]*models.Tag, error)
	TagIDsBySlugs(ctx context.Context, slugs []string) ([]domain.TagID, error)
	CreateIngredient(ctx context.Context, ing *models.Ingredient) error
	DeleteIngredient(ctx context.Context, id domain.IngredientID) error
	FindIngredient(ctx context.Context, id domain.IngredientID) (*models.Ingredient, error)
	SearchIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error)
	IngredientsByIDs(ctx context.Context, ids []domain.IngredientID) (map[domain.IngredientID]*models.Ingredient, error)
}

// IngredientUsage reports whether any recipe still lists an ingredient.
type IngredientUsage interface {
	IngredientInUse(ctx context.Context, id domain.IngredientID) (bool, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, e events.Event) bool
}

// Service manages tags and ingredients.
type Service struct {
	store  Store
	usage  IngredientUsage
	logger *slog.Logger
	events EventEmitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventEmitter(e EventEmitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

// WithIngredientUsage guards ingredient deletion for stores without a foreign key.
func WithIngredientUsage(u IngredientUsage) Option {
	return func(s *Service) {
		s.usage = u
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tags")
	}
	return tags, nil
}

func (s *Service) GetTag(ctx context.Context, id domain.TagID) (*models.Tag, error) {
	tag, err := s.store.FindTag(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tag not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tag")
	}
	return tag, nil
}

func (s *Service) CreateTag(ctx context.Context, req *models.CreateTagRequest) (*models.Tag, error) {
	tag, err := models.NewTag(req.Name, req.Color, req.Slug)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, tagWriteError(err, "failed to create tag")
	}
	s.logAudit(ctx, events.TagCreated, "subject_id", tag.ID, "slug", tag.Slug)
	return tag, nil
}

func (s *Service) UpdateTag(ctx context.Context, id domain.TagID, req *models.UpdateTagRequest) (*models.Tag, error) {
	tag, err := s.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(tag); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tag not found")
		}
		return nil, tagWriteError(err, "failed to update tag")
	}
	s.logAudit(ctx, events.TagUpdated, "subject_id", tag.ID, "slug", tag.Slug)
	return tag, nil
}

func (s *Service) DeleteTag(ctx context.Context, id domain.TagID) error {
	if err := s.store.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "tag not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tag")
	}
	s.logAudit(ctx, events.TagDeleted, "subject_id", id)
	return nil
}

func tagWriteError(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrTagNameTaken):
		return dErrors.New(dErrors.CodeConflict, "a tag with that name already exists")
	case errors.Is(err, store.ErrTagColorTaken):
		return dErrors.New(dErrors.CodeConflict, "a tag with that color already exists")
	case errors.Is(err, store.ErrTagSlugTaken):
		return dErrors.New(dErrors.CodeConflict, "a tag with that slug already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// SearchIngredients lists ingredients whose name starts with prefix, ignoring case.
func (s *Service) SearchIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error) {
	found, err := s.store.SearchIngredients(ctx, prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search ingredients")
	}
	return found, nil
}

func (s *Service) GetIngredient(ctx context.Context, id domain.IngredientID) (*models.Ingredient, error) {
	ing, err := s.store.FindIngredient(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ingredient not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ingredient")
	}
	return ing, nil
}

func (s *Service) CreateIngredient(ctx context.Context, req *models.CreateIngredientRequest) (*models.Ingredient, error) {
	ing, err := models.NewIngredient(req.Name, req.MeasurementUnit)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.store.CreateIngredient(ctx, ing); err != nil {
		if errors.Is(err, store.ErrIngredientTaken) {
			return nil, dErrors.New(dErrors.CodeConflict, "an ingredient with that name and unit already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ingredient")
	}
	s.logAudit(ctx, events.IngredientCreated, "subject_id", ing.ID, "name", ing.Name)
	return ing, nil
}

func (s *Service) DeleteIngredient(ctx context.Context, id domain.IngredientID) error {
	if s.usage != nil {
		inUse, err := s.usage.IngredientInUse(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ingredient usage")
		}
		if inUse {
			return dErrors.New(dErrors.CodeConflict, "ingredient is used by recipes")
		}
	}
	if err := s.store.DeleteIngredient(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "ingredient not found")
		case errors.Is(err, store.ErrIngredientInUse):
			return dErrors.New(dErrors.CodeConflict, "ingredient is used by recipes")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete ingredient")
	}
	s.logAudit(ctx, events.IngredientDeleted, "subject_id", id)
	return nil
}

// TagsByIDs resolves tags for recipe payloads. Unknown IDs are absent from the map.
func (s *Service) TagsByIDs(ctx context.Context, ids []domain.TagID) (map[domain.TagID]*models.Tag, error) {
	tags, err := s.store.TagsByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tags")
	}
	return tags, nil
}

// TagIDsBySlugs resolves the recipe list filter. Unknown slugs are dropped.
func (s *Service) TagIDsBySlugs(ctx context.Context, slugs []string) ([]domain.TagID, error) {
	ids, err := s.store.TagIDsBySlugs(ctx, slugs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve tags")
	}
	return ids, nil
}

// IngredientsByIDs resolves ingredients for recipe payloads. Unknown IDs are
// absent from the map.
func (s *Service) IngredientsByIDs(ctx context.Context, ids []domain.IngredientID) (map[domain.IngredientID]*models.Ingredient, error) {
	found, err := s.store.IngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ingredients")
	}
	return found, nil
}

func (s *Service) logAudit(ctx context.Context, event events.Type, attributes ...any) {
	if userID := requestcontext.UserID(ctx); !userID.IsZero() {
		attributes = append(attributes, "user_id", userID)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.events != nil {
		s.events.Emit(ctx, events.New(ctx, event, attributes...))
	}
}
