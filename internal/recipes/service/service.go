package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalogmodels "foodgram/internal/catalog/models"
	"foodgram/internal/platform/metrics"
	"foodgram/internal/recipes/models"
	"foodgram/internal/recipes/shoppinglist"
	"foodgram/internal/recipes/store"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
	"foodgram/pkg/platform/pagination"
	pstrings "foodgram/pkg/platform/strings"
	"foodgram/pkg/requestcontext"
)

var tracer = otel.Tracer("foodgram/recipes")

type Store interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id domain.RecipeID) error
	FindByID(ctx context.Context, id domain.RecipeID) (*models.Recipe, error)
	List(ctx context.Context, f models.Filter, limit, offset int) ([]*models.Recipe, int, error)
	AddFavorite(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error
	RemoveFavorite(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error
	AddToCart(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error
	RemoveFromCart(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error
	Marks(ctx context.Context, user domain.UserID, ids []domain.RecipeID) (map[domain.RecipeID]models.Marks, error)
	FavoritesCount(ctx context.Context, ids []domain.RecipeID) (map[domain.RecipeID]int, error)
	CartLines(ctx context.Context, user domain.UserID) ([]models.CartLine, error)
	ByAuthors(ctx context.Context, authors []domain.UserID, limit int) (map[domain.UserID][]*models.Recipe, map[domain.UserID]int, error)
}

// Catalog resolves tags and ingredients.
type Catalog interface {
	TagsByIDs(ctx context.Context, ids []domain.TagID) (map[domain.TagID]*catalogmodels.Tag, error)
	TagIDsBySlugs(ctx context.Context, slugs []string) ([]domain.TagID, error)
	IngredientsByIDs(ctx context.Context, ids []domain.IngredientID) (map[domain.IngredientID]*catalogmodels.Ingredient, error)
}

// Authors resolves recipe authors as seen by viewer.
type Authors interface {
	Authors(ctx context.Context, viewer domain.UserID, ids []domain.UserID) (map[domain.UserID]models.Author, error)
}

// Images stores uploaded data URIs.
type Images interface {
	Save(ctx context.Context, dataURI string) (string, error)
	URL(key string) string
	Delete(ctx context.Context, key string)
}

type EventEmitter interface {
	Emit(ctx context.Context, e events.Event) bool
}

// Service owns recipes, favorites, the shopping cart and the shopping list.
type Service struct {
	store   Store
	catalog Catalog
	authors Authors
	images  Images
	logger  *slog.Logger
	metrics *metrics.Metrics
	events  EventEmitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventEmitter(e EventEmitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

// New constructs a Service.
func New(store Store, catalog Catalog, authors Authors, images Images, opts ...Option) *Service {
	s := &Service{store: store, catalog: catalog, authors: authors, images: images}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List pages through recipes matching q, newest first.
func (s *Service) List(ctx context.Context, viewer domain.UserID, q models.ListQuery, p pagination.Params) (_ []models.View, _ int, err error) {
	ctx, span := tracer.Start(ctx, "recipes.List", trace.WithAttributes(
		attribute.Int("page", p.Page),
		attribute.Int("limit", p.Limit),
		attribute.Int("tags", len(q.TagSlugs)),
	))
	defer func() { endSpan(span, err) }()

	f := models.Filter{AuthorID: q.AuthorID}
	if len(q.TagSlugs) > 0 {
		f.ByTags = true
		if f.TagIDs, err = s.catalog.TagIDsBySlugs(ctx, q.TagSlugs); err != nil {
			return nil, 0, err
		}
	}
	if !viewer.IsZero() {
		if q.Favorited {
			f.FavoritedBy = viewer
		}
		if q.InCart {
			f.InCartOf = viewer
		}
	}

	recipes, count, err := s.store.List(ctx, f, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list recipes")
	}
	views, err := s.views(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// Get returns one recipe as seen by viewer.
func (s *Service) Get(ctx context.Context, viewer domain.UserID, id domain.RecipeID) (_ *models.View, err error) {
	ctx, span := tracer.Start(ctx, "recipes.Get", trace.WithAttributes(attribute.Int64("recipe.id", int64(id))))
	defer func() { endSpan(span, err) }()

	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, recipe)
}

// Create validates references, stores the image and saves the recipe.
func (s *Service) Create(ctx context.Context, actor requestcontext.Principal, req *models.CreateRecipeRequest) (_ *models.View, err error) {
	ctx, span := tracer.Start(ctx, "recipes.Create")
	defer func() { endSpan(span, err) }()

	recipe := &models.Recipe{
		AuthorID:    actor.UserID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		PubDate:     requestcontext.Now(ctx),
		TagIDs:      req.Tags,
		Ingredients: req.Amounts(),
	}
	if err := s.checkReferences(ctx, recipe.TagIDs, recipe.Ingredients); err != nil {
		return nil, err
	}
	if recipe.Image, err = s.images.Save(ctx, req.Image); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, recipe); err != nil {
		s.images.Delete(ctx, recipe.Image)
		return nil, recipeWriteError(err, "failed to create recipe")
	}
	span.SetAttributes(attribute.Int64("recipe.id", int64(recipe.ID)))

	s.metrics.IncrementRecipesCreated()
	s.logAudit(ctx, events.RecipeCreated, "subject_id", recipe.ID, "name", recipe.Name)
	return s.view(ctx, actor.UserID, recipe)
}

// Update patches a recipe. Only the author or staff may change it.
func (s *Service) Update(ctx context.Context, actor requestcontext.Principal, id domain.RecipeID, req *models.UpdateRecipeRequest) (_ *models.View, err error) {
	ctx, span := tracer.Start(ctx, "recipes.Update", trace.WithAttributes(attribute.Int64("recipe.id", int64(id))))
	defer func() { endSpan(span, err) }()

	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, recipe); err != nil {
		return nil, err
	}
	req.Apply(recipe)
	if req.Tags != nil || req.Ingredients != nil {
		var tags []domain.TagID
		var ingredients []models.IngredientAmount
		if req.Tags != nil {
			tags = recipe.TagIDs
		}
		if req.Ingredients != nil {
			ingredients = recipe.Ingredients
		}
		if err := s.checkReferences(ctx, tags, ingredients); err != nil {
			return nil, err
		}
	}

	oldImage := recipe.Image
	if req.Image != nil {
		if recipe.Image, err = s.images.Save(ctx, *req.Image); err != nil {
			return nil, err
		}
	}
	if err := s.store.Update(ctx, recipe); err != nil {
		if recipe.Image != oldImage {
			s.images.Delete(ctx, recipe.Image)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "recipe not found")
		}
		return nil, recipeWriteError(err, "failed to update recipe")
	}
	if recipe.Image != oldImage {
		s.images.Delete(ctx, oldImage)
	}

	s.logAudit(ctx, events.RecipeUpdated, "subject_id", recipe.ID)
	return s.view(ctx, actor.UserID, recipe)
}

// Delete removes a recipe. Only the author or staff may delete it.
func (s *Service) Delete(ctx context.Context, actor requestcontext.Principal, id domain.RecipeID) error {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, recipe); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "recipe not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete recipe")
	}
	s.images.Delete(ctx, recipe.Image)

	s.metrics.IncrementRecipesDeleted()
	s.logAudit(ctx, events.RecipeDeleted, "subject_id", id, "author_id", recipe.AuthorID)
	return nil
}

// AddFavorite marks a recipe as a favorite of user.
func (s *Service) AddFavorite(ctx context.Context, user domain.UserID, id domain.RecipeID) (*models.Brief, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddFavorite(ctx, user, id); err != nil {
		return nil, s.markError(err, store.ErrAlreadyFavorited, "recipe is already in favorites", "failed to add favorite")
	}
	s.metrics.IncrementFavoritesAdded()
	s.logAudit(ctx, events.FavoriteAdded, "subject_id", id)
	return s.brief(recipe), nil
}

// RemoveFavorite unmarks a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, user domain.UserID, id domain.RecipeID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.store.RemoveFavorite(ctx, user, id); err != nil {
		return s.markError(err, store.ErrNotFound, "recipe is not in favorites", "failed to remove favorite")
	}
	s.logAudit(ctx, events.FavoriteRemoved, "subject_id", id)
	return nil
}

// AddToCart puts a recipe into user's shopping cart.
func (s *Service) AddToCart(ctx context.Context, user domain.UserID, id domain.RecipeID) (*models.Brief, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddToCart(ctx, user, id); err != nil {
		return nil, s.markError(err, store.ErrAlreadyInCart, "recipe is already in the shopping cart", "failed to add to shopping cart")
	}
	s.metrics.IncrementCartItemsAdded()
	s.logAudit(ctx, events.CartItemAdded, "subject_id", id)
	return s.brief(recipe), nil
}

// RemoveFromCart takes a recipe out of the shopping cart.
func (s *Service) RemoveFromCart(ctx context.Context, user domain.UserID, id domain.RecipeID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.store.RemoveFromCart(ctx, user, id); err != nil {
		return s.markError(err, store.ErrNotFound, "recipe is not in the shopping cart", "failed to remove from shopping cart")
	}
	s.logAudit(ctx, events.CartItemRemoved, "subject_id", id)
	return nil
}

func (s *Service) markError(err, expected error, msg, internal string) error {
	switch {
	case errors.Is(err, expected):
		return dErrors.New(dErrors.CodeBadRequest, msg)
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "recipe not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}

// ShoppingList sums the ingredients of every recipe in user's cart.
func (s *Service) ShoppingList(ctx context.Context, user domain.UserID) (_ []shoppinglist.Item, err error) {
	ctx, span := tracer.Start(ctx, "recipes.ShoppingList")
	defer func() { endSpan(span, err) }()

	lines, err := s.store.CartLines(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate shopping cart")
	}
	ids := make([]domain.IngredientID, len(lines))
	for i, l := range lines {
		ids[i] = l.IngredientID
	}
	ingredients, err := s.catalog.IngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	named := make([]shoppinglist.Line, 0, len(lines))
	for _, l := range lines {
		ing, ok := ingredients[l.IngredientID]
		if !ok {
			continue
		}
		named = append(named, shoppinglist.Line{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: l.Amount})
	}
	items := shoppinglist.Aggregate(named)
	span.SetAttributes(attribute.Int("items", len(items)))

	s.metrics.IncrementShoppingListsDownloaded()
	s.logAudit(ctx, events.ShoppingListDownloaded, "subject_id", user, "items", len(items))
	return items, nil
}

// AuthorPreviews returns the newest recipes of each author in brief form. A
// negative limit returns every recipe.
func (s *Service) AuthorPreviews(ctx context.Context, authors []domain.UserID, limit int) (map[domain.UserID]models.AuthorPreview, error) {
	recipes, counts, err := s.store.ByAuthors(ctx, authors, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load author recipes")
	}
	out := make(map[domain.UserID]models.AuthorPreview, len(counts))
	for author, count := range counts {
		briefs := make([]models.Brief, 0, len(recipes[author]))
		for _, r := range recipes[author] {
			briefs = append(briefs, *s.brief(r))
		}
		out[author] = models.AuthorPreview{Recipes: briefs, Count: count}
	}
	return out, nil
}

// checkReferences reports every unknown tag and ingredient in one error.
func (s *Service) checkReferences(ctx context.Context, tagIDs []domain.TagID, ingredients []models.IngredientAmount) error {
	var problems []string
	if len(tagIDs) > 0 {
		found, err := s.catalog.TagsByIDs(ctx, tagIDs)
		if err != nil {
			return err
		}
		var missing []domain.TagID
		for _, id := range tagIDs {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			problems = append(problems, "tags: unknown tags "+pstrings.Join(missing))
		}
	}
	if len(ingredients) > 0 {
		ids := make([]domain.IngredientID, len(ingredients))
		for i, ing := range ingredients {
			ids[i] = ing.IngredientID
		}
		found, err := s.catalog.IngredientsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		var missing []domain.IngredientID
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			problems = append(problems, "ingredients: unknown ingredients "+pstrings.Join(missing))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	msg := problems[0]
	if len(problems) > 1 {
		msg += "; " + problems[1]
	}
	return dErrors.New(dErrors.CodeValidation, msg)
}

func (s *Service) find(ctx context.Context, id domain.RecipeID) (*models.Recipe, error) {
	recipe, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "recipe not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recipe")
	}
	return recipe, nil
}

func (s *Service) brief(r *models.Recipe) *models.Brief {
	return &models.Brief{ID: r.ID, Name: r.Name, ImageURL: s.images.URL(r.Image), CookingTime: r.CookingTime}
}

func authorize(actor requestcontext.Principal, recipe *models.Recipe) error {
	if actor.UserID == recipe.AuthorID || actor.IsStaff {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "only the author can change this recipe")
}

func recipeWriteError(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNameTaken):
		return dErrors.New(dErrors.CodeConflict, "you already have a recipe with that name")
	case errors.Is(err, store.ErrUnknownReference):
		return dErrors.New(dErrors.CodeValidation, "a tag or ingredient no longer exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
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
