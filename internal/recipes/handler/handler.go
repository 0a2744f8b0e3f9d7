package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"foodgram/internal/platform/middleware"
	"foodgram/internal/recipes/models"
	"foodgram/internal/recipes/shoppinglist"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/httputil"
	"foodgram/pkg/platform/pagination"
	pstrings "foodgram/pkg/platform/strings"
	"foodgram/pkg/requestcontext"
)

// Service defines the interface for recipe operations.
type Service interface {
	List(ctx context.Context, viewer domain.UserID, q models.ListQuery, p pagination.Params) ([]models.View, int, error)
	Get(ctx context.Context, viewer domain.UserID, id domain.RecipeID) (*models.View, error)
	Create(ctx context.Context, actor requestcontext.Principal, req *models.CreateRecipeRequest) (*models.View, error)
	Update(ctx context.Context, actor requestcontext.Principal, id domain.RecipeID, req *models.UpdateRecipeRequest) (*models.View, error)
	Delete(ctx context.Context, actor requestcontext.Principal, id domain.RecipeID) error
	AddFavorite(ctx context.Context, user domain.UserID, id domain.RecipeID) (*models.Brief, error)
	RemoveFavorite(ctx context.Context, user domain.UserID, id domain.RecipeID) error
	AddToCart(ctx context.Context, user domain.UserID, id domain.RecipeID) (*models.Brief, error)
	RemoveFromCart(ctx context.Context, user domain.UserID, id domain.RecipeID) error
	ShoppingList(ctx context.Context, user domain.UserID) ([]shoppinglist.Item, error)
}

// Handler handles recipe, favorite and shopping cart endpoints.
type Handler struct {
	service  Service
	logger   *slog.Logger
	pageSize int
}

// New creates a recipes Handler.
func New(service Service, logger *slog.Logger, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = pagination.DefaultLimit
	}
	return &Handler{service: service, logger: logger, pageSize: pageSize}
}

// Register registers the recipe routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.logger))
			r.Post("/", h.HandleCreate)
			r.Get("/download_shopping_cart", h.HandleDownloadShoppingCart)
			r.Patch("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
			r.Post("/{id}/favorite", h.HandleAddFavorite)
			r.Delete("/{id}/favorite", h.HandleRemoveFavorite)
			r.Post("/{id}/shopping_cart", h.HandleAddToCart)
			r.Delete("/{id}/shopping_cart", h.HandleRemoveFromCart)
		})

		r.Get("/{id}", h.HandleGet)
	})
}

// HandleList returns a filtered page of recipes, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	p, err := pagination.FromRequest(r, h.pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q, err := listQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views, count, err := h.service.List(ctx, requestcontext.UserID(ctx), q, p)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list recipes",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if err := pagination.CheckRange(p, count); err != nil {
		httputil.WriteError(w, err)
		return
	}

	results := make([]RecipeResponse, len(views))
	for i := range views {
		results[i] = toRecipeResponse(&views[i])
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.New(r, p, count, results))
}

// HandleGet returns one recipe.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(ctx, requestcontext.UserID(ctx), id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get recipe",
			"request_id", requestcontext.RequestID(ctx),
			"recipe_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecipeResponse(view))
}

// HandleCreate publishes a recipe authored by the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateRecipeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	view, err := h.service.Create(ctx, requestcontext.PrincipalFrom(ctx), req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create recipe",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecipeResponse(view))
}

// HandleUpdate patches a recipe owned by the caller.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateRecipeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	view, err := h.service.Update(ctx, requestcontext.PrincipalFrom(ctx), id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update recipe",
			"request_id", requestID,
			"recipe_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecipeResponse(view))
}

// HandleDelete removes a recipe owned by the caller.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, requestcontext.PrincipalFrom(ctx), id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete recipe",
			"request_id", requestcontext.RequestID(ctx),
			"recipe_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleAddFavorite marks a recipe as the caller's favorite.
func (h *Handler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	h.addMark(w, r, "favorite", h.service.AddFavorite)
}

// HandleRemoveFavorite unmarks a favorite.
func (h *Handler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeMark(w, r, "favorite", h.service.RemoveFavorite)
}

// HandleAddToCart puts a recipe into the caller's shopping cart.
func (h *Handler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	h.addMark(w, r, "shopping cart", h.service.AddToCart)
}

// HandleRemoveFromCart takes a recipe out of the shopping cart.
func (h *Handler) HandleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.removeMark(w, r, "shopping cart", h.service.RemoveFromCart)
}

func (h *Handler) addMark(w http.ResponseWriter, r *http.Request, mark string,
	add func(context.Context, domain.UserID, domain.RecipeID) (*models.Brief, error)) {
	ctx := r.Context()
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	brief, err := add(ctx, requestcontext.UserID(ctx), id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to add recipe to "+mark,
			"request_id", requestcontext.RequestID(ctx),
			"recipe_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBriefResponse(brief))
}

func (h *Handler) removeMark(w http.ResponseWriter, r *http.Request, mark string,
	remove func(context.Context, domain.UserID, domain.RecipeID) error) {
	ctx := r.Context()
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	if err := remove(ctx, requestcontext.UserID(ctx), id); err != nil {
		h.logger.WarnContext(ctx, "failed to remove recipe from "+mark,
			"request_id", requestcontext.RequestID(ctx),
			"recipe_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleDownloadShoppingCart renders the caller's shopping list as a text
// attachment.
func (h *Handler) HandleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	principal := requestcontext.PrincipalFrom(ctx)

	items, err := h.service.ShoppingList(ctx, principal.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build shopping list",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := shoppinglist.Render(&buf, requestcontext.Now(ctx), items); err != nil {
		h.logger.ErrorContext(ctx, "failed to render shopping list",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render shopping list"))
		return
	}

	w.Header().Set("Content-Type", shoppinglist.ContentType)
	w.Header().Set("Content-Disposition", shoppinglist.ContentDisposition(principal.Username))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func recipeID(w http.ResponseWriter, r *http.Request) (domain.RecipeID, bool) {
	id, err := domain.ParseRecipeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "recipe not found"))
		return 0, false
	}
	return id, true
}

// listQuery reads the recipe list filters. Boolean flags accept 1 or true.
func listQuery(r *http.Request) (models.ListQuery, error) {
	values := r.URL.Query()
	var q models.ListQuery
	if raw := values.Get("author"); raw != "" {
		author, err := domain.ParseUserID(raw)
		if err != nil {
			return q, dErrors.New(dErrors.CodeValidation, "author must be a positive integer")
		}
		q.AuthorID = author
	}
	q.TagSlugs = pstrings.DedupeAndTrim(values["tags"])
	q.Favorited = flag(values.Get("is_favorited"))
	q.InCart = flag(values.Get("is_in_shopping_cart"))
	return q, nil
}

func flag(raw string) bool {
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}
