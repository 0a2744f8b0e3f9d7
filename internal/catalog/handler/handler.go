package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodgram/internal/catalog/models"
	"foodgram/internal/platform/middleware"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/httputil"
	"foodgram/pkg/requestcontext"
)

// Service defines the interface for catalog operations.
type Service interface {
	ListTags(ctx context.Context) ([]*models.Tag, error)
	GetTag(ctx context.Context, id domain.TagID) (*models.Tag, error)
	CreateTag(ctx context.Context, req *models.CreateTagRequest) (*models.Tag, error)
	UpdateTag(ctx context.Context, id domain.TagID, req *models.UpdateTagRequest) (*models.Tag, error)
	DeleteTag(ctx context.Context, id domain.TagID) error
	SearchIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error)
	GetIngredient(ctx context.Context, id domain.IngredientID) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, req *models.CreateIngredientRequest) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id domain.IngredientID) error
}

// Handler handles tag and ingredient endpoints. Reads are public; writes are
// staff-only.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a catalog Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	staff := middleware.RequireStaff(h.logger)

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.HandleListTags)
		r.Get("/{id}", h.HandleGetTag)
		r.With(staff).Post("/", h.HandleCreateTag)
		r.With(staff).Patch("/{id}", h.HandleUpdateTag)
		r.With(staff).Delete("/{id}", h.HandleDeleteTag)
	})

	r.Route("/ingredients", func(r chi.Router) {
		r.Get("/", h.HandleSearchIngredients)
		r.Get("/{id}", h.HandleGetIngredient)
		r.With(staff).Post("/", h.HandleCreateIngredient)
		r.With(staff).Delete("/{id}", h.HandleDeleteIngredient)
	})
}

// HandleListTags returns every tag ordered by name.
func (h *Handler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tags, err := h.service.ListTags(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list tags",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = toTagResponse(t)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGetTag returns one tag.
func (h *Handler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := tagID(w, r)
	if !ok {
		return
	}
	tag, err := h.service.GetTag(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get tag",
			"request_id", requestcontext.RequestID(ctx),
			"tag_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTagResponse(tag))
}

// HandleCreateTag adds a tag.
func (h *Handler) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateTagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	tag, err := h.service.CreateTag(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create tag",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTagResponse(tag))
}

// HandleUpdateTag patches a tag.
func (h *Handler) HandleUpdateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := tagID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateTagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	tag, err := h.service.UpdateTag(ctx, id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update tag",
			"request_id", requestID,
			"tag_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTagResponse(tag))
}

// HandleDeleteTag removes a tag from the catalog and from every recipe.
func (h *Handler) HandleDeleteTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := tagID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTag(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete tag",
			"request_id", requestcontext.RequestID(ctx),
			"tag_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleSearchIngredients lists ingredients, optionally filtered by ?name prefix.
func (h *Handler) HandleSearchIngredients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	found, err := h.service.SearchIngredients(ctx, r.URL.Query().Get("name"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search ingredients",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]IngredientResponse, len(found))
	for i, ing := range found {
		out[i] = toIngredientResponse(ing)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGetIngredient returns one ingredient.
func (h *Handler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := ingredientID(w, r)
	if !ok {
		return
	}
	ing, err := h.service.GetIngredient(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get ingredient",
			"request_id", requestcontext.RequestID(ctx),
			"ingredient_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIngredientResponse(ing))
}

// HandleCreateIngredient adds an ingredient.
func (h *Handler) HandleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateIngredientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ing, err := h.service.CreateIngredient(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create ingredient",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIngredientResponse(ing))
}

// HandleDeleteIngredient removes an ingredient no recipe uses.
func (h *Handler) HandleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := ingredientID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteIngredient(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete ingredient",
			"request_id", requestcontext.RequestID(ctx),
			"ingredient_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func tagID(w http.ResponseWriter, r *http.Request) (domain.TagID, bool) {
	id, err := domain.ParseTagID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "tag not found"))
		return 0, false
	}
	return id, true
}

func ingredientID(w http.ResponseWriter, r *http.Request) (domain.IngredientID, bool) {
	id, err := domain.ParseIngredientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "ingredient not found"))
		return 0, false
	}
	return id, true
}
