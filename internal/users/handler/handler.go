package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"foodgram/internal/platform/middleware"
	"foodgram/internal/users/models"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/httputil"
	"foodgram/pkg/platform/pagination"
	"foodgram/pkg/requestcontext"
)

// Service defines the interface for user operations.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	List(ctx context.Context, viewer domain.UserID, p pagination.Params) ([]models.Profile, int, error)
	Get(ctx context.Context, viewer, id domain.UserID) (models.Profile, error)
	Me(ctx context.Context, viewer domain.UserID) (models.Profile, error)
	SetPassword(ctx context.Context, userID domain.UserID, req *models.SetPasswordRequest) error
	Subscribe(ctx context.Context, subscriber, author domain.UserID, recipesLimit int) (*models.Subscription, error)
	Unsubscribe(ctx context.Context, subscriber, author domain.UserID) error
	Subscriptions(ctx context.Context, subscriber domain.UserID, p pagination.Params, recipesLimit int) ([]models.Subscription, int, error)
}

// Handler handles user and subscription endpoints.
type Handler struct {
	service  Service
	logger   *slog.Logger
	pageSize int
}

// New creates a users Handler.
func New(service Service, logger *slog.Logger, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = pagination.DefaultLimit
	}
	return &Handler{service: service, logger: logger, pageSize: pageSize}
}

// Register registers the user routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.HandleRegister)
		r.Get("/", h.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.logger))
			r.Get("/me", h.HandleMe)
			r.Post("/set_password", h.HandleSetPassword)
			r.Get("/subscriptions", h.HandleSubscriptions)
			r.Post("/{id}/subscribe", h.HandleSubscribe)
			r.Delete("/{id}/subscribe", h.HandleUnsubscribe)
		})

		r.Get("/{id}", h.HandleGet)
	})
}

// HandleRegister creates a new account.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.Register(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to register user",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toRegisteredResponse(user))
}

// HandleList returns a page of users.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	p, err := pagination.FromRequest(r, h.pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profiles, count, err := h.service.List(ctx, requestcontext.UserID(ctx), p)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users",
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

	results := make([]UserResponse, len(profiles))
	for i, profile := range profiles {
		results[i] = toUserResponse(profile)
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.New(r, p, count, results))
}

// HandleGet returns one user.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	profile, err := h.service.Get(ctx, requestcontext.UserID(ctx), id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get user",
			"request_id", requestID,
			"user_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(profile))
}

// HandleMe returns the caller's profile.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.service.Me(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load current user",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(profile))
}

// HandleSetPassword changes the caller's password.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SetPasswordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetPassword(ctx, requestcontext.UserID(ctx), req); err != nil {
		h.logger.WarnContext(ctx, "failed to set password",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleSubscriptions lists the authors the caller follows.
func (h *Handler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	p, err := pagination.FromRequest(r, h.pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	subs, count, err := h.service.Subscriptions(ctx, requestcontext.UserID(ctx), p, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list subscriptions",
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

	results := make([]SubscriptionResponse, len(subs))
	for i, sub := range subs {
		results[i] = toSubscriptionResponse(sub)
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.New(r, p, count, results))
}

// HandleSubscribe follows an author.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	author, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sub, err := h.service.Subscribe(ctx, requestcontext.UserID(ctx), author, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to subscribe",
			"request_id", requestID,
			"author_id", author,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSubscriptionResponse(*sub))
}

// HandleUnsubscribe stops following an author.
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	author, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}
	if err := h.service.Unsubscribe(ctx, requestcontext.UserID(ctx), author); err != nil {
		h.logger.WarnContext(ctx, "failed to unsubscribe",
			"request_id", requestID,
			"author_id", author,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// recipesLimit reads ?recipes_limit; absent means no truncation.
func recipesLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "recipes_limit must be a non-negative integer")
	}
	return n, nil
}
