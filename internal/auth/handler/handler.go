package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodgram/internal/auth/models"
	"foodgram/internal/platform/middleware"
	"foodgram/pkg/platform/httputil"
	"foodgram/pkg/requestcontext"
)

// Service defines the interface for token operations.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (string, error)
	Logout(ctx context.Context, principal requestcontext.Principal) error
}

// Handler handles token login and logout.
type Handler struct {
	service          Service
	logger           *slog.Logger
	loginLimitPerMin int
}

// New creates an auth Handler. loginLimitPerMin caps login attempts per client IP.
func New(service Service, logger *slog.Logger, loginLimitPerMin int) *Handler {
	return &Handler{service: service, logger: logger, loginLimitPerMin: loginLimitPerMin}
}

// Register registers the token routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth/token", func(r chi.Router) {
		r.With(middleware.RateLimit(h.loginLimitPerMin), middleware.LimitBody(16<<10)).
			Post("/login", h.HandleLogin)
		r.With(middleware.RequireAuth(h.logger)).
			Post("/logout", h.HandleLogout)
	})
}

// HandleLogin exchanges email and password for a token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.service.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.TokenResponse{AuthToken: token})
}

// HandleLogout revokes the token used for this request.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.service.Logout(ctx, requestcontext.PrincipalFrom(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
