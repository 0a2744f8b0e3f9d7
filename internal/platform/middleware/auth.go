package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/httputil"
	"foodgram/pkg/requestcontext"
)

// Authenticator turns a raw access token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (requestcontext.Principal, error)
}

// tokenFromHeader accepts both "Token <t>" and "Bearer <t>".
func tokenFromHeader(header string) (string, bool) {
	for _, prefix := range []string{"Token ", "Bearer "} {
		if after, ok := strings.CutPrefix(header, prefix); ok {
			token := strings.TrimSpace(after)
			return token, token != ""
		}
	}
	return "", false
}

// OptionalAuth resolves the caller when an Authorization header is present.
// Requests without the header continue as anonymous; a malformed, invalid or
// revoked token is rejected with 401.
func OptionalAuth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)
			token, ok := tokenFromHeader(header)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			principal, err := auth.Authenticate(ctx, token)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, err)
					return
				}
				logger.ErrorContext(ctx, "failed to authenticate token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token"))
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers. It runs after OptionalAuth.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.PrincipalFrom(ctx).Authenticated() {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication credentials were not provided"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff allows only staff users. Anonymous callers get 401, others 403.
func RequireStaff(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p := requestcontext.PrincipalFrom(ctx)
			if !p.Authenticated() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication credentials were not provided"))
				return
			}
			if !p.IsStaff {
				logger.WarnContext(ctx, "forbidden - staff only",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", p.UserID,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "staff permissions required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
