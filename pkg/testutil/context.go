package testutil

import (
	"net/http"

	"foodgram/pkg/domain"
	"foodgram/pkg/requestcontext"
)

// AsUser attaches an authenticated principal to the request, the way the auth
// middleware would after validating a token.
func AsUser(req *http.Request, userID int64, username string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{
		UserID:   domain.UserID(userID),
		Username: username,
	})
	return req.WithContext(ctx)
}

// AsStaff attaches a staff principal to the request.
func AsStaff(req *http.Request, userID int64, username string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{
		UserID:   domain.UserID(userID),
		Username: username,
		IsStaff:  true,
	})
	return req.WithContext(ctx)
}

// WithRequestID tags the request with a fixed request ID.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
