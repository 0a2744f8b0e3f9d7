package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	authModels "foodgram/internal/auth/models"
	jwttoken "foodgram/internal/jwt_token"
	"foodgram/internal/platform/metrics"
	userModels "foodgram/internal/users/models"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
	"foodgram/pkg/platform/sentinel"
	"foodgram/pkg/requestcontext"
	"foodgram/pkg/secrets"
)

type UserStore interface {
	FindByID(ctx context.Context, id domain.UserID) (*userModels.User, error)
	FindByEmail(ctx context.Context, email string) (*userModels.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID domain.UserID, expiresIn time.Duration) (jwttoken.IssuedToken, error)
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// TokenRevocationList tracks logged-out tokens until they expire.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, e events.Event) bool
}

// Service issues, resolves and revokes access tokens.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	trl      TokenRevocationList
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	events   EventEmitter
}

type Option func(*Service)

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

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// New constructs a Service. Tokens live for seven days unless WithTokenTTL says otherwise.
func New(users UserStore, tokens TokenIssuer, trl TokenRevocationList, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, trl: trl, tokenTTL: 7 * 24 * time.Hour, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	dummyHash     string
	dummyHashOnce sync.Once
)

// equalizeTiming burns a bcrypt comparison so unknown emails cost as much as
// wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = secrets.Hash("foodgram-timing-placeholder")
	})
	_ = secrets.Verify(password, dummyHash)
}

// Login checks credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, req *authModels.LoginRequest) (string, error) {
	invalid := dErrors.New(dErrors.CodeInvalidCredentials, "unable to log in with provided credentials")

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			equalizeTiming(req.Password)
			s.metrics.IncrementLogin("failure")
			return "", invalid
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			s.metrics.IncrementLogin("failure")
			s.logger.WarnContext(ctx, "login failed",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", user.ID,
			)
			return "", invalid
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	issued, err := s.tokens.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.IncrementLogin("success")
	s.logAudit(ctx, events.UserLoggedIn, "subject_id", user.ID, "user_id", user.ID)
	return issued.Token, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, principal requestcontext.Principal) error {
	if !principal.Authenticated() || principal.TokenID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication credentials were not provided")
	}
	ttl := principal.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.trl.RevokeToken(ctx, principal.TokenID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logAudit(ctx, events.UserLoggedOut, "subject_id", principal.UserID, "user_id", principal.UserID)
	return nil
}

// Authenticate resolves a raw token into the calling principal.
func (s *Service) Authenticate(ctx context.Context, token string) (requestcontext.Principal, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	userID, err := jwttoken.UserIDFromClaims(claims)
	if err != nil {
		return requestcontext.Principal{}, err
	}

	revoked, err := s.trl.IsRevoked(ctx, claims.ID)
	if err != nil {
		return requestcontext.Principal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token revocation")
	}
	if revoked {
		return requestcontext.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return requestcontext.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "user not found")
		}
		return requestcontext.Principal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	return requestcontext.Principal{
		UserID:    user.ID,
		Username:  user.Username,
		IsStaff:   user.IsStaff,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) logAudit(ctx context.Context, event events.Type, attributes ...any) {
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
