package service

import (
	"context"
	"errors"
	"log/slog"

	"foodgram/internal/platform/metrics"
	"foodgram/internal/users/models"
	"foodgram/internal/users/store"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
	"foodgram/pkg/platform/pagination"
	"foodgram/pkg/requestcontext"
	"foodgram/pkg/secrets"
)

// AllRecipes disables truncation of the recipe preview under a followed author.
const AllRecipes = -1

type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	UpdatePassword(ctx context.Context, id domain.UserID, passwordHash string) error
	SetStaff(ctx context.Context, id domain.UserID, staff bool) error
	AddSubscription(ctx context.Context, subscriber, author domain.UserID) error
	RemoveSubscription(ctx context.Context, subscriber, author domain.UserID) error
	SubscribedTo(ctx context.Context, subscriber domain.UserID, authors []domain.UserID) (map[domain.UserID]bool, error)
	ListSubscriptions(ctx context.Context, subscriber domain.UserID, limit, offset int) ([]*models.User, int, error)
}

// RecipeSummaries previews the newest recipes of each author. A negative
// limit returns every recipe.
type RecipeSummaries interface {
	SummariesByAuthors(ctx context.Context, authors []domain.UserID, limit int) (map[domain.UserID]models.AuthorRecipes, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, e events.Event) bool
}

// Service owns registration, profiles and subscriptions.
type Service struct {
	users   Store
	recipes RecipeSummaries
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
func New(users Store, recipes RecipeSummaries, opts ...Option) *Service {
	s := &Service{users: users, recipes: recipes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := secrets.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := models.NewUser(req.Email, req.Username, req.FirstName, req.LastName, hash, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			return nil, dErrors.New(dErrors.CodeConflict, "a user with that email already exists")
		case errors.Is(err, store.ErrUsernameTaken):
			return nil, dErrors.New(dErrors.CodeConflict, "a user with that username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, events.UserRegistered, "subject_id", user.ID, "user_id", user.ID)
	s.metrics.IncrementUsersRegistered()
	return user, nil
}

// List pages through all users, flagging the ones viewer follows.
func (s *Service) List(ctx context.Context, viewer domain.UserID, p pagination.Params) ([]models.Profile, int, error) {
	users, count, err := s.users.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	profiles, err := s.profilesOf(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return profiles, count, nil
}

// Get returns one user as seen by viewer.
func (s *Service) Get(ctx context.Context, viewer, id domain.UserID) (models.Profile, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	profiles, err := s.profilesOf(ctx, viewer, []*models.User{user})
	if err != nil {
		return models.Profile{}, err
	}
	return profiles[0], nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, viewer domain.UserID) (models.Profile, error) {
	user, err := s.find(ctx, viewer)
	if err != nil {
		return models.Profile{}, err
	}
	return models.ProfileOf(user, false), nil
}

// Profiles resolves authors for recipe payloads in one store round trip.
func (s *Service) Profiles(ctx context.Context, viewer domain.UserID, ids []domain.UserID) (map[domain.UserID]models.Profile, error) {
	found, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authors")
	}
	users := make([]*models.User, 0, len(found))
	for _, u := range found {
		users = append(users, u)
	}
	profiles, err := s.profilesOf(ctx, viewer, users)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.UserID]models.Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// SetPassword replaces the caller's password after checking the current one.
func (s *Service) SetPassword(ctx context.Context, userID domain.UserID, req *models.SetPasswordRequest) error {
	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if err := secrets.Verify(req.CurrentPassword, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			return dErrors.New(dErrors.CodeValidation, "current_password: invalid password")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if err := models.ValidatePassword(req.NewPassword, user.Username, user.Email); err != nil {
		return err
	}
	hash, err := secrets.Hash(req.NewPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}
	s.logAudit(ctx, events.PasswordChanged, "subject_id", userID, "user_id", userID)
	return nil
}

// Subscribe makes subscriber follow author and returns the author with a
// recipe preview.
func (s *Service) Subscribe(ctx context.Context, subscriber, author domain.UserID, recipesLimit int) (*models.Subscription, error) {
	if subscriber == author {
		return nil, dErrors.New(dErrors.CodeBadRequest, "you cannot subscribe to yourself")
	}
	target, err := s.find(ctx, author)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddSubscription(ctx, subscriber, author); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadySubscribed):
			return nil, dErrors.New(dErrors.CodeBadRequest, "you are already subscribed to this author")
		case errors.Is(err, store.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to subscribe")
	}

	s.logAudit(ctx, events.SubscriptionCreated, "subject_id", author, "user_id", subscriber)
	s.metrics.IncrementSubscriptionsCreated()

	subs, err := s.withRecipes(ctx, []models.Profile{models.ProfileOf(target, true)}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// Unsubscribe removes an existing subscription.
func (s *Service) Unsubscribe(ctx context.Context, subscriber, author domain.UserID) error {
	if _, err := s.find(ctx, author); err != nil {
		return err
	}
	if err := s.users.RemoveSubscription(ctx, subscriber, author); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "you are not subscribed to this author")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unsubscribe")
	}
	s.logAudit(ctx, events.SubscriptionDeleted, "subject_id", author, "user_id", subscriber)
	return nil
}

// Subscriptions pages through the authors subscriber follows.
func (s *Service) Subscriptions(ctx context.Context, subscriber domain.UserID, p pagination.Params, recipesLimit int) ([]models.Subscription, int, error) {
	authors, count, err := s.users.ListSubscriptions(ctx, subscriber, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list subscriptions")
	}
	profiles := make([]models.Profile, len(authors))
	for i, a := range authors {
		profiles[i] = models.ProfileOf(a, true)
	}
	subs, err := s.withRecipes(ctx, profiles, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return subs, count, nil
}

// SetStaff grants or revokes staff rights by username.
func (s *Service) SetStaff(ctx context.Context, username string, staff bool) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := s.users.SetStaff(ctx, user.ID, staff); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	user.IsStaff = staff
	s.logAudit(ctx, "user_staff_changed", "user_id", user.ID, "is_staff", staff)
	return user, nil
}

func (s *Service) find(ctx context.Context, id domain.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) profilesOf(ctx context.Context, viewer domain.UserID, users []*models.User) ([]models.Profile, error) {
	subscribed := map[domain.UserID]bool{}
	if !viewer.IsZero() && len(users) > 0 {
		ids := make([]domain.UserID, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var err error
		subscribed, err = s.users.SubscribedTo(ctx, viewer, ids)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscriptions")
		}
	}
	profiles := make([]models.Profile, len(users))
	for i, u := range users {
		profiles[i] = models.ProfileOf(u, subscribed[u.ID])
	}
	return profiles, nil
}

func (s *Service) withRecipes(ctx context.Context, authors []models.Profile, limit int) ([]models.Subscription, error) {
	ids := make([]domain.UserID, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	previews := map[domain.UserID]models.AuthorRecipes{}
	if s.recipes != nil && len(ids) > 0 {
		var err error
		previews, err = s.recipes.SummariesByAuthors(ctx, ids, limit)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load author recipes")
		}
	}
	subs := make([]models.Subscription, len(authors))
	for i, a := range authors {
		preview := previews[a.ID]
		recipes := preview.Recipes
		if recipes == nil {
			recipes = []models.RecipeSummary{}
		}
		subs[i] = models.Subscription{Author: a, Recipes: recipes, Count: preview.Count}
	}
	return subs, nil
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
