package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"foodgram/internal/users/models"
	"foodgram/internal/users/store"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
	"foodgram/pkg/platform/pagination"
	"foodgram/pkg/secrets"
)

type stubSummaries struct {
	byAuthor  map[domain.UserID]models.AuthorRecipes
	lastLimit int
}

func (s *stubSummaries) SummariesByAuthors(_ context.Context, authors []domain.UserID, limit int) (map[domain.UserID]models.AuthorRecipes, error) {
	s.lastLimit = limit
	out := map[domain.UserID]models.AuthorRecipes{}
	for _, a := range authors {
		if r, ok := s.byAuthor[a]; ok {
			out[a] = r
		}
	}
	return out, nil
}

type capturingEmitter struct {
	types []events.Type
}

func (c *capturingEmitter) Emit(_ context.Context, e events.Event) bool {
	c.types = append(c.types, e.Type)
	return true
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	summaries *stubSummaries
	emitter   *capturingEmitter
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.summaries = &stubSummaries{byAuthor: map[domain.UserID]models.AuthorRecipes{}}
	s.emitter = &capturingEmitter{}
	s.service = New(s.store, s.summaries, WithEventEmitter(s.emitter))
}

func (s *ServiceSuite) register(username string) *models.User {
	req := &models.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "kitchen-secret",
	}
	req.Normalize()
	s.Require().NoError(req.Validate())
	u, err := s.service.Register(s.ctx, req)
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) TestRegister() {
	s.Run("hashes the password and emits an event", func() {
		u := s.register("chef")
		s.NotEqual("kitchen-secret", u.PasswordHash)
		s.NoError(secrets.Verify("kitchen-secret", u.PasswordHash))
		s.Contains(s.emitter.types, events.UserRegistered)
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Email: "CHEF@example.com", Username: "other", FirstName: "A", LastName: "B", Password: "kitchen-secret",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "email")
	})

	s.Run("duplicate username is a conflict", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Email: "new@example.com", Username: "chef", FirstName: "A", LastName: "B", Password: "kitchen-secret",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "username")
	})
}

func (s *ServiceSuite) TestProfilesCarrySubscriptionFlag() {
	reader := s.register("reader")
	chef := s.register("chef")
	_, err := s.service.Subscribe(s.ctx, reader.ID, chef.ID, AllRecipes)
	s.Require().NoError(err)

	p, err := s.service.Get(s.ctx, reader.ID, chef.ID)
	s.Require().NoError(err)
	s.True(p.IsSubscribed)

	p, err = s.service.Get(s.ctx, 0, chef.ID)
	s.Require().NoError(err)
	s.False(p.IsSubscribed, "anonymous viewers never see a subscription")

	list, count, err := s.service.List(s.ctx, reader.ID, pagination.Params{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(2, count)
	s.Equal("chef", list[0].Username)
	s.True(list[0].IsSubscribed)
	s.False(list[1].IsSubscribed)

	profiles, err := s.service.Profiles(s.ctx, reader.ID, []domain.UserID{chef.ID, reader.ID})
	s.Require().NoError(err)
	s.True(profiles[chef.ID].IsSubscribed)

	me, err := s.service.Me(s.ctx, reader.ID)
	s.Require().NoError(err)
	s.Equal("reader", me.Username)

	_, err = s.service.Get(s.ctx, reader.ID, 404)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSubscribe() {
	reader := s.register("reader")
	chef := s.register("chef")
	s.summaries.byAuthor[chef.ID] = models.AuthorRecipes{
		Recipes: []models.RecipeSummary{{ID: 3, Name: "Soup", CookingTime: 10}},
		Count:   5,
	}

	sub, err := s.service.Subscribe(s.ctx, reader.ID, chef.ID, 1)
	s.Require().NoError(err)
	s.True(sub.Author.IsSubscribed)
	s.Equal(5, sub.Count)
	s.Len(sub.Recipes, 1)
	s.Equal(1, s.summaries.lastLimit)

	_, err = s.service.Subscribe(s.ctx, reader.ID, chef.ID, AllRecipes)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.Subscribe(s.ctx, reader.ID, reader.ID, AllRecipes)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.Subscribe(s.ctx, reader.ID, 999, AllRecipes)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	subs, count, err := s.service.Subscriptions(s.ctx, reader.ID, pagination.Params{Page: 1, Limit: 6}, AllRecipes)
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal("chef", subs[0].Author.Username)

	s.Require().NoError(s.service.Unsubscribe(s.ctx, reader.ID, chef.ID))
	err = s.service.Unsubscribe(s.ctx, reader.ID, chef.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	err = s.service.Unsubscribe(s.ctx, reader.ID, 999)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Contains(s.emitter.types, events.SubscriptionCreated)
	s.Contains(s.emitter.types, events.SubscriptionDeleted)
}

func (s *ServiceSuite) TestSubscriptionWithoutRecipesHasEmptyList() {
	reader := s.register("reader")
	chef := s.register("chef")
	sub, err := s.service.Subscribe(s.ctx, reader.ID, chef.ID, AllRecipes)
	s.Require().NoError(err)
	s.NotNil(sub.Recipes)
	s.Empty(sub.Recipes)
	s.Zero(sub.Count)
}

func (s *ServiceSuite) TestSetPassword() {
	u := s.register("chef")

	err := s.service.SetPassword(s.ctx, u.ID, &models.SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "brand-new-pass"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	err = s.service.SetPassword(s.ctx, u.ID, &models.SetPasswordRequest{CurrentPassword: "kitchen-secret", NewPassword: "chef"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Require().NoError(s.service.SetPassword(s.ctx, u.ID, &models.SetPasswordRequest{
		CurrentPassword: "kitchen-secret", NewPassword: "brand-new-pass",
	}))
	stored, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.NoError(secrets.Verify("brand-new-pass", stored.PasswordHash))
}

func (s *ServiceSuite) TestSetStaff() {
	s.register("chef")
	u, err := s.service.SetStaff(s.ctx, "chef", true)
	s.Require().NoError(err)
	s.True(u.IsStaff)

	_, err = s.service.SetStaff(s.ctx, "ghost", true)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
