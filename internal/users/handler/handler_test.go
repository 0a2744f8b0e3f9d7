package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"foodgram/internal/users/handler/mocks"
	"foodgram/internal/users/models"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/pagination"
	"foodgram/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type UsersHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestUsersHandlerSuite(t *testing.T) {
	suite.Run(t, new(UsersHandlerSuite))
}

func (s *UsersHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger, 6).Register(s.router)
}

func (s *UsersHandlerSuite) TestRegister() {
	s.Run("creates the user without is_subscribed", func() {
		s.service.EXPECT().Register(gomock.Any(), &models.RegisterRequest{
			Email: "chef@example.com", Username: "chef", FirstName: "Ann", LastName: "Cook", Password: "kitchen-secret",
		}).Return(&models.User{ID: 1, Email: "chef@example.com", Username: "chef", FirstName: "Ann", LastName: "Cook"}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{
			"email": "chef@Example.com", "username": "chef", "first_name": "Ann", "last_name": "Cook", "password": "kitchen-secret",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal(float64(1), (*body)["id"])
		s.NotContains(*body, "is_subscribed")
		s.NotContains(*body, "password")
	})

	s.Run("rejects an invalid payload before calling the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{"email": "nope"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("maps conflicts to 409", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "a user with that email already exists"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{
			"email": "chef@example.com", "username": "chef", "first_name": "Ann", "last_name": "Cook", "password": "kitchen-secret",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *UsersHandlerSuite) TestList() {
	s.Run("returns a page envelope", func() {
		s.service.EXPECT().List(gomock.Any(), domain.UserID(0), pagination.Params{Page: 1, Limit: 2}).
			Return([]models.Profile{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}}, 3, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users?limit=2"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		page := testutil.UnmarshalResponse[pagination.Page[UserResponse]](s.T(), rr)
		s.Equal(3, page.Count)
		s.Len(page.Results, 2)
		s.Require().NotNil(page.Next)
		s.Contains(*page.Next, "page=2")
		s.Nil(page.Previous)
	})

	s.Run("out of range page is 404", func() {
		s.service.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]models.Profile{}, 3, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users?page=9"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("passes the viewer through", func() {
		s.service.EXPECT().List(gomock.Any(), domain.UserID(5), gomock.Any()).Return([]models.Profile{}, 0, nil)
		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodGet, "/users"), 5, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *UsersHandlerSuite) TestGetAndMe() {
	s.Run("get by id", func() {
		s.service.EXPECT().Get(gomock.Any(), domain.UserID(0), domain.UserID(7)).
			Return(models.Profile{ID: 7, Username: "chef"}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users/7"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONContains(s.T(), rr, "is_subscribed", false)
	})

	s.Run("non numeric id is 404", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users/abc"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("me requires authentication", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users/me"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("me returns the caller", func() {
		s.service.EXPECT().Me(gomock.Any(), domain.UserID(3)).Return(models.Profile{ID: 3, Username: "me"}, nil)
		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodGet, "/users/me"), 3, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONContains(s.T(), rr, "username", "me")
	})
}

func (s *UsersHandlerSuite) TestSetPassword() {
	s.service.EXPECT().SetPassword(gomock.Any(), domain.UserID(3), &models.SetPasswordRequest{
		NewPassword: "brand-new-pass", CurrentPassword: "old-password",
	}).Return(nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/set_password", map[string]string{
		"new_password": "brand-new-pass", "current_password": "old-password",
	})
	rr := testutil.DoRequest(s.router, testutil.AsUser(req, 3, "me"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *UsersHandlerSuite) TestSubscriptions() {
	s.Run("lists with recipes_limit", func() {
		s.service.EXPECT().Subscriptions(gomock.Any(), domain.UserID(3), pagination.Params{Page: 1, Limit: 6}, 2).
			Return([]models.Subscription{{
				Author:  models.Profile{ID: 7, Username: "chef", IsSubscribed: true},
				Recipes: []models.RecipeSummary{{ID: 1, Name: "Soup", Image: "http://x/media/a.png", CookingTime: 5}},
				Count:   4,
			}}, 1, nil)

		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodGet, "/users/subscriptions?recipes_limit=2"), 3, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		page := testutil.UnmarshalResponse[pagination.Page[SubscriptionResponse]](s.T(), rr)
		s.Require().Len(page.Results, 1)
		s.Equal(4, page.Results[0].RecipesCount)
		s.True(page.Results[0].IsSubscribed)
		s.Equal("Soup", page.Results[0].Recipes[0].Name)
	})

	s.Run("bad recipes_limit is rejected", func() {
		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodGet, "/users/subscriptions?recipes_limit=-1"), 3, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *UsersHandlerSuite) TestSubscribe() {
	s.Run("subscribe returns 201 with the author", func() {
		s.service.EXPECT().Subscribe(gomock.Any(), domain.UserID(3), domain.UserID(7), -1).
			Return(&models.Subscription{Author: models.Profile{ID: 7, IsSubscribed: true}, Recipes: []models.RecipeSummary{}}, nil)
		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodPost, "/users/7/subscribe"), 3, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONHasKey(s.T(), rr, "recipes")
	})

	s.Run("duplicate subscribe is 400", func() {
		s.service.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "you are already subscribed to this author"))
		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodPost, "/users/7/subscribe"), 3, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("anonymous cannot subscribe", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/users/7/subscribe"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("unsubscribe returns 204", func() {
		s.service.EXPECT().Unsubscribe(gomock.Any(), domain.UserID(3), domain.UserID(7)).Return(nil)
		req := testutil.AsUser(testutil.NewRequest(s.T(), http.MethodDelete, "/users/7/subscribe"), 3, "me")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})
}
