package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	authModels "foodgram/internal/auth/models"
	"foodgram/internal/auth/store/revocation"
	jwttoken "foodgram/internal/jwt_token"
	userModels "foodgram/internal/users/models"
	userStore "foodgram/internal/users/store"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/requestcontext"
	"foodgram/pkg/secrets"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	users   *userStore.InMemoryStore
	trl     *revocation.InMemoryTRL
	service *Service
	chef    *userModels.User
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = userStore.NewInMemory()
	s.trl = revocation.NewInMemoryTRL()
	tokens := jwttoken.NewJWTService("test-key", "foodgram", "foodgram-api")
	s.service = New(s.users, tokens, s.trl,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTokenTTL(time.Hour),
	)

	hash, err := secrets.Hash("kitchen-secret")
	s.Require().NoError(err)
	s.chef, err = userModels.NewUser("chef@example.com", "chef", "Ann", "Cook", hash, time.Now())
	s.Require().NoError(err)
	s.chef.IsStaff = true
	s.Require().NoError(s.users.Create(s.ctx, s.chef))
}

func (s *AuthServiceSuite) login() string {
	token, err := s.service.Login(s.ctx, &authModels.LoginRequest{Email: "Chef@example.com", Password: "kitchen-secret"})
	s.Require().NoError(err)
	s.Require().NotEmpty(token)
	return token
}

func (s *AuthServiceSuite) TestLoginAndAuthenticate() {
	token := s.login()

	principal, err := s.service.Authenticate(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(s.chef.ID, principal.UserID)
	s.Equal("chef", principal.Username)
	s.True(principal.IsStaff)
	s.NotEmpty(principal.TokenID)
	s.WithinDuration(time.Now().Add(time.Hour), principal.ExpiresAt, time.Minute)
}

func (s *AuthServiceSuite) TestLoginFailures() {
	s.Run("wrong password", func() {
		_, err := s.service.Login(s.ctx, &authModels.LoginRequest{Email: "chef@example.com", Password: "nope-nope"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})
	s.Run("unknown email", func() {
		_, err := s.service.Login(s.ctx, &authModels.LoginRequest{Email: "ghost@example.com", Password: "kitchen-secret"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})
}

func (s *AuthServiceSuite) TestLogoutRevokesToken() {
	token := s.login()
	principal, err := s.service.Authenticate(s.ctx, token)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, principal))

	_, err = s.service.Authenticate(s.ctx, token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "revoked")

	fresh := s.login()
	_, err = s.service.Authenticate(s.ctx, fresh)
	s.NoError(err, "logging out one token leaves others valid")
}

func (s *AuthServiceSuite) TestLogoutRequiresPrincipal() {
	err := s.service.Logout(s.ctx, requestcontext.Principal{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestAuthenticateRejectsGarbageAndDeletedUsers() {
	_, err := s.service.Authenticate(s.ctx, "garbage")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	other := New(userStore.NewInMemory(), jwttoken.NewJWTService("test-key", "foodgram", "foodgram-api"), s.trl)
	_, err = other.Authenticate(s.ctx, s.login())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
