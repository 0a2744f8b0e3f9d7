//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"foodgram/internal/users/models"
	"foodgram/internal/users/store"
	"foodgram/pkg/domain"
	"foodgram/pkg/platform/sentinel"
	"foodgram/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "subscriptions", "users"))
}

func (s *PostgresStoreSuite) create(email, username string) *models.User {
	u, err := models.NewUser(email, username, "First", "Last", "hash", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), u))
	return u
}

func (s *PostgresStoreSuite) TestCaseInsensitiveEmail() {
	ctx := context.Background()
	u := s.create("Chef@Example.com", "chef")

	found, err := s.store.FindByEmail(ctx, "chef@example.COM")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	dup, _ := models.NewUser("CHEF@example.com", "chef2", "F", "L", "hash", time.Now())
	s.ErrorIs(s.store.Create(ctx, dup), store.ErrEmailTaken)

	dup, _ = models.NewUser("other@example.com", "chef", "F", "L", "hash", time.Now())
	s.ErrorIs(s.store.Create(ctx, dup), store.ErrUsernameTaken)
}

// TestConcurrentRegistration verifies exactly one insert wins a username race.
func (s *PostgresStoreSuite) TestConcurrentRegistration() {
	ctx := context.Background()
	const goroutines = 20
	var wg sync.WaitGroup
	var ok, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, _ := models.NewUser(uuid.NewString()+"@example.com", "racer", "F", "L", "hash", time.Now())
			err := s.store.Create(ctx, u)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestSubscriptionsAndPaging() {
	ctx := context.Background()
	reader := s.create("r@example.com", "reader")
	chef := s.create("c@example.com", "chef")
	baker := s.create("b@example.com", "baker")

	s.Require().NoError(s.store.AddSubscription(ctx, reader.ID, chef.ID))
	s.Require().NoError(s.store.AddSubscription(ctx, reader.ID, baker.ID))
	s.ErrorIs(s.store.AddSubscription(ctx, reader.ID, chef.ID), store.ErrAlreadySubscribed)
	s.ErrorIs(s.store.AddSubscription(ctx, reader.ID, 999), sentinel.ErrNotFound)

	flags, err := s.store.SubscribedTo(ctx, reader.ID, []domain.UserID{chef.ID, baker.ID, reader.ID})
	s.Require().NoError(err)
	s.True(flags[chef.ID])
	s.True(flags[baker.ID])
	s.False(flags[reader.ID])

	authors, count, err := s.store.ListSubscriptions(ctx, reader.ID, 1, 0)
	s.Require().NoError(err)
	s.Equal(2, count)
	s.Require().Len(authors, 1)
	s.Equal("baker", authors[0].Username)

	users, total, err := s.store.List(ctx, 10, 0)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Equal([]string{"baker", "chef", "reader"}, []string{users[0].Username, users[1].Username, users[2].Username})

	s.Require().NoError(s.store.RemoveSubscription(ctx, reader.ID, chef.ID))
	s.ErrorIs(s.store.RemoveSubscription(ctx, reader.ID, chef.ID), sentinel.ErrNotFound)
}
