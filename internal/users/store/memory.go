package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodgram/internal/users/models"
	"foodgram/pkg/domain"
)

// InMemoryStore keeps users and subscriptions in maps guarded by a RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID domain.UserID
	users  map[domain.UserID]*models.User
	// subscriber -> author -> created at
	subscriptions map[domain.UserID]map[domain.UserID]time.Time
}

// NewInMemory returns an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[domain.UserID]*models.User),
		subscriptions: make(map[domain.UserID]map[domain.UserID]time.Time),
	}
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrEmailTaken
		}
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByIDs(_ context.Context, ids []domain.UserID) (map[domain.UserID]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.UserID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			found := *u
			out[id] = &found
		}
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	return pageOf(all, limit, offset), len(all), nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, id domain.UserID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *InMemoryStore) SetStaff(_ context.Context, id domain.UserID, staff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsStaff = staff
	return nil
}

func (s *InMemoryStore) AddSubscription(_ context.Context, subscriber, author domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[author]; !ok {
		return ErrNotFound
	}
	follows, ok := s.subscriptions[subscriber]
	if !ok {
		follows = make(map[domain.UserID]time.Time)
		s.subscriptions[subscriber] = follows
	}
	if _, exists := follows[author]; exists {
		return ErrAlreadySubscribed
	}
	follows[author] = time.Now()
	return nil
}

func (s *InMemoryStore) RemoveSubscription(_ context.Context, subscriber, author domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	follows := s.subscriptions[subscriber]
	if _, exists := follows[author]; !exists {
		return ErrNotFound
	}
	delete(follows, author)
	return nil
}

func (s *InMemoryStore) SubscribedTo(_ context.Context, subscriber domain.UserID, authors []domain.UserID) (map[domain.UserID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.UserID]bool, len(authors))
	follows := s.subscriptions[subscriber]
	for _, a := range authors {
		if _, ok := follows[a]; ok {
			out[a] = true
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListSubscriptions(_ context.Context, subscriber domain.UserID, limit, offset int) ([]*models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	follows := s.subscriptions[subscriber]
	authors := make([]*models.User, 0, len(follows))
	for id := range follows {
		if u, ok := s.users[id]; ok {
			authors = append(authors, u)
		}
	}
	return pageOf(authors, limit, offset), len(authors), nil
}

// pageOf sorts by username and copies the requested window.
func pageOf(users []*models.User, limit, offset int) []*models.User {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ID < users[j].ID
	})
	if offset >= len(users) {
		return []*models.User{}
	}
	end := len(users)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*models.User, 0, end-offset)
	for _, u := range users[offset:end] {
		found := *u
		out = append(out, &found)
	}
	return out
}
