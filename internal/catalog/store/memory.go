package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"foodgram/internal/catalog/models"
	"foodgram/pkg/domain"
)

// InMemoryStore keeps the catalog in maps guarded by a RWMutex.
type InMemoryStore struct {
	mu               sync.RWMutex
	nextTagID        domain.TagID
	nextIngredientID domain.IngredientID
	tags             map[domain.TagID]*models.Tag
	ingredients      map[domain.IngredientID]*models.Ingredient
}

// NewInMemory returns an empty catalog.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		tags:        make(map[domain.TagID]*models.Tag),
		ingredients: make(map[domain.IngredientID]*models.Ingredient),
	}
}

func (s *InMemoryStore) CreateTag(_ context.Context, tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tagClash(tag); err != nil {
		return err
	}
	s.nextTagID++
	tag.ID = s.nextTagID
	stored := *tag
	s.tags[tag.ID] = &stored
	return nil
}

func (s *InMemoryStore) UpdateTag(_ context.Context, tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[tag.ID]; !ok {
		return ErrNotFound
	}
	if err := s.tagClash(tag); err != nil {
		return err
	}
	stored := *tag
	s.tags[tag.ID] = &stored
	return nil
}

// tagClash must be called with the lock held.
func (s *InMemoryStore) tagClash(tag *models.Tag) error {
	for id, existing := range s.tags {
		if id == tag.ID {
			continue
		}
		switch {
		case existing.Name == tag.Name:
			return ErrTagNameTaken
		case strings.EqualFold(existing.Color, tag.Color):
			return ErrTagColorTaken
		case existing.Slug == tag.Slug:
			return ErrTagSlugTaken
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteTag(_ context.Context, id domain.TagID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[id]; !ok {
		return ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

func (s *InMemoryStore) FindTag(_ context.Context, id domain.TagID) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tags[id]; ok {
		found := *t
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) ListTags(_ context.Context) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		found := *t
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) TagsByIDs(_ context.Context, ids []domain.TagID) (map[domain.TagID]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.TagID]*models.Tag, len(ids))
	for _, id := range ids {
		if t, ok := s.tags[id]; ok {
			found := *t
			out[id] = &found
		}
	}
	return out, nil
}

func (s *InMemoryStore) TagIDsBySlugs(_ context.Context, slugs []string) ([]domain.TagID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		wanted[slug] = struct{}{}
	}
	out := []domain.TagID{}
	for id, t := range s.tags {
		if _, ok := wanted[t.Slug]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *InMemoryStore) CreateIngredient(_ context.Context, ing *models.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ingredients {
		if strings.EqualFold(existing.Name, ing.Name) && existing.MeasurementUnit == ing.MeasurementUnit {
			return ErrIngredientTaken
		}
	}
	s.nextIngredientID++
	ing.ID = s.nextIngredientID
	stored := *ing
	s.ingredients[ing.ID] = &stored
	return nil
}

func (s *InMemoryStore) DeleteIngredient(_ context.Context, id domain.IngredientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ingredients[id]; !ok {
		return ErrNotFound
	}
	delete(s.ingredients, id)
	return nil
}

func (s *InMemoryStore) FindIngredient(_ context.Context, id domain.IngredientID) (*models.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.ingredients[id]; ok {
		found := *i
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) SearchIngredients(_ context.Context, prefix string) ([]*models.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix = strings.ToLower(prefix)
	out := []*models.Ingredient{}
	for _, i := range s.ingredients {
		if strings.HasPrefix(strings.ToLower(i.Name), prefix) {
			found := *i
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		if out[a].MeasurementUnit != out[b].MeasurementUnit {
			return out[a].MeasurementUnit < out[b].MeasurementUnit
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (s *InMemoryStore) IngredientsByIDs(_ context.Context, ids []domain.IngredientID) (map[domain.IngredientID]*models.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.IngredientID]*models.Ingredient, len(ids))
	for _, id := range ids {
		if i, ok := s.ingredients[id]; ok {
			found := *i
			out[id] = &found
		}
	}
	return out, nil
}
