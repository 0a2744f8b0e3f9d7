package store

import (
	"context"
	"sort"
	"sync"

	"foodgram/internal/recipes/models"
	"foodgram/pkg/domain"
)

type userRecipes map[domain.UserID]map[domain.RecipeID]struct{}

func (u userRecipes) add(user domain.UserID, recipe domain.RecipeID) bool {
	set, ok := u[user]
	if !ok {
		set = make(map[domain.RecipeID]struct{})
		u[user] = set
	}
	if _, exists := set[recipe]; exists {
		return false
	}
	set[recipe] = struct{}{}
	return true
}

func (u userRecipes) remove(user domain.UserID, recipe domain.RecipeID) bool {
	if _, ok := u[user][recipe]; !ok {
		return false
	}
	delete(u[user], recipe)
	return true
}

func (u userRecipes) has(user domain.UserID, recipe domain.RecipeID) bool {
	_, ok := u[user][recipe]
	return ok
}

func (u userRecipes) forget(recipe domain.RecipeID) {
	for _, set := range u {
		delete(set, recipe)
	}
}

// InMemoryStore keeps recipes, favorites and carts in maps guarded by a RWMutex.
type InMemoryStore struct {
	mu        sync.RWMutex
	nextID    domain.RecipeID
	recipes   map[domain.RecipeID]*models.Recipe
	favorites userRecipes
	cart      userRecipes
}

// NewInMemory returns an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		recipes:   make(map[domain.RecipeID]*models.Recipe),
		favorites: make(userRecipes),
		cart:      make(userRecipes),
	}
}

func (s *InMemoryStore) Create(_ context.Context, recipe *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(recipe) {
		return ErrNameTaken
	}
	s.nextID++
	recipe.ID = s.nextID
	s.recipes[recipe.ID] = recipe.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, recipe *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[recipe.ID]; !ok {
		return ErrNotFound
	}
	if s.nameTaken(recipe) {
		return ErrNameTaken
	}
	s.recipes[recipe.ID] = recipe.Clone()
	return nil
}

// nameTaken must be called with the lock held.
func (s *InMemoryStore) nameTaken(recipe *models.Recipe) bool {
	for id, existing := range s.recipes {
		if id != recipe.ID && existing.AuthorID == recipe.AuthorID && existing.Name == recipe.Name {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.RecipeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(s.recipes, id)
	s.favorites.forget(id)
	s.cart.forget(id)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.RecipeID) (*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.recipes[id]; ok {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, f models.Filter, limit, offset int) ([]*models.Recipe, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[domain.TagID]struct{}, len(f.TagIDs))
	for _, id := range f.TagIDs {
		wanted[id] = struct{}{}
	}

	matched := []*models.Recipe{}
	for _, r := range s.recipes {
		if !f.AuthorID.IsZero() && r.AuthorID != f.AuthorID {
			continue
		}
		if f.ByTags && !hasAnyTag(r, wanted) {
			continue
		}
		if !f.FavoritedBy.IsZero() && !s.favorites.has(f.FavoritedBy, r.ID) {
			continue
		}
		if !f.InCartOf.IsZero() && !s.cart.has(f.InCartOf, r.ID) {
			continue
		}
		matched = append(matched, r)
	}
	sortNewestFirst(matched)

	count := len(matched)
	if offset >= count {
		return []*models.Recipe{}, count, nil
	}
	end := min(offset+limit, count)
	out := make([]*models.Recipe, 0, end-offset)
	for _, r := range matched[offset:end] {
		out = append(out, r.Clone())
	}
	return out, count, nil
}

func hasAnyTag(r *models.Recipe, wanted map[domain.TagID]struct{}) bool {
	for _, id := range r.TagIDs {
		if _, ok := wanted[id]; ok {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) AddFavorite(_ context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.addMark(s.favorites, user, recipe, ErrAlreadyFavorited)
}

func (s *InMemoryStore) RemoveFavorite(_ context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.removeMark(s.favorites, user, recipe)
}

func (s *InMemoryStore) AddToCart(_ context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.addMark(s.cart, user, recipe, ErrAlreadyInCart)
}

func (s *InMemoryStore) RemoveFromCart(_ context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.removeMark(s.cart, user, recipe)
}

func (s *InMemoryStore) addMark(set userRecipes, user domain.UserID, recipe domain.RecipeID, dup error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[recipe]; !ok {
		return ErrNotFound
	}
	if !set.add(user, recipe) {
		return dup
	}
	return nil
}

func (s *InMemoryStore) removeMark(set userRecipes, user domain.UserID, recipe domain.RecipeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !set.remove(user, recipe) {
		return ErrNotFound
	}
	return nil
}

func (s *InMemoryStore) Marks(_ context.Context, user domain.UserID, ids []domain.RecipeID) (map[domain.RecipeID]models.Marks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.RecipeID]models.Marks, len(ids))
	for _, id := range ids {
		out[id] = models.Marks{Favorited: s.favorites.has(user, id), InCart: s.cart.has(user, id)}
	}
	return out, nil
}

func (s *InMemoryStore) FavoritesCount(_ context.Context, ids []domain.RecipeID) (map[domain.RecipeID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.RecipeID]int, len(ids))
	for _, set := range s.favorites {
		for _, id := range ids {
			if _, ok := set[id]; ok {
				out[id]++
			}
		}
	}
	return out, nil
}

func (s *InMemoryStore) CartLines(_ context.Context, user domain.UserID) ([]models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := map[domain.IngredientID]int64{}
	for id := range s.cart[user] {
		r, ok := s.recipes[id]
		if !ok {
			continue
		}
		for _, ing := range r.Ingredients {
			sums[ing.IngredientID] += int64(ing.Amount)
		}
	}
	out := make([]models.CartLine, 0, len(sums))
	for id, amount := range sums {
		out = append(out, models.CartLine{IngredientID: id, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out, nil
}

func (s *InMemoryStore) ByAuthors(_ context.Context, authors []domain.UserID, limit int) (map[domain.UserID][]*models.Recipe, map[domain.UserID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[domain.UserID]struct{}, len(authors))
	for _, a := range authors {
		wanted[a] = struct{}{}
	}
	byAuthor := make(map[domain.UserID][]*models.Recipe, len(authors))
	for _, r := range s.recipes {
		if _, ok := wanted[r.AuthorID]; ok {
			byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r)
		}
	}
	counts := make(map[domain.UserID]int, len(byAuthor))
	out := make(map[domain.UserID][]*models.Recipe, len(byAuthor))
	for author, recipes := range byAuthor {
		sortNewestFirst(recipes)
		counts[author] = len(recipes)
		if limit >= 0 && len(recipes) > limit {
			recipes = recipes[:limit]
		}
		copies := make([]*models.Recipe, len(recipes))
		for i, r := range recipes {
			copies[i] = r.Clone()
		}
		out[author] = copies
	}
	return out, counts, nil
}

func (s *InMemoryStore) IngredientInUse(_ context.Context, id domain.IngredientID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recipes {
		for _, ing := range r.Ingredients {
			if ing.IngredientID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
