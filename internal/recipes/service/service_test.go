package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	catalogmodels "foodgram/internal/catalog/models"
	catalogservice "foodgram/internal/catalog/service"
	catalogstore "foodgram/internal/catalog/store"
	"foodgram/internal/platform/metrics"
	"foodgram/internal/recipes/models"
	"foodgram/internal/recipes/shoppinglist"
	"foodgram/internal/recipes/store"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
	"foodgram/pkg/platform/pagination"
	"foodgram/pkg/requestcontext"
)

const pngURI = "data:image/png;base64,iVBORw0KGgo="

type fakeImages struct {
	n       int
	saveErr error
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, _ string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.n++
	return fmt.Sprintf("recipes/images/%d.png", f.n), nil
}

func (f *fakeImages) URL(key string) string {
	return "http://testserver/media/" + key
}

func (f *fakeImages) Delete(_ context.Context, key string) {
	f.deleted = append(f.deleted, key)
}

type stubAuthors struct {
	authors map[domain.UserID]models.Author
	err     error
}

func (a *stubAuthors) Authors(_ context.Context, _ domain.UserID, ids []domain.UserID) (map[domain.UserID]models.Author, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make(map[domain.UserID]models.Author, len(ids))
	for _, id := range ids {
		if author, ok := a.authors[id]; ok {
			out[id] = author
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
	ctx     context.Context
	now     time.Time
	store   *store.InMemoryStore
	catalog *catalogservice.Service
	images  *fakeImages
	authors *stubAuthors
	emitter *capturingEmitter
	metrics *metrics.Metrics
	service *Service

	chef     requestcontext.Principal
	stranger requestcontext.Principal
	staff    requestcontext.Principal

	breakfast *catalogmodels.Tag
	lunch     *catalogmodels.Tag
	flour     *catalogmodels.Ingredient
	eggs      *catalogmodels.Ingredient
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = store.NewInMemory()
	s.catalog = catalogservice.New(catalogstore.NewInMemory())
	s.images = &fakeImages{}
	s.authors = &stubAuthors{authors: map[domain.UserID]models.Author{
		1: {ID: 1, Username: "chef", Email: "chef@example.com"},
	}}
	s.emitter = &capturingEmitter{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.catalog, s.authors, s.images,
		WithMetrics(s.metrics), WithEventEmitter(s.emitter))

	s.chef = requestcontext.Principal{UserID: 1, Username: "chef"}
	s.stranger = requestcontext.Principal{UserID: 2, Username: "stranger"}
	s.staff = requestcontext.Principal{UserID: 3, Username: "admin", IsStaff: true}

	var err error
	s.lunch, err = s.catalog.CreateTag(s.ctx, &catalogmodels.CreateTagRequest{Name: "Lunch", Color: "#00FF00", Slug: "lunch"})
	s.Require().NoError(err)
	s.breakfast, err = s.catalog.CreateTag(s.ctx, &catalogmodels.CreateTagRequest{Name: "Breakfast", Color: "#FF0000", Slug: "breakfast"})
	s.Require().NoError(err)
	s.flour, err = s.catalog.CreateIngredient(s.ctx, &catalogmodels.CreateIngredientRequest{Name: "flour", MeasurementUnit: "g"})
	s.Require().NoError(err)
	s.eggs, err = s.catalog.CreateIngredient(s.ctx, &catalogmodels.CreateIngredientRequest{Name: "eggs", MeasurementUnit: "pcs"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) createRequest(name string) *models.CreateRecipeRequest {
	return &models.CreateRecipeRequest{
		Name:        name,
		Text:        "Mix and bake.",
		CookingTime: 30,
		Image:       pngURI,
		Tags:        []domain.TagID{s.lunch.ID, s.breakfast.ID},
		Ingredients: []models.IngredientAmountRequest{
			{ID: s.flour.ID, Amount: 200},
			{ID: s.eggs.ID, Amount: 2},
		},
	}
}

func (s *ServiceSuite) create(actor requestcontext.Principal, name string) *models.View {
	view, err := s.service.Create(s.ctx, actor, s.createRequest(name))
	s.Require().NoError(err)
	return view
}

func (s *ServiceSuite) TestCreate() {
	s.Run("resolves the full view", func() {
		view := s.create(s.chef, "Pancakes")

		s.Equal("Pancakes", view.Name)
		s.Equal("chef", view.Author.Username)
		s.Equal(s.now, view.PubDate)
		s.Equal("http://testserver/media/recipes/images/1.png", view.ImageURL)
		s.Require().Len(view.Tags, 2)
		s.Equal("Breakfast", view.Tags[0].Name)
		s.Equal("Lunch", view.Tags[1].Name)
		s.Require().Len(view.Ingredients, 2)
		s.Equal("eggs", view.Ingredients[0].Name)
		s.Equal(200, view.Ingredients[1].Amount)
		s.False(view.IsFavorited)
		s.Equal(0, view.FavoritesCount)
		s.Equal(1.0, promtest.ToFloat64(s.metrics.RecipesCreated))
		s.Contains(s.emitter.types, events.RecipeCreated)
	})

	s.Run("unknown references are listed", func() {
		req := s.createRequest("Waffles")
		req.Tags = append(req.Tags, 98, 99)
		req.Ingredients = append(req.Ingredients, models.IngredientAmountRequest{ID: 77, Amount: 1})

		_, err := s.service.Create(s.ctx, s.chef, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "unknown tags 98, 99")
		s.Contains(err.Error(), "unknown ingredients 77")
		s.Equal(1, s.images.n, "image must not be stored for an invalid recipe")
	})

	s.Run("duplicate name for the same author", func() {
		_, err := s.service.Create(s.ctx, s.chef, s.createRequest("Pancakes"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal([]string{"recipes/images/2.png"}, s.images.deleted)
	})

	s.Run("same name for another author", func() {
		view := s.create(s.stranger, "Pancakes")
		s.Equal(domain.UserID(2), view.Author.ID)
	})

	s.Run("image failure", func() {
		s.images.saveErr = dErrors.New(dErrors.CodeValidation, "image: unsupported type")
		defer func() { s.images.saveErr = nil }()
		_, err := s.service.Create(s.ctx, s.chef, s.createRequest("Crepes"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestUpdate() {
	view := s.create(s.chef, "Pancakes")

	s.Run("other users are forbidden", func() {
		name := "Stolen"
		_, err := s.service.Update(s.ctx, s.stranger, view.ID, &models.UpdateRecipeRequest{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("author patches fields and keeps the rest", func() {
		name := "Fluffy pancakes"
		tags := []domain.TagID{s.lunch.ID}
		updated, err := s.service.Update(s.ctx, s.chef, view.ID, &models.UpdateRecipeRequest{Name: &name, Tags: &tags})
		s.Require().NoError(err)
		s.Equal("Fluffy pancakes", updated.Name)
		s.Require().Len(updated.Tags, 1)
		s.Len(updated.Ingredients, 2)
		s.Equal(view.ImageURL, updated.ImageURL)
	})

	s.Run("staff replaces the image", func() {
		image := pngURI
		updated, err := s.service.Update(s.ctx, s.staff, view.ID, &models.UpdateRecipeRequest{Image: &image})
		s.Require().NoError(err)
		s.NotEqual(view.ImageURL, updated.ImageURL)
		s.Equal([]string{"recipes/images/1.png"}, s.images.deleted)
		s.Equal(domain.UserID(1), updated.Author.ID)
	})

	s.Run("unknown ingredient", func() {
		ingredients := []models.IngredientAmountRequest{{ID: 404, Amount: 1}}
		_, err := s.service.Update(s.ctx, s.chef, view.ID, &models.UpdateRecipeRequest{Ingredients: &ingredients})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown recipe", func() {
		name := "x"
		_, err := s.service.Update(s.ctx, s.chef, 404, &models.UpdateRecipeRequest{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	view := s.create(s.chef, "Pancakes")

	err := s.service.Delete(s.ctx, s.stranger, view.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	s.Require().NoError(s.service.Delete(s.ctx, s.chef, view.ID))
	s.Equal([]string{"recipes/images/1.png"}, s.images.deleted)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RecipesDeleted))

	_, err = s.service.Get(s.ctx, s.chef.UserID, view.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, s.chef, view.ID), dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFavorites() {
	view := s.create(s.chef, "Pancakes")

	brief, err := s.service.AddFavorite(s.ctx, s.stranger.UserID, view.ID)
	s.Require().NoError(err)
	s.Equal("Pancakes", brief.Name)
	s.Equal(view.ImageURL, brief.ImageURL)

	_, err = s.service.AddFavorite(s.ctx, s.stranger.UserID, view.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.AddFavorite(s.ctx, s.stranger.UserID, 404)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	seen, err := s.service.Get(s.ctx, s.stranger.UserID, view.ID)
	s.Require().NoError(err)
	s.True(seen.IsFavorited)
	s.False(seen.IsInShoppingCart)
	s.Equal(1, seen.FavoritesCount)

	anonymous, err := s.service.Get(s.ctx, 0, view.ID)
	s.Require().NoError(err)
	s.False(anonymous.IsFavorited)
	s.Equal(1, anonymous.FavoritesCount)

	s.Require().NoError(s.service.RemoveFavorite(s.ctx, s.stranger.UserID, view.ID))
	err = s.service.RemoveFavorite(s.ctx, s.stranger.UserID, view.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.FavoritesAdded))
}

func (s *ServiceSuite) TestCart() {
	view := s.create(s.chef, "Pancakes")

	_, err := s.service.AddToCart(s.ctx, s.chef.UserID, view.ID)
	s.Require().NoError(err)
	_, err = s.service.AddToCart(s.ctx, s.chef.UserID, view.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	s.Require().NoError(s.service.RemoveFromCart(s.ctx, s.chef.UserID, view.ID))
	err = s.service.RemoveFromCart(s.ctx, s.chef.UserID, view.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	err = s.service.RemoveFromCart(s.ctx, s.chef.UserID, 404)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestShoppingList() {
	s.Run("empty cart", func() {
		items, err := s.service.ShoppingList(s.ctx, s.chef.UserID)
		s.Require().NoError(err)
		s.Empty(items)
	})

	s.Run("sums ingredients across recipes", func() {
		pancakes := s.create(s.chef, "Pancakes")
		req := s.createRequest("Bread")
		req.Ingredients = []models.IngredientAmountRequest{{ID: s.flour.ID, Amount: 500}}
		bread, err := s.service.Create(s.ctx, s.chef, req)
		s.Require().NoError(err)

		for _, id := range []domain.RecipeID{pancakes.ID, bread.ID} {
			_, err := s.service.AddToCart(s.ctx, s.chef.UserID, id)
			s.Require().NoError(err)
		}

		items, err := s.service.ShoppingList(s.ctx, s.chef.UserID)
		s.Require().NoError(err)
		s.Equal([]shoppinglist.Item{
			{Name: "eggs", MeasurementUnit: "pcs", Amount: 2},
			{Name: "flour", MeasurementUnit: "g", Amount: 700},
		}, items)
		s.Contains(s.emitter.types, events.ShoppingListDownloaded)
	})
}

func (s *ServiceSuite) TestList() {
	pancakes := s.create(s.chef, "Pancakes")
	req := s.createRequest("Soup")
	req.Tags = []domain.TagID{s.lunch.ID}
	soup, err := s.service.Create(s.ctx, s.stranger, req)
	s.Require().NoError(err)
	_, err = s.service.AddFavorite(s.ctx, s.chef.UserID, soup.ID)
	s.Require().NoError(err)

	page := pagination.Params{Page: 1, Limit: 10}

	s.Run("everything newest first", func() {
		views, count, err := s.service.List(s.ctx, 0, models.ListQuery{}, page)
		s.Require().NoError(err)
		s.Equal(2, count)
		s.Equal(soup.ID, views[0].ID)
	})

	s.Run("by author", func() {
		views, count, err := s.service.List(s.ctx, 0, models.ListQuery{AuthorID: s.chef.UserID}, page)
		s.Require().NoError(err)
		s.Equal(1, count)
		s.Equal(pancakes.ID, views[0].ID)
	})

	s.Run("by tag slug", func() {
		_, count, err := s.service.List(s.ctx, 0, models.ListQuery{TagSlugs: []string{"breakfast"}}, page)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("unknown tag slug matches nothing", func() {
		views, count, err := s.service.List(s.ctx, 0, models.ListQuery{TagSlugs: []string{"dessert"}}, page)
		s.Require().NoError(err)
		s.Equal(0, count)
		s.Empty(views)
	})

	s.Run("favorites of the viewer", func() {
		views, count, err := s.service.List(s.ctx, s.chef.UserID, models.ListQuery{Favorited: true}, page)
		s.Require().NoError(err)
		s.Equal(1, count)
		s.True(views[0].IsFavorited)
	})

	s.Run("flags are ignored for anonymous callers", func() {
		_, count, err := s.service.List(s.ctx, 0, models.ListQuery{Favorited: true, InCart: true}, page)
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("author lookup failure", func() {
		s.authors.err = errors.New("users unavailable")
		defer func() { s.authors.err = nil }()
		_, _, err := s.service.List(s.ctx, 0, models.ListQuery{}, page)
		s.Error(err)
	})
}

func (s *ServiceSuite) TestAuthorPreviews() {
	s.create(s.chef, "Pancakes")
	s.ctx = requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	s.create(s.chef, "Bread")

	previews, err := s.service.AuthorPreviews(s.ctx, []domain.UserID{s.chef.UserID, s.stranger.UserID}, 1)
	s.Require().NoError(err)
	s.Require().Contains(previews, s.chef.UserID)
	s.Equal(2, previews[s.chef.UserID].Count)
	s.Require().Len(previews[s.chef.UserID].Recipes, 1)
	s.Equal("Bread", previews[s.chef.UserID].Recipes[0].Name)
	s.NotContains(previews, s.stranger.UserID)
}
