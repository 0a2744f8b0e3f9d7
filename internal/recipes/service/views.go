package service

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	catalogmodels "foodgram/internal/catalog/models"
	"foodgram/internal/recipes/models"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
)

func (s *Service) view(ctx context.Context, viewer domain.UserID, recipe *models.Recipe) (*models.View, error) {
	views, err := s.views(ctx, viewer, []*models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views resolves authors, tags, ingredients and per-viewer marks for a page
// of recipes. The lookups are independent and run concurrently.
func (s *Service) views(ctx context.Context, viewer domain.UserID, recipes []*models.Recipe) ([]models.View, error) {
	if len(recipes) == 0 {
		return []models.View{}, nil
	}

	var (
		recipeIDs     = make([]domain.RecipeID, 0, len(recipes))
		authorIDs     []domain.UserID
		tagIDs        []domain.TagID
		ingredientIDs []domain.IngredientID
		seenAuthor    = map[domain.UserID]struct{}{}
		seenTag       = map[domain.TagID]struct{}{}
		seenIng       = map[domain.IngredientID]struct{}{}
	)
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		if _, ok := seenAuthor[r.AuthorID]; !ok {
			seenAuthor[r.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.AuthorID)
		}
		for _, id := range r.TagIDs {
			if _, ok := seenTag[id]; !ok {
				seenTag[id] = struct{}{}
				tagIDs = append(tagIDs, id)
			}
		}
		for _, ing := range r.Ingredients {
			if _, ok := seenIng[ing.IngredientID]; !ok {
				seenIng[ing.IngredientID] = struct{}{}
				ingredientIDs = append(ingredientIDs, ing.IngredientID)
			}
		}
	}

	var (
		authors     map[domain.UserID]models.Author
		tags        map[domain.TagID]*catalogmodels.Tag
		ingredients map[domain.IngredientID]*catalogmodels.Ingredient
		counts      map[domain.RecipeID]int
		marks       map[domain.RecipeID]models.Marks
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		authors, err = s.authors.Authors(gctx, viewer, authorIDs)
		return err
	})
	g.Go(func() (err error) {
		tags, err = s.catalog.TagsByIDs(gctx, tagIDs)
		return err
	})
	g.Go(func() (err error) {
		ingredients, err = s.catalog.IngredientsByIDs(gctx, ingredientIDs)
		return err
	})
	g.Go(func() (err error) {
		if counts, err = s.store.FavoritesCount(gctx, recipeIDs); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count favorites")
		}
		return nil
	})
	if !viewer.IsZero() {
		g.Go(func() (err error) {
			if marks, err = s.store.Marks(gctx, viewer, recipeIDs); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recipe marks")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]models.View, len(recipes))
	for i, r := range recipes {
		author, ok := authors[r.AuthorID]
		if !ok {
			author = models.Author{ID: r.AuthorID}
		}
		mark := marks[r.ID]
		views[i] = models.View{
			ID:               r.ID,
			Author:           author,
			Name:             r.Name,
			ImageURL:         s.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
			Tags:             tagViews(r.TagIDs, tags),
			Ingredients:      ingredientLines(r.Ingredients, ingredients),
			IsFavorited:      mark.Favorited,
			IsInShoppingCart: mark.InCart,
			FavoritesCount:   counts[r.ID],
		}
	}
	return views, nil
}

// tagViews skips tags deleted since the recipe was loaded.
func tagViews(ids []domain.TagID, tags map[domain.TagID]*catalogmodels.Tag) []models.TagView {
	out := make([]models.TagView, 0, len(ids))
	for _, id := range ids {
		t, ok := tags[id]
		if !ok {
			continue
		}
		out = append(out, models.TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func ingredientLines(amounts []models.IngredientAmount, ingredients map[domain.IngredientID]*catalogmodels.Ingredient) []models.IngredientLine {
	out := make([]models.IngredientLine, 0, len(amounts))
	for _, a := range amounts {
		ing, ok := ingredients[a.IngredientID]
		if !ok {
			continue
		}
		out = append(out, models.IngredientLine{
			ID:              ing.ID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          a.Amount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
