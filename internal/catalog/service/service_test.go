package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"foodgram/internal/catalog/models"
	"foodgram/internal/catalog/store"
	"foodgram/pkg/domain"
	dErrors "foodgram/pkg/domain-errors"
	"foodgram/pkg/platform/events"
)

type capturingEmitter struct {
	types []events.Type
}

func (c *capturingEmitter) Emit(_ context.Context, e events.Event) bool {
	c.types = append(c.types, e.Type)
	return true
}

type stubUsage struct {
	inUse map[domain.IngredientID]bool
	err   error
}

func (u *stubUsage) IngredientInUse(_ context.Context, id domain.IngredientID) (bool, error) {
	return u.inUse[id], u.err
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	usage   *stubUsage
	emitter *capturingEmitter
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.usage = &stubUsage{inUse: map[domain.IngredientID]bool{}}
	s.emitter = &capturingEmitter{}
	s.service = New(s.store, WithIngredientUsage(s.usage), WithEventEmitter(s.emitter))
}

func (s *ServiceSuite) createTag(name, color, slug string) *models.Tag {
	tag, err := s.service.CreateTag(s.ctx, &models.CreateTagRequest{Name: name, Color: color, Slug: slug})
	s.Require().NoError(err)
	return tag
}

func (s *ServiceSuite) TestCreateTag() {
	s.Run("stores color upper-case", func() {
		tag := s.createTag("Breakfast", "#e26c2d", "breakfast")
		s.Equal("#E26C2D", tag.Color)
		s.Equal([]events.Type{events.TagCreated}, s.emitter.types)
	})

	s.Run("color clash ignores case", func() {
		_, err := s.service.CreateTag(s.ctx, &models.CreateTagRequest{Name: "Lunch", Color: "#E26C2D", Slug: "lunch"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "color")
	})
}

func (s *ServiceSuite) TestUpdateTag() {
	lunch := s.createTag("Lunch", "#00FF00", "lunch")
	s.createTag("Dinner", "#0000FF", "dinner")

	s.Run("patches the given fields", func() {
		name := "Brunch"
		tag, err := s.service.UpdateTag(s.ctx, lunch.ID, &models.UpdateTagRequest{Name: &name})
		s.Require().NoError(err)
		s.Equal("Brunch", tag.Name)
		s.Equal("lunch", tag.Slug)
	})

	s.Run("slug clash is a conflict", func() {
		slug := "dinner"
		_, err := s.service.UpdateTag(s.ctx, lunch.ID, &models.UpdateTagRequest{Slug: &slug})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown tag", func() {
		name := "x"
		_, err := s.service.UpdateTag(s.ctx, 404, &models.UpdateTagRequest{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDeleteTag() {
	tag := s.createTag("Lunch", "#00FF00", "lunch")
	s.Require().NoError(s.service.DeleteTag(s.ctx, tag.ID))
	s.True(dErrors.HasCode(s.service.DeleteTag(s.ctx, tag.ID), dErrors.CodeNotFound))

	_, err := s.service.GetTag(s.ctx, tag.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestIngredients() {
	flour, err := s.service.CreateIngredient(s.ctx, &models.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "g"})
	s.Require().NoError(err)

	s.Run("duplicate is a conflict", func() {
		_, err := s.service.CreateIngredient(s.ctx, &models.CreateIngredientRequest{Name: "flour", MeasurementUnit: "g"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("search by prefix", func() {
		found, err := s.service.SearchIngredients(s.ctx, "FL")
		s.Require().NoError(err)
		s.Len(found, 1)
	})

	s.Run("used ingredient cannot be deleted", func() {
		s.usage.inUse[flour.ID] = true
		err := s.service.DeleteIngredient(s.ctx, flour.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.usage.inUse[flour.ID] = false
	})

	s.Run("usage check failure is internal", func() {
		s.usage.err = errors.New("db down")
		defer func() { s.usage.err = nil }()
		err := s.service.DeleteIngredient(s.ctx, flour.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unused ingredient is deleted", func() {
		s.Require().NoError(s.service.DeleteIngredient(s.ctx, flour.ID))
		_, err := s.service.GetIngredient(s.ctx, flour.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestLookupsForRecipes() {
	lunch := s.createTag("Lunch", "#00FF00", "lunch")

	tags, err := s.service.TagsByIDs(s.ctx, []domain.TagID{lunch.ID, 99})
	s.Require().NoError(err)
	s.Len(tags, 1)

	ids, err := s.service.TagIDsBySlugs(s.ctx, []string{"lunch", "nope"})
	s.Require().NoError(err)
	s.Equal([]domain.TagID{lunch.ID}, ids)
}
