package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foodgram/pkg/domain-errors"
)

func TestFromRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := FromRequest(httptest.NewRequest(http.MethodGet, "/api/recipes/", nil), 0)
		require.NoError(t, err)
		assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, p)
		assert.Equal(t, 0, p.Offset())
	})

	t.Run("clamps limit", func(t *testing.T) {
		p, err := FromRequest(httptest.NewRequest(http.MethodGet, "/api/recipes/?page=3&limit=1000", nil), 6)
		require.NoError(t, err)
		assert.Equal(t, MaxLimit, p.Limit)
		assert.Equal(t, 2*MaxLimit, p.Offset())
	})

	t.Run("invalid page is not found", func(t *testing.T) {
		_, err := FromRequest(httptest.NewRequest(http.MethodGet, "/api/recipes/?page=zero", nil), 6)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("invalid limit is a validation error", func(t *testing.T) {
		_, err := FromRequest(httptest.NewRequest(http.MethodGet, "/api/recipes/?limit=-1", nil), 6)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestNew(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/api/recipes/?page=2&limit=2&tags=lunch", nil)
	p := Params{Page: 2, Limit: 2}

	page := New(r, p, 5, []int{3, 4})

	assert.Equal(t, 5, page.Count)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/recipes/?limit=2&page=3&tags=lunch", *page.Next)
	assert.Equal(t, "http://example.com/api/recipes/?limit=2&tags=lunch", *page.Previous)

	last := New(r, Params{Page: 3, Limit: 2}, 5, []int{5})
	assert.Nil(t, last.Next)

	empty := New[int](r, Params{Page: 1, Limit: 2}, 0, nil)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Previous)
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange(Params{Page: 1, Limit: 6}, 0))
	assert.NoError(t, CheckRange(Params{Page: 2, Limit: 6}, 7))
	assert.Error(t, CheckRange(Params{Page: 3, Limit: 6}, 12))
}
