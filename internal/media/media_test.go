package media

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foodgram/pkg/domain-errors"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func TestDecodeDataURI(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		img, err := DecodeDataURI(pngURI())
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, ".png", img.Ext)
		assert.Equal(t, pngBytes, img.Data)
	})

	cases := map[string]string{
		"not a data uri":     "https://example.com/x.png",
		"no comma":           "data:image/png;base64",
		"not base64":         "data:image/png,rawdata",
		"unsupported type":   "data:image/bmp;base64," + base64.StdEncoding.EncodeToString([]byte("BM")),
		"broken payload":     "data:image/png;base64,@@@",
		"empty payload":      "data:image/png;base64,",
		"content mismatch":   "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngBytes),
		"text posing as png": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURI(uri)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pngBytes...), make([]byte, MaxImageBytes)...)
		_, err := DecodeDataURI("data:image/png;base64," + base64.StdEncoding.EncodeToString(big))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8080/media/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "recipes/images/a.png", "image/png", pngBytes))
	data, err := os.ReadFile(filepath.Join(root, "recipes", "images", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "http://localhost:8080/media/recipes/images/a.png", store.URL("recipes/images/a.png"))

	t.Run("keys cannot escape the root", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "../../escape.png", "image/png", pngBytes))
		_, err := os.Stat(filepath.Join(root, "escape.png"))
		assert.NoError(t, err)
	})

	t.Run("serves files but not directories", func(t *testing.T) {
		srv := http.StripPrefix("/media", store.Handler())

		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/recipes/images/a.png", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

		rr = httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/recipes/images/", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "recipes/images/a.png"))
		require.NoError(t, store.Delete(ctx, "recipes/images/a.png"))
	})
}

type memStore struct {
	objects map[string][]byte
	failPut bool
	failDel bool
}

func (m *memStore) Put(_ context.Context, key, _ string, data []byte) error {
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	if m.failDel {
		return errors.New("bucket unavailable")
	}
	delete(m.objects, key)
	return nil
}

func (m *memStore) URL(key string) string { return "https://cdn.example.com/" + key }

func TestImages(t *testing.T) {
	ctx := context.Background()
	store := &memStore{objects: map[string][]byte{}}
	images := NewImages(store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	key, err := images.Save(ctx, pngURI())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Contains(t, store.objects, key)
	assert.Equal(t, "https://cdn.example.com/"+key, images.URL(key))
	assert.Equal(t, "https://elsewhere.example.com/x.png", images.URL("https://elsewhere.example.com/x.png"))

	images.Delete(ctx, key)
	assert.NotContains(t, store.objects, key)

	t.Run("store failure is internal", func(t *testing.T) {
		store.failPut = true
		defer func() { store.failPut = false }()
		_, err := images.Save(ctx, pngURI())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("delete failure is swallowed", func(t *testing.T) {
		store.failDel = true
		defer func() { store.failDel = false }()
		images.Delete(ctx, "recipes/images/gone.png")
	})
}
