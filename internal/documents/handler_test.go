package documents

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"os-presenter/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Store) {
	t.Helper()
	s := newTestStore(t)
	r := chi.NewRouter()
	NewHandler(s, logger.Discard()).Mount(r)
	return r, s
}

func doRequest(t *testing.T, r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandler_LibrariesCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/libraries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	lib := Library{ID: "lib-1", Name: "Hymns", SlideGroups: []SlideGroup{}}
	rec = doRequest(t, r, http.MethodPut, "/api/libraries/lib-1", mustJSON(t, lib))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/libraries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []Library
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Hymns", got[0].Name)

	rec = doRequest(t, r, http.MethodDelete, "/api/libraries/lib-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/libraries", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_SaveRejectsMismatchedID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPut, "/api/playlists/p1", mustJSON(t, Playlist{ID: "p2"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPut, "/api/media-playlists/m1", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_MediaImportAndThumbnail(t *testing.T) {
	r, s := newTestRouter(t)
	src := writeSource(t, "loop.mp4", "frames")

	rec := doRequest(t, r, http.MethodPost, "/api/media", mustJSON(t, map[string]string{"sourcePath": src}))
	require.Equal(t, http.StatusCreated, rec.Code)
	var item MediaItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, MediaTypeVideo, item.Type)

	rec = doRequest(t, r, http.MethodPost, "/api/media", mustJSON(t, map[string]string{"sourcePath": src}))
	require.Equal(t, http.StatusOK, rec.Code, "re-import is deduplicated")

	rec = doRequest(t, r, http.MethodPost, "/api/media/"+item.ID+"/thumbnail", pngBytes(t, 8, 8))
	require.Equal(t, http.StatusCreated, rec.Code)
	var thumb map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thumb))
	assert.Equal(t, item.ID+"_thumb.png", thumb["thumbnail"])

	rec = doRequest(t, r, http.MethodPut, "/api/media/"+item.ID+"/thumbnail", mustJSON(t, thumb))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := s.Media.Get(item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Thumbnail)
	assert.Equal(t, thumb["thumbnail"], *got.Thumbnail)

	rec = doRequest(t, r, http.MethodGet, "/media/files/"+item.Source, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frames", rec.Body.String())

	rec = doRequest(t, r, http.MethodDelete, "/api/media/"+item.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = os.Stat(s.Media.FilesDir() + "/" + item.Source)
	assert.True(t, os.IsNotExist(err))
}

func TestHandler_MediaErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/media", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/api/media", mustJSON(t, map[string]string{"sourcePath": "/does/not/exist.mp4"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/api/media", mustJSON(t, map[string]string{"sourcePath": writeSource(t, "a.txt", "x")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported media format")

	rec = doRequest(t, r, http.MethodPut, "/api/media/missing/thumbnail", mustJSON(t, map[string]string{"thumbnail": "x.png"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/api/media/missing/thumbnail", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/api/media/missing/thumbnail", []byte("garbage"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_TagGroups(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/tag-groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	body := `[{"id":"t1","name":"Bridge","color":"#123456"}]`
	rec = doRequest(t, r, http.MethodPut, "/api/tag-groups", []byte(body))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/tag-groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, body, rec.Body.String())
}
