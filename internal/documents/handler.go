package documents

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxThumbnailBytes bounds uploaded thumbnail bodies.
const maxThumbnailBytes = 16 << 20

// Handler exposes the document store over HTTP.
type Handler struct {
	store *Store
	log   *slog.Logger
}

// NewHandler returns a Handler for store.
func NewHandler(store *Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Mount registers every document route on r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/libraries", func(r chi.Router) {
		r.Get("/", listDocuments(h, h.store.Libraries))
		r.Put("/{id}", saveDocument(h, h.store.Libraries, func(l Library) string { return l.ID }))
		r.Delete("/{id}", deleteDocument(h, h.store.Libraries))
	})
	r.Route("/api/playlists", func(r chi.Router) {
		r.Get("/", listDocuments(h, h.store.Playlists))
		r.Put("/{id}", saveDocument(h, h.store.Playlists, func(p Playlist) string { return p.ID }))
		r.Delete("/{id}", deleteDocument(h, h.store.Playlists))
	})
	r.Route("/api/media-playlists", func(r chi.Router) {
		r.Get("/", listDocuments(h, h.store.MediaPlaylists))
		r.Put("/{id}", saveDocument(h, h.store.MediaPlaylists, func(p MediaPlaylist) string { return p.ID }))
		r.Delete("/{id}", deleteDocument(h, h.store.MediaPlaylists))
	})
	r.Route("/api/media", func(r chi.Router) {
		r.Get("/", h.ListMedia)
		r.Post("/", h.ImportMedia)
		r.Delete("/{id}", h.DeleteMedia)
		r.Post("/{id}/thumbnail", h.SaveThumbnail)
		r.Put("/{id}/thumbnail", h.SetThumbnail)
	})
	r.Get("/api/tag-groups", h.LoadTagGroups)
	r.Put("/api/tag-groups", h.SaveTagGroups)
	r.Get("/media/files/{name}", h.ServeMediaFile)
}

func listDocuments[T any](h *Handler, d *JSONDir[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := d.List()
		if err != nil {
			h.writeError(w, "list documents failed", err)
			return
		}
		h.writeJSON(w, http.StatusOK, docs)
	}
}

// saveDocument handles PUT /{id}. The id in the body must match the path.
func saveDocument[T any](h *Handler, d *JSONDir[T], idOf func(T) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var doc T
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			h.log.Debug("invalid document body", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if idOf(doc) != id {
			h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "document id does not match path"})
			return
		}

		if err := d.Save(id, doc); err != nil {
			h.writeError(w, "save document failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteDocument[T any](h *Handler, d *JSONDir[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Delete(chi.URLParam(r, "id")); err != nil {
			h.writeError(w, "delete document failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListMedia handles GET /api/media.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Media.List()
	if err != nil {
		h.writeError(w, "list media failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// ImportMedia handles POST /api/media.
// Body: { "sourcePath": "/Users/me/Movies/intro.mp4" }.
// Answers 201 for a new item and 200 when the file was already imported.
func (h *Handler) ImportMedia(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SourcePath string `json:"sourcePath"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SourcePath == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	item, created, err := h.store.Media.Import(body.SourcePath)
	if err != nil {
		h.writeError(w, "import media failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, item)
}

// DeleteMedia handles DELETE /api/media/{id}.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Media.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete media failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveThumbnail handles POST /api/media/{id}/thumbnail with a raw image body.
func (h *Handler) SaveThumbnail(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxThumbnailBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxThumbnailBytes {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	name, err := h.store.Media.SaveThumbnail(chi.URLParam(r, "id"), data)
	if err != nil {
		h.writeError(w, "save thumbnail failed", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"thumbnail": name})
}

// SetThumbnail handles PUT /api/media/{id}/thumbnail.
// Body: { "thumbnail": "<id>_thumb.png" }.
func (h *Handler) SetThumbnail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Thumbnail string `json:"thumbnail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	item, err := h.store.Media.SetThumbnail(chi.URLParam(r, "id"), body.Thumbnail)
	if err != nil {
		h.writeError(w, "update thumbnail failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

// LoadTagGroups handles GET /api/tag-groups.
func (h *Handler) LoadTagGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.LoadTagGroups()
	if err != nil {
		h.writeError(w, "load tag groups failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, groups)
}

// SaveTagGroups handles PUT /api/tag-groups.
func (h *Handler) SaveTagGroups(w http.ResponseWriter, r *http.Request) {
	var groups []SlideTagGroup
	if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.store.SaveTagGroups(groups); err != nil {
		h.writeError(w, "save tag groups failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMediaFile handles GET /media/files/{name}.
func (h *Handler) ServeMediaFile(w http.ResponseWriter, r *http.Request) {
	path, err := h.store.Media.FilePath(chi.URLParam(r, "name"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, path)
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("write response failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrUnsupportedMedia),
		errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrInvalidThumbnail):
		h.log.Info(msg, slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		h.log.Error(msg, slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}
