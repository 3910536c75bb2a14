package videosync

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Commands accepted from a window over its websocket connection.
const (
	CommandUpdate = "video:update"
	CommandClear  = "video:clear"
)

// Handler exposes the video sync command surface over HTTP and to the
// window websocket hub.
type Handler struct {
	mgr *Manager
	log *slog.Logger
}

// NewHandler returns a Handler backed by mgr.
func NewHandler(mgr *Manager, log *slog.Logger) *Handler {
	return &Handler{mgr: mgr, log: log}
}

// UpdateState handles POST /api/video/state.
// Body: a VideoPlaybackState as reported by the output window.
func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	var state VideoPlaybackState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		h.log.Debug("invalid video state body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.mgr.Update(state); err != nil {
		h.writeError(w, "update video state failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearState handles DELETE /api/video/state.
func (h *Handler) ClearState(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Clear(); err != nil {
		h.writeError(w, "clear video state failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetState handles GET /api/video/state. It answers 204 when no video is
// active so a reconnecting presenter knows to blank its display.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	state, ok := h.mgr.Snapshot()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(state); err != nil {
		h.log.Debug("write video state failed", slog.String("error", err.Error()))
	}
}

// HandleWindowMessage dispatches a command received from a window's
// websocket connection. Errors are logged; there is no reply channel.
func (h *Handler) HandleWindowMessage(window, event string, payload json.RawMessage) {
	var err error
	switch event {
	case CommandUpdate:
		var state VideoPlaybackState
		if err = json.Unmarshal(payload, &state); err != nil {
			h.log.Debug("invalid video state message",
				slog.String("window", window),
				slog.String("error", err.Error()))
			return
		}
		err = h.mgr.Update(state)
	case CommandClear:
		err = h.mgr.Clear()
	default:
		h.log.Debug("ignoring window message",
			slog.String("window", window),
			slog.String("event", event))
		return
	}

	if err != nil {
		h.log.Error("window command failed",
			slog.String("window", window),
			slog.String("event", event),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrManagerClosed) {
		h.log.Info(msg, slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.log.Error(msg, slog.String("error", err.Error()))
	w.WriteHeader(http.StatusInternalServerError)
}
