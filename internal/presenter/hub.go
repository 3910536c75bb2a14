package presenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"os-presenter/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrWindowNotConnected is returned when no connection is registered
	// under the target window label.
	ErrWindowNotConnected = errors.New("window not connected")

	// ErrSlowClient is returned when a window's send buffer is full. The
	// connection is dropped; the window is expected to reconnect.
	ErrSlowClient = errors.New("window send buffer full")

	// ErrHubClosed is returned by EmitTo after Close.
	ErrHubClosed = errors.New("hub closed")
)

// Config holds websocket timing and buffer settings.
type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingInterval:   54 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
	}
}

// MessageHandler receives commands sent by a window.
type MessageHandler func(window, event string, payload json.RawMessage)

// outbound is the frame written to windows.
type outbound struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// inbound is the frame read from windows.
type inbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Hub tracks the websocket connection of every application window, keyed by
// window label ("main" for the presenter, "audience" for the output window),
// and delivers events to them.
type Hub struct {
	cfg       Config
	log       *slog.Logger
	metrics   *metrics.Metrics
	onMessage MessageHandler
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	windows map[string]map[string]*Client // label -> client ID -> client
	closed  bool
}

// NewHub returns a Hub. onMessage may be nil to ignore inbound frames and
// m may be nil to disable metrics.
func NewHub(cfg Config, log *slog.Logger, m *metrics.Metrics, onMessage MessageHandler) *Hub {
	def := DefaultConfig()
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		cfg.PingInterval = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	return &Hub{
		cfg:       cfg,
		log:       log.With(slog.String("component", "presenter_hub")),
		metrics:   m,
		onMessage: onMessage,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Windows are served from the app's own webview origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		windows: make(map[string]map[string]*Client),
	}
}

// ServeWS handles GET /ws/windows/{label}, upgrading the request and
// registering the connection under label.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	if label == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(uuid.NewString(), label, h, conn)
	if err := h.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(h.cfg.WriteWait))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// EmitTo JSON-encodes {"event", "payload"} and queues it for every
// connection registered under label.
func (h *Hub) EmitTo(label, event string, payload any) error {
	data, err := json.Marshal(outbound{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	clients := h.windows[label]
	if len(clients) == 0 {
		return fmt.Errorf("%w: %s", ErrWindowNotConnected, label)
	}

	var sendErr error
	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			sendErr = fmt.Errorf("%w: %s/%s", ErrSlowClient, label, c.ID)
			go h.unregister(c)
		}
	}
	return sendErr
}

// Window returns an emitter bound to label.
func (h *Hub) Window(label string) *Window {
	return &Window{hub: h, label: label}
}

// ConnectedWindows returns the number of live connections.
func (h *Hub) ConnectedWindows() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// IsConnected reports whether at least one connection uses label.
func (h *Hub) IsConnected(label string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.windows[label]) > 0
}

// Close disconnects every window and rejects further registrations and emits.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	all := h.windows
	h.windows = make(map[string]map[string]*Client)
	for _, clients := range all {
		for _, c := range clients {
			c.closeSend()
		}
	}
	h.mu.Unlock()

	h.metrics.SetConnectedWindows(0)
	h.log.Info("all windows disconnected")
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	if h.windows[c.Window] == nil {
		h.windows[c.Window] = make(map[string]*Client)
	}
	h.windows[c.Window][c.ID] = c
	n := h.countLocked()
	h.mu.Unlock()

	h.metrics.SetConnectedWindows(n)
	h.log.Info("window connected", slog.String("window", c.Window), slog.String("client_id", c.ID))
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	clients, ok := h.windows[c.Window]
	if ok {
		if _, ok = clients[c.ID]; ok {
			delete(clients, c.ID)
			if len(clients) == 0 {
				delete(h.windows, c.Window)
			}
			c.closeSend()
		}
	}
	n := h.countLocked()
	h.mu.Unlock()

	if ok {
		h.metrics.SetConnectedWindows(n)
		h.log.Info("window disconnected", slog.String("window", c.Window), slog.String("client_id", c.ID))
	}
}

// countLocked requires h.mu.
func (h *Hub) countLocked() int {
	n := 0
	for _, clients := range h.windows {
		n += len(clients)
	}
	return n
}

func (h *Hub) dispatch(c *Client, message []byte) {
	if h.onMessage == nil {
		return
	}
	var msg inbound
	if err := json.Unmarshal(message, &msg); err != nil || msg.Event == "" {
		h.log.Debug("ignoring malformed window message", slog.String("window", c.Window))
		return
	}
	h.onMessage(c.Window, msg.Event, msg.Payload)
}

// Window emits events to every connection registered under one label.
type Window struct {
	hub   *Hub
	label string
}

// Emit sends event to the window.
func (w *Window) Emit(event string, payload any) error {
	return w.hub.EmitTo(w.label, event, payload)
}

// Label returns the window label.
func (w *Window) Label() string { return w.label }
