package videosync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"os-presenter/internal/platform/metrics"
)

// DefaultTickInterval is the broadcast cadence, roughly 30 updates per second.
const DefaultTickInterval = 33 * time.Millisecond

// ErrManagerClosed is returned by Update and Clear after Close.
var ErrManagerClosed = errors.New("video sync manager is closed")

// Options configures a Manager. Zero values select defaults.
type Options struct {
	TickInterval time.Duration
	Clock        Clock
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Manager is the single authority over the shared video session. The output
// window reports state through Update; while the video plays, a background
// broadcast loop pushes extrapolated positions to the presenter.
type Manager struct {
	emitter Emitter
	clock   Clock
	tick    time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	state  sessionState
	closed bool

	// isClosed mirrors closed so Update can skip forwarding without the lock.
	isClosed    atomic.Bool
	loops       sync.WaitGroup
	activeLoops atomic.Int32
}

// NewManager returns an idle Manager that emits to emitter.
func NewManager(emitter Emitter, opts Options) *Manager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		emitter: emitter,
		clock:   opts.Clock,
		tick:    opts.TickInterval,
		log:     opts.Logger.With(slog.String("component", "videosync")),
		metrics: opts.Metrics,
	}
}

// Update records state as the authoritative playback state.
//
// The state is forwarded to the presenter verbatim before anything else so
// discrete events (pause, seek) show up without waiting for a tick. A paused
// to playing edge starts a broadcast session; a playing to paused edge stops
// it. The stored state is fully replaced and the last writer wins.
// After Close, Update returns ErrManagerClosed and forwards nothing.
func (m *Manager) Update(state VideoPlaybackState) error {
	if m.isClosed.Load() {
		return ErrManagerClosed
	}

	m.emit(EventStateUpdate, state, slog.LevelWarn)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}

	wasPaused := true
	if m.state.current != nil {
		wasPaused = m.state.current.Paused
	}

	current := state
	m.state.current = &current

	started := false
	if !state.Paused && !m.state.broadcasting {
		m.startSessionLocked()
		started = true
	}

	stopped := false
	if !wasPaused && state.Paused {
		m.stopSessionLocked()
		stopped = true
	}
	m.mu.Unlock()

	m.metrics.IncVideoUpdates()
	if started {
		m.log.Info("broadcast session started", slog.String("slide_id", state.SlideID))
	}
	if stopped {
		m.log.Info("broadcast session stopped, video paused",
			slog.String("slide_id", state.SlideID),
			slog.Float64("current_time", state.CurrentTime))
	}
	return nil
}

// Clear drops the current state, stops any broadcast session and tells the
// presenter to blank its video display.
func (m *Manager) Clear() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.stopSessionLocked()
	m.state.current = nil
	m.mu.Unlock()

	m.metrics.IncVideoClears()
	m.emit(EventStateCleared, nil, slog.LevelWarn)
	m.log.Info("video state cleared")
	return nil
}

// Snapshot returns the last reported state as stored, without extrapolation.
func (m *Manager) Snapshot() (VideoPlaybackState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.current == nil {
		return VideoPlaybackState{}, false
	}
	return *m.state.current, true
}

// Broadcasting reports whether a broadcast session is believed active.
func (m *Manager) Broadcasting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.broadcasting
}

// ActiveLoops returns the number of broadcast loop goroutines still running.
// Briefly exceeds one while a stopped loop has not yet observed its signal.
func (m *Manager) ActiveLoops() int {
	return int(m.activeLoops.Load())
}

// Close stops any broadcast session and waits for all loops to exit.
// Subsequent Update and Clear calls return ErrManagerClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.isClosed.Store(true)
	m.stopSessionLocked()
	m.mu.Unlock()

	m.loops.Wait()
	return nil
}

// startSessionLocked allocates a fresh stop channel and launches its loop.
// Caller must hold m.mu.
func (m *Manager) startSessionLocked() {
	stop := make(chan struct{})
	m.state.stop = stop
	m.state.broadcasting = true

	m.loops.Add(1)
	m.activeLoops.Add(1)
	m.metrics.BroadcastLoopStarted()
	go m.broadcastLoop(stop)
}

// stopSessionLocked signals the current loop, if any, and forgets it.
// Caller must hold m.mu.
func (m *Manager) stopSessionLocked() {
	if m.state.stop != nil {
		close(m.state.stop)
	}
	m.state.stop = nil
	m.state.broadcasting = false
}

// emit delivers an event and swallows any failure, including a panicking
// emitter. Failures are logged at lvl.
func (m *Manager) emit(event string, payload any, lvl slog.Level) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("emitter panic: %v", r)
			}
		}()
		err = m.emitter.Emit(event, payload)
	}()
	if err != nil {
		m.metrics.IncEmitFailures(event)
		m.log.Log(context.Background(), lvl, "failed to emit video state",
			slog.String("event", event),
			slog.String("error", err.Error()))
	}
}
