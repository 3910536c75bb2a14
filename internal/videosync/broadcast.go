package videosync

import (
	"log/slog"
	"time"
)

// broadcastLoop emits an extrapolated copy of the current state every tick
// until stop is closed or there is nothing playing left to project.
func (m *Manager) broadcastLoop(stop chan struct{}) {
	defer m.loops.Done()

	start := time.Now()
	ticks := 0
	reason := "stop signal"

	defer func() {
		m.finishSession(stop)
		m.activeLoops.Add(-1)
		m.metrics.BroadcastLoopEnded()
		m.log.Info("broadcast loop ended",
			slog.String("reason", reason),
			slog.Int("ticks", ticks),
			slog.Duration("ran_for", time.Since(start)))
	}()

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		state, ok := m.projectCurrent(stop)
		if !ok {
			reason = "no playing video"
			return
		}

		m.emit(EventStateUpdate, state, slog.LevelDebug)
		m.metrics.IncBroadcastTicks()
		ticks++

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// projectCurrent copies the current state under the lock and positions it at
// now. ok is false when the session is over: signalled, cleared or paused.
func (m *Manager) projectCurrent(stop chan struct{}) (VideoPlaybackState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-stop:
		return VideoPlaybackState{}, false
	default:
	}

	if m.state.current == nil || m.state.current.Paused {
		return VideoPlaybackState{}, false
	}
	return project(*m.state.current, m.clock.NowMillis()), true
}

// finishSession resets the broadcast bookkeeping if it still refers to the
// session this loop served. A newer session's flags are left untouched.
func (m *Manager) finishSession(stop chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.stop == stop {
		m.state.stop = nil
		m.state.broadcasting = false
	}
}
