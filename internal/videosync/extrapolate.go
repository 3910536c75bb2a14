package videosync

import "math"

// Extrapolate predicts the playback position of state at nowMillis.
//
// Paused or seeking states are returned as reported. Otherwise the position
// advances by the elapsed wall-clock time scaled by PlaybackRate. Looping
// media with a known duration wraps into [0, Duration) using floored modulo,
// so reverse playback wraps from the end rather than going negative.
// Non-looping media never advances past Duration.
func Extrapolate(state VideoPlaybackState, nowMillis float64) float64 {
	if state.Paused || state.Seeking {
		return state.CurrentTime
	}

	elapsed := (nowMillis - state.UpdatedAt) / 1000
	predicted := state.CurrentTime + elapsed*state.PlaybackRate

	if state.Loop && state.Duration > 0 {
		return floorMod(predicted, state.Duration)
	}
	return math.Min(predicted, state.Duration)
}

func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	// r+m can round up to exactly m for tiny negative r.
	if r >= m {
		r = 0
	}
	return r
}

// project returns a copy of state positioned at nowMillis and stamped with it.
func project(state VideoPlaybackState, nowMillis float64) VideoPlaybackState {
	out := state
	out.CurrentTime = Extrapolate(state, nowMillis)
	out.UpdatedAt = nowMillis
	return out
}
