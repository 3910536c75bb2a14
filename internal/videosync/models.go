package videosync

// VideoPlaybackState is the playback snapshot reported by the output window
// and mirrored to the presenter window. Field names on the wire are part of
// the front-end contract and must not change.
type VideoPlaybackState struct {
	SlideID      string  `json:"slideId"`
	CurrentTime  float64 `json:"currentTime"` // seconds
	Duration     float64 `json:"duration"`    // seconds, 0 when unknown
	Paused       bool    `json:"paused"`
	Volume       float64 `json:"volume"`
	Loop         bool    `json:"loop"`
	PlaybackRate float64 `json:"playbackRate"`
	Buffered     float64 `json:"buffered"`
	ReadyState   int     `json:"readyState"`
	Error        *string `json:"error"`
	Seeking      bool    `json:"seeking"`
	UpdatedAt    float64 `json:"updatedAt"` // Unix milliseconds
}

// sessionState is the manager's authoritative record. Every field is guarded
// by Manager.mu.
type sessionState struct {
	current      *VideoPlaybackState
	broadcasting bool
	// stop is closed to tell the owning broadcast loop to exit. Each session
	// gets its own channel so a late-exiting loop can recognise that the
	// session it belonged to has been replaced.
	stop chan struct{}
}
