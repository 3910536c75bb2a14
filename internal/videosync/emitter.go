package videosync

// Events delivered to the presenter window.
const (
	EventStateUpdate  = "video:state-update"
	EventStateCleared = "video:state-cleared"
)

// Emitter delivers a named event to the presenter window. Delivery is best
// effort: an error means the window could not be reached and is only logged.
type Emitter interface {
	Emit(event string, payload any) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(event string, payload any) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(event string, payload any) error { return f(event, payload) }
