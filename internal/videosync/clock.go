package videosync

import "time"

// Clock returns the current wall-clock time in Unix milliseconds.
type Clock interface {
	NowMillis() float64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() float64

// NowMillis implements Clock.
func (f ClockFunc) NowMillis() float64 { return f() }

// SystemClock reads time.Now.
type SystemClock struct{}

// NowMillis implements Clock.
func (SystemClock) NowMillis() float64 {
	return float64(time.Now().UnixMilli())
}
