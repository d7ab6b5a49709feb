package typing

import "time"

// Timer is a pending callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock schedules tick callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the Clock backed by the runtime timers.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
