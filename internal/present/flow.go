package present

import (
	"errors"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy is returned by Begin while a request is already in flight.
var ErrBusy = errors.New("an analysis is already in progress")

// Flow is the client side of one analysis form: Idle, then Loading, then Success or
// Failed, then back to Idle on Reset. Only one request may be in flight.
type Flow struct {
	mu    sync.Mutex
	state State
	err   error
}

// Begin moves to Loading. It clears the previous outcome.
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateLoading {
		return ErrBusy
	}
	f.state = StateLoading
	f.err = nil
	return nil
}

// Succeed ends the in-flight request. It is a no-op unless Loading.
func (f *Flow) Succeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateLoading {
		f.state = StateSuccess
	}
}

// Fail ends the in-flight request with err. It is a no-op unless Loading.
func (f *Flow) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateLoading {
		f.state = StateFailed
		f.err = err
	}
}

// Reset returns to Idle from Success or Failed and reports whether it did.
func (f *Flow) Reset() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSuccess && f.state != StateFailed {
		return false
	}
	f.state = StateIdle
	f.err = nil
	return true
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the failure of the last request, if it failed.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Flow) Busy() bool { return f.State() == StateLoading }
