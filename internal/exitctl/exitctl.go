// Package exitctl tracks whether the process has committed to exiting.
//
// The flag only moves from Running to ExitArmed. It is written from timer
// callbacks and read from the shell run-loop, so it is the one piece of
// coordinator state guarded by a mutex.
package exitctl

import (
	"sync"
	"time"
)

// State of the controller.
type State int

const (
	Running State = iota
	ExitArmed
)

func (s State) String() string {
	if s == ExitArmed {
		return "exit-armed"
	}
	return "running"
}

// Controller arms exit and fires termination exactly once.
type Controller struct {
	mu        sync.Mutex
	armed     bool
	scheduled bool
	timer     *time.Timer
	code      int

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a controller in the Running state.
func New() *Controller {
	return &Controller{done: make(chan struct{})}
}

// Arm moves the controller to ExitArmed. It reports whether this call did
// the arming.
func (c *Controller) Arm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		return false
	}
	c.armed = true
	return true
}

// Armed reports whether exit has been armed.
func (c *Controller) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// State returns the current state.
func (c *Controller) State() State {
	if c.Armed() {
		return ExitArmed
	}
	return Running
}

// ScheduleExit arms the controller and terminates with code 0 after delay.
// Only the first call schedules; later calls report false and change nothing.
func (c *Controller) ScheduleExit(delay time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = true
	if c.scheduled {
		return false
	}
	c.scheduled = true
	c.timer = time.AfterFunc(delay, func() { c.Terminate(0) })
	return true
}

// Terminate arms the controller and releases Done. The first code wins.
func (c *Controller) Terminate(code int) {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()

	c.doneOnce.Do(func() {
		c.mu.Lock()
		c.code = code
		if c.timer != nil {
			c.timer.Stop()
		}
		c.mu.Unlock()
		close(c.done)
	})
}

// Done is closed once termination fires.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Terminated reports whether termination has fired.
func (c *Controller) Terminated() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Code is the exit code passed to the first Terminate call.
func (c *Controller) Code() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}
