// Package pool provides pools of reusable runtime objects.
package pool

import (
	"sync"
	"time"
)

var timerPool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()

		return t
	},
}

// GetTimer returns a stopped timer from the pool, armed to fire after d.
//
// Return the timer to the pool with PutTimer once it's no longer selected on.
func GetTimer(d time.Duration) *time.Timer {
	t, _ := timerPool.Get().(*time.Timer)
	t.Reset(d)

	return t
}

// PutTimer stops t and returns it to the pool.
//
// t cannot be accessed after returning to the pool.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		// drain a value that fired but wasn't received
		select {
		case <-t.C:
		default:
		}
	}
	timerPool.Put(t)
}
