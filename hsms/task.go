package hsms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-hsms/logger"
)

// ErrTaskManagerStopped is returned when a task is started after Stop, or while Wait drains the
// running tasks.
var ErrTaskManagerStopped = errors.New("hsms: task manager already stopped")

// TaskFunc represents a function that performs a task within a goroutine managed by the TaskManager.
// It should return true to continue running the task, or false to stop the goroutine.
type TaskFunc func() bool

// TaskManager manages the lifecycle of goroutines (tasks) of a connection.
// It provides a structured way to start, stop, and wait for goroutines, ensuring proper
// cancellation and resource cleanup.
//
// The TaskManager uses a context.Context to manage the lifecycle of the goroutines. When the
// context is canceled, all running goroutines are signaled to stop. A panic inside a task is
// recovered and logged, and ends that task only.
//
// Example Usage:
//
//	taskMgr := hsms.NewTaskManager(ctx, logger)
//
//	taskMgr.Start("receiver", func() bool {
//	    // ... task logic ...
//	    return true // Return true to continue running, false to stop
//	})
//
//	_ = taskMgr.StartInterval("linktest", sendLinktest, 3*time.Second, false)
//
//	taskMgr.Stop()
//	taskMgr.Wait()
type TaskManager struct {
	pctx    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  logger.Logger
	count   atomic.Int32
	tickers sync.Map // map[string]*time.Ticker

	mu      sync.RWMutex  // protects the fields below
	waiters int           // number of Wait calls in progress
	drained chan struct{} // closed when the last Wait rearms the manager, nil when not draining
}

// NewTaskManager creates a new TaskManager with the given context as the parent context and logger.
func NewTaskManager(ctx context.Context, l logger.Logger) *TaskManager {
	mgr := &TaskManager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context that is canceled when the manager stops.
func (mgr *TaskManager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start starts a new goroutine that calls taskFunc repeatedly until it returns false or the
// manager is stopped.
func (mgr *TaskManager) Start(name string, taskFunc TaskFunc) error {
	mgr.logger.Debug("start task", "name", name)

	return mgr.spawn(name, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if !mgr.callWithRecover(name, taskFunc) {
					return
				}
			}
		}
	})
}

// Go starts a new goroutine that runs fn once.
func (mgr *TaskManager) Go(name string, fn func(ctx context.Context)) error {
	return mgr.spawn(name, func(ctx context.Context) {
		mgr.callWithRecover(name, func() bool {
			fn(ctx)
			return false
		})
	})
}

// StartInterval starts a new goroutine that executes taskFunc at the specified interval, until it
// returns false, the interval is stopped with StopInterval, or the manager is stopped.
// If runNow is true, taskFunc is executed once immediately before the first tick.
func (mgr *TaskManager) StartInterval(name string, taskFunc TaskFunc, interval time.Duration, runNow bool) error {
	mgr.logger.Debug("start interval task", "name", name, "interval", interval, "runNow", runNow)

	if interval <= 0 {
		return fmt.Errorf("invalid interval: %v", interval)
	}

	stopped := make(chan struct{})
	task := &intervalTask{
		ticker: time.NewTicker(interval),
		stop:   sync.OnceFunc(func() { close(stopped) }),
	}
	if _, loaded := mgr.tickers.LoadOrStore(name, task); loaded {
		task.ticker.Stop()
		return fmt.Errorf("interval task %s already exists", name)
	}

	cleanup := func() {
		task.ticker.Stop()
		mgr.tickers.CompareAndDelete(name, task)
	}

	err := mgr.spawn(name, func(ctx context.Context) {
		defer cleanup()

		if runNow && !mgr.callWithRecover(name, taskFunc) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopped:
				return
			case <-task.ticker.C:
				if !mgr.callWithRecover(name, taskFunc) {
					return
				}
			}
		}
	})
	if err != nil {
		cleanup()
		return err
	}

	return nil
}

type intervalTask struct {
	ticker *time.Ticker
	stop   func()
}

// StopInterval stops the interval task with the given name.
func (mgr *TaskManager) StopInterval(name string) error {
	val, ok := mgr.tickers.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("interval task %s not found", name)
	}

	if task, ok := val.(*intervalTask); ok {
		task.ticker.Stop()
		task.stop()
	}

	return nil
}

// Stop signals all running goroutines to terminate.
func (mgr *TaskManager) Stop() {
	mgr.tickers.Range(func(key, value any) bool {
		if task, ok := value.(*intervalTask); ok {
			task.ticker.Stop()
			task.stop()
		}
		mgr.tickers.Delete(key)

		return true
	})

	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait waits for all goroutines to terminate, then rearms the manager so tasks can be started again.
//
// Tasks can't be started while Wait is in progress, spawning fails with ErrTaskManagerStopped.
func (mgr *TaskManager) Wait() {
	mgr.mu.Lock()
	if mgr.drained == nil {
		mgr.drained = make(chan struct{})
	}
	mgr.waiters++
	mgr.mu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	mgr.waiters--
	if mgr.waiters > 0 {
		return
	}

	mgr.cancel()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	close(mgr.drained)
	mgr.drained = nil
}

// Ready blocks until no Wait is in progress, or ctx is done.
func (mgr *TaskManager) Ready(ctx context.Context) error {
	mgr.mu.RLock()
	drained := mgr.drained
	mgr.mu.RUnlock()

	if drained == nil {
		return nil
	}

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout waits up to timeout for all goroutines to terminate.
// It returns false if some goroutines are still running when the timeout expires.
func (mgr *TaskManager) WaitTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		mgr.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		mgr.logger.Warn("tasks still running after timeout", "timeout", timeout, "task_count", mgr.TaskCount())
		return false
	}
}

// TaskCount returns the number of currently running goroutines.
func (mgr *TaskManager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *TaskManager) spawn(name string, body func(ctx context.Context)) error {
	mgr.mu.Lock()
	ctx := mgr.ctx
	if mgr.drained != nil || ctx.Err() != nil {
		mgr.mu.Unlock()
		return fmt.Errorf("start %s: %w", name, ErrTaskManagerStopped)
	}

	// added under the lock, so a Wait that has started never sees the counter grow
	mgr.wg.Add(1)
	mgr.count.Add(1)
	mgr.mu.Unlock()

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.wg.Done()
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.TaskCount())
		}()

		body(ctx)
	}()

	return nil
}

// callWithRecover calls a function that returns bool with panic protection.
// A panic is logged and reported as false.
func (mgr *TaskManager) callWithRecover(name string, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			ok = false
		}
	}()

	return fn()
}
