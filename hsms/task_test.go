package hsms

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-hsms/logger"
)

func newTaskTestLogger() *logger.MockLogger {
	return logger.NewMockLogger().AllowAll()
}

func TestTaskManager_Start(t *testing.T) {
	require := require.New(t)

	mgr := NewTaskManager(context.Background(), newTaskTestLogger())

	var calls atomic.Int32
	err := mgr.Start("loop", func() bool {
		return calls.Add(1) < 5
	})
	require.NoError(err)

	require.Eventually(func() bool { return mgr.TaskCount() == 0 }, time.Second, 5*time.Millisecond)
	require.Equal(int32(5), calls.Load())
}

func TestTaskManager_StopAndWait(t *testing.T) {
	require := require.New(t)

	mgr := NewTaskManager(context.Background(), newTaskTestLogger())

	block := make(chan struct{})
	err := mgr.Go("blocking", func(ctx context.Context) {
		select {
		case <-ctx.Done():
		case <-block:
		}
	})
	require.NoError(err)
	require.Equal(1, mgr.TaskCount())

	mgr.Stop()
	require.True(mgr.WaitTimeout(time.Second))
	require.Equal(0, mgr.TaskCount())

	// rearmed after Wait
	require.NoError(mgr.Go("again", func(context.Context) {}))
	mgr.Wait()
}

func TestTaskManager_SpawnWhileWaiting(t *testing.T) {
	require := require.New(t)

	mgr := NewTaskManager(context.Background(), newTaskTestLogger())

	release := make(chan struct{})
	spawnErr := make(chan error, 1)
	err := mgr.Go("writer", func(context.Context) {
		<-release
		spawnErr <- mgr.Go("nested", func(context.Context) {})
	})
	require.NoError(err)

	waitDone := make(chan struct{})
	go func() {
		mgr.Wait()
		close(waitDone)
	}()

	draining := func() bool {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		return mgr.Ready(ctx) != nil
	}
	require.Eventually(draining, time.Second, time.Millisecond)

	// spawning during a drain fails fast instead of blocking
	close(release)
	require.ErrorIs(<-spawnErr, ErrTaskManagerStopped)

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		require.Fail("Wait didn't return")
	}

	require.NoError(mgr.Ready(context.Background()))
	require.NoError(mgr.Go("after", func(context.Context) {}))
	mgr.Wait()
	require.Equal(0, mgr.TaskCount())
}

func TestTaskManager_StartAfterStop(t *testing.T) {
	require := require.New(t)

	mgr := NewTaskManager(context.Background(), newTaskTestLogger())
	mgr.Stop()

	err := mgr.Go("late", func(context.Context) {})
	require.ErrorIs(err, ErrTaskManagerStopped)
}

func TestTaskManager_StartInterval(t *testing.T) {
	require := require.New(t)

	mgr := NewTaskManager(context.Background(), newTaskTestLogger())

	var ticks atomic.Int32
	err := mgr.StartInterval("ticker", func() bool {
		ticks.Add(1)
		return true
	}, 10*time.Millisecond, true)
	require.NoError(err)

	require.Eventually(func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)

	err = mgr.StartInterval("ticker", func() bool { return true }, time.Second, false)
	require.Error(err)

	require.NoError(mgr.StopInterval("ticker"))
	require.Error(mgr.StopInterval("ticker"))
	require.Eventually(func() bool { return mgr.TaskCount() == 0 }, time.Second, 5*time.Millisecond)

	stopped := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(stopped, ticks.Load())

	err = mgr.StartInterval("invalid", func() bool { return true }, 0, false)
	require.Error(err)
}

func TestTaskManager_RecoverPanic(t *testing.T) {
	require := require.New(t)

	mockLogger := newTaskTestLogger()
	mgr := NewTaskManager(context.Background(), mockLogger)

	require.NoError(mgr.Go("panic", func(context.Context) {
		panic("boom")
	}))
	mgr.Wait()

	mockLogger.AssertCalled(t, "Error", "panic in task", mock.Anything)
}
