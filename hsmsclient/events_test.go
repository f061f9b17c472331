package hsmsclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/logger"
)

func TestEventHub_SlowSubscriber(t *testing.T) {
	require := require.New(t)

	l := logger.NewMockLogger()
	l.On("Debug", mock.Anything, mock.Anything).Maybe()
	l.On("Warn", "subscriber backlog is growing", mock.Anything).Return()

	metrics := &ConnectionMetrics{}
	hub := newEventHub(metrics, l, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := hub.subscribe(ctx)
	require.Equal(1, hub.len())

	// nobody reads yet, publish must not block
	const numEvents = 20
	for i := range numEvents {
		hub.publish(hsms.NewLinktestReq(uint32(i + 1))) //nolint:gosec
	}

	require.Eventually(func() bool {
		return metrics.EventBacklogGauge.Load() == numEvents
	}, time.Second, 5*time.Millisecond)

	// warned at 4, 8 and 16
	l.AssertNumberOfCalls(t, "Warn", 3)

	for i := range numEvents {
		msg := <-sub
		require.Equal(uint32(i+1), msg.ID()) //nolint:gosec
	}
	require.Equal(int64(0), metrics.EventBacklogGauge.Load())
	require.Equal(uint64(numEvents), metrics.EventPublishedCount.Load())

	cancel()
	_, ok := <-sub
	require.False(ok)
	require.Eventually(func() bool { return hub.len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEventHub_CancelWithBacklog(t *testing.T) {
	require := require.New(t)

	metrics := &ConnectionMetrics{}
	hub := newEventHub(metrics, logger.GetLogger(), 1024)

	ctx, cancel := context.WithCancel(context.Background())
	sub := hub.subscribe(ctx)

	for i := range 5 {
		hub.publish(hsms.NewLinktestReq(uint32(i + 1))) //nolint:gosec
	}
	cancel()

	// drain until closed, some events may still be delivered before the cancellation is seen
	for range sub { //nolint:revive
	}

	require.Zero(hub.len())
	require.Equal(int64(0), metrics.EventBacklogGauge.Load())

	// publishing without subscribers is fine
	hub.publish(hsms.NewLinktestReq(99))
	require.Equal(uint64(6), metrics.EventPublishedCount.Load())
}
