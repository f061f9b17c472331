package hsmsclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/secs2"
)

func connectSelected(ctx context.Context, t testing.TB, client *Client) {
	t.Helper()
	require := require.New(t)

	require.NoError(client.Connect(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(client.WaitState(waitCtx, StateSelected))
}

func TestClient_ConnectSelectDisconnect(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, echoReply)
	client := newTestClient(ctx, t, eq.port)

	// disconnect before connect
	require.NoError(client.Disconnect(ctx))
	require.Equal(StateDisconnected, client.State())
	require.False(client.IsConnected())

	connectSelected(ctx, t, client)
	require.True(client.IsConnected())

	// connect again is a no-op
	require.NoError(client.Connect(ctx))
	require.Equal(uint64(1), client.Metrics().ConnectCount.Load())

	_, ok := eq.waitFor(time.Second, func(msg *hsms.Message) bool {
		return msg.Type() == hsms.SelectReqType
	})
	require.True(ok)

	for range 3 {
		require.NoError(client.Disconnect(ctx))
		require.Equal(StateDisconnected, client.State())
		require.False(client.IsConnected())
	}

	// reconnect after disconnect
	connectSelected(ctx, t, client)
	require.NoError(client.Disconnect(ctx))
	require.Equal(uint64(2), client.Metrics().DisconnectCount.Load())
}

func TestClient_ConnectFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	client := newTestClient(ctx, t, getPort(t), WithConnectTimeout(200*time.Millisecond))

	err := client.Connect(ctx)
	require.ErrorIs(err, hsms.ErrConnection)
	require.Equal(StateDisconnected, client.State())
	require.False(client.IsConnected())
	require.Equal(uint64(1), client.Metrics().ConnectErrCount.Load())

	dialErr := errors.New("no route")
	client = newTestClient(ctx, t, 5000, WithDialer(&streamDialer{err: dialErr}))
	err = client.Connect(ctx)
	require.ErrorIs(err, hsms.ErrConnection)
	require.ErrorIs(err, dialErr)
}

func TestClient_NotConnected(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	client := newTestClient(ctx, t, getPort(t))

	msg, err := hsms.NewDataRequest(testSessionID, 1, 1, 0, nil)
	require.NoError(err)

	require.ErrorIs(client.Send(ctx, msg), hsms.ErrNotConnected)

	_, err = client.SendRequest(ctx, msg)
	require.ErrorIs(err, hsms.ErrNotConnected)
}

func TestClient_SendRequest(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, echoReply)
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	tests := []struct {
		description string
		stream      byte
		function    byte
		body        secs2.Item
		expectedSML string
	}{
		{
			description: "no body",
			stream:      1,
			function:    1,
			body:        nil,
			expectedSML: "S1F2\n.",
		},
		{
			description: "list of U4",
			stream:      1,
			function:    3,
			body:        secs2.L(secs2.U4(0), secs2.U4(32000)),
			expectedSML: "S1F4\n<L[2]\n  <U4[1] 0>\n  <U4[1] 32000>\n>\n.",
		},
		{
			description: "ASCII",
			stream:      2,
			function:    41,
			body:        secs2.A("START"),
			expectedSML: "S2F42\n<A[5] \"START\">\n.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			msg, err := hsms.NewDataMessage(tt.stream, tt.function, false, testSessionID, 0, tt.body)
			require.NoError(err)

			reply, err := client.SendRequest(ctx, msg)
			require.NoError(err)
			require.Equal(tt.expectedSML, reply.ToSML())
			require.Equal(uint16(testSessionID), reply.Header.SessionID)
			require.False(reply.WaitBit())

			// the caller's message is left untouched
			require.False(msg.WaitBit())
			require.Zero(msg.ID())
		})
	}

	require.Zero(client.PendingCount())
	require.Equal(int64(0), client.Metrics().DataMsgInflightCount.Load())
}

func TestClient_CorrelationIsolation(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	const numRequests = 4

	var mu sync.Mutex
	var held []*hsms.Message

	// reply only once every request arrived, in reverse order
	eq := newFakeEquipment(t, func(eq *fakeEquipment, msg *hsms.Message) {
		mu.Lock()
		held = append(held, msg)
		if len(held) < numRequests {
			mu.Unlock()
			return
		}
		batch := held
		held = nil
		mu.Unlock()

		for i := len(batch) - 1; i >= 0; i-- {
			echoReply(eq, batch[i])
		}
	})
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	var wg sync.WaitGroup
	errs := make(chan error, numRequests)
	for i := range numRequests {
		wg.Add(1)
		go func(val uint32) {
			defer wg.Done()

			msg, _ := hsms.NewDataRequest(testSessionID, 1, 3, 0, secs2.U4(val))
			reply, err := client.SendRequest(ctx, msg)
			if err != nil {
				errs <- err
				return
			}

			values, err := reply.Body.ToUint()
			if err != nil {
				errs <- err
				return
			}
			if len(values) != 1 || values[0] != uint64(val) {
				errs <- errors.New("reply delivered to the wrong request")
			}
		}(uint32(i)) //nolint:gosec
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(err)
	}
	require.Zero(client.PendingCount())
}

func TestClient_SendRequest_Timeout(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil) // never replies
	client := newTestClient(ctx, t, eq.port, WithT3Timeout(200*time.Millisecond))
	connectSelected(ctx, t, client)

	msg, _ := hsms.NewDataRequest(testSessionID, 1, 1, 0, nil)

	start := time.Now()
	_, err := client.SendRequest(ctx, msg)
	require.ErrorIs(err, hsms.ErrTimeout)
	require.GreaterOrEqual(time.Since(start), 200*time.Millisecond)
	require.Zero(client.PendingCount())
	require.True(client.IsConnected())
}

func TestClient_SendRequest_ContextCanceled(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port, WithT3Timeout(10*time.Second))
	connectSelected(ctx, t, client)

	msg, _ := hsms.NewDataRequest(testSessionID, 1, 1, 0, nil)

	reqCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	_, err := client.SendRequest(reqCtx, msg)
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Zero(client.PendingCount())
}

func TestClient_WriteFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	stream := newFailingStream()
	client := newTestClient(ctx, t, 5000,
		WithDialer(&streamDialer{stream: stream}),
		WithT3Timeout(10*time.Second),
	)
	require.NoError(client.Connect(ctx))

	msg, _ := hsms.NewDataRequest(testSessionID, 1, 1, 0, nil)

	start := time.Now()
	_, err := client.SendRequest(ctx, msg)
	require.ErrorIs(err, hsms.ErrConnection)
	require.ErrorIs(err, errWriteFailed)
	require.Less(time.Since(start), time.Second)
	require.Zero(client.PendingCount())

	err = client.Send(ctx, msg)
	require.ErrorIs(err, hsms.ErrConnection)
	require.Equal(uint64(2), client.Metrics().DataMsgErrCount.Load())
}

func TestClient_TeardownFailsPending(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	const numRequests = 3

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port, WithT3Timeout(10*time.Second))

	var mu sync.Mutex
	var states []ConnState
	client.AddStateChangeHandler(func(_ *Client, _ ConnState, newState ConnState) {
		mu.Lock()
		states = append(states, newState)
		mu.Unlock()
	})

	connectSelected(ctx, t, client)

	errs := make(chan error, numRequests)
	for range numRequests {
		go func() {
			msg, _ := hsms.NewDataRequest(testSessionID, 1, 1, 0, nil)
			_, err := client.SendRequest(ctx, msg)
			errs <- err
		}()
	}

	require.Eventually(func() bool { return client.PendingCount() == numRequests }, 2*time.Second, 10*time.Millisecond)

	eq.dropConn()

	for range numRequests {
		select {
		case err := <-errs:
			require.ErrorIs(err, hsms.ErrConnClosed)
		case <-time.After(2 * time.Second):
			require.Fail("pending request not failed on teardown")
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(client.WaitState(waitCtx, StateDisconnected))
	require.False(client.IsConnected())
	require.Zero(client.PendingCount())

	mu.Lock()
	require.Equal([]ConnState{StateConnecting, StateConnected, StateSelected, StateDisconnected}, states)
	mu.Unlock()

	// explicit disconnect after teardown still succeeds
	require.NoError(client.Disconnect(ctx))
}

func TestClient_Rejected(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, func(eq *fakeEquipment, msg *hsms.Message) {
		eq.send(hsms.NewRejectReq(msg, hsms.RejectNotSelected))
	})
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	msg, _ := hsms.NewDataRequest(testSessionID, 99, 1, 0, nil)

	reply, err := client.SendRequest(ctx, msg)
	require.ErrorIs(err, hsms.ErrRejected)
	require.NotNil(reply)
	require.Equal(hsms.RejectReqType, reply.Type())
	require.True(client.IsConnected())
}

func TestClient_Send(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	msg, _ := hsms.NewDataMessage(6, 11, false, testSessionID, 0, secs2.U4(1))
	require.NoError(client.Send(ctx, msg))
	require.NotZero(msg.ID(), "primary message gets fresh system bytes")

	recv, ok := eq.waitFor(time.Second, func(m *hsms.Message) bool { return m.IsDataMessage() })
	require.True(ok)
	require.Equal(msg.ID(), recv.ID())
	require.Equal("S6F11\n<U4[1] 1>\n.", recv.ToSML())

	// secondary messages keep their system bytes
	rsp, _ := hsms.NewDataMessage(6, 12, false, testSessionID, 0, nil)
	require.NoError(client.Send(ctx, rsp))
	require.Zero(rsp.ID())
}

func TestClient_Subscribe(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port)

	subCtx, cancel := context.WithCancel(ctx)
	sub1 := client.Subscribe(subCtx)
	sub2 := client.Subscribe(subCtx)

	connectSelected(ctx, t, client)

	const numEvents = 10
	for i := range numEvents {
		msg, _ := hsms.NewDataMessage(6, 11, true, testSessionID, uint32(1000+i), secs2.U4(i)) //nolint:gosec
		eq.send(msg)
	}

	for _, sub := range []<-chan *hsms.Message{sub1, sub2} {
		for i := range numEvents {
			select {
			case msg := <-sub:
				require.Equal(uint32(1000+i), msg.ID()) //nolint:gosec
				require.Equal("S6F11 W", msg.SMLHeader())
			case <-time.After(2 * time.Second):
				require.Fail("event not delivered")
			}
		}
	}

	cancel()
	for _, sub := range []<-chan *hsms.Message{sub1, sub2} {
		require.Eventually(func() bool {
			_, ok := <-sub
			return !ok
		}, time.Second, 10*time.Millisecond)
	}
	require.Equal(uint64(numEvents), client.Metrics().EventPublishedCount.Load())
	require.Equal(int64(0), client.Metrics().EventBacklogGauge.Load())
}

func TestClient_SeparateFromEquipment(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	eq.send(hsms.NewSeparateReq(42))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(client.WaitState(waitCtx, StateDisconnected))
	require.False(client.IsConnected())
}

func TestClient_UndecodableFrame(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	header := hsms.Header{SessionID: testSessionID, Stream: 6, Function: 11, SystemBytes: 1}.Bytes()
	// a format byte with a zero-width length field
	frame := append([]byte{0, 0, 0, hsms.HeaderSize + 1}, header[:]...)
	frame = append(frame, 0x40)
	eq.sendRaw(frame)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(client.WaitState(waitCtx, StateDisconnected))
}

func TestClient_ControlRequestsFromEquipment(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port)
	connectSelected(ctx, t, client)

	eq.send(hsms.NewLinktestReq(77))
	rsp, ok := eq.waitFor(time.Second, func(m *hsms.Message) bool { return m.Type() == hsms.LinkTestRspType })
	require.True(ok)
	require.Equal(uint32(77), rsp.ID())

	eq.send(hsms.NewSelectReq(78))
	rsp, ok = eq.waitFor(time.Second, func(m *hsms.Message) bool { return m.Type() == hsms.SelectRspType })
	require.True(ok)
	require.Equal(uint32(78), rsp.ID())
	require.Equal(hsms.SelectStatusAlreadySelected, rsp.SelectStatus())

	eq.send(hsms.NewDeselectReq(79))
	rsp, ok = eq.waitFor(time.Second, func(m *hsms.Message) bool { return m.Type() == hsms.DeselectRspType })
	require.True(ok)
	require.Equal(uint32(79), rsp.ID())

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(client.WaitState(waitCtx, StateConnected))
	require.True(client.IsConnected())
}

func TestClient_Linktest(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port, WithLinktestInterval(50*time.Millisecond))
	connectSelected(ctx, t, client)

	require.Eventually(func() bool {
		return client.Metrics().LinktestRecvCount.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
	require.Zero(client.Metrics().LinktestErrCount.Load())

	require.NoError(client.Disconnect(ctx))
	sent := client.Metrics().LinktestSendCount.Load()
	time.Sleep(200 * time.Millisecond)
	require.Equal(sent, client.Metrics().LinktestSendCount.Load(), "linktest stops on disconnect")
}

func TestClient_LinktestTimeout(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eq := newFakeEquipment(t, nil)
	eq.ignoreLinktest = true
	client := newTestClient(ctx, t, eq.port,
		WithLinktestInterval(50*time.Millisecond),
		WithT6Timeout(100*time.Millisecond),
	)
	connectSelected(ctx, t, client)

	require.Eventually(func() bool {
		return client.Metrics().LinktestErrCount.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// a linktest timeout doesn't close the connection
	require.True(client.IsConnected())
}

func TestClient_Registry(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	registry := NewRegistry()
	eq := newFakeEquipment(t, nil)
	client := newTestClient(ctx, t, eq.port, WithRegistry(registry))

	require.Zero(registry.Len())

	connectSelected(ctx, t, client)
	got, ok := registry.Get(client.Config().Address())
	require.True(ok)
	require.Same(client, got)

	require.NoError(client.Disconnect(ctx))
	require.Zero(registry.Len())

	// removed on teardown caused by the equipment too
	connectSelected(ctx, t, client)
	require.Equal(1, registry.Len())
	eq.dropConn()
	require.Eventually(func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_DisconnectDuringLinktestWrite(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	gated := newGatedStream()
	dialer := &seqDialer{streams: []Stream{gated, newFailingStream()}}
	client := newTestClient(ctx, t, 5000,
		WithDialer(dialer),
		WithLinktestInterval(20*time.Millisecond),
		WithCloseTimeout(time.Second),
	)
	require.NoError(client.Connect(ctx))

	select {
	case <-gated.entered:
	case <-time.After(2 * time.Second):
		require.FailNow("linktest never written")
	}

	disconnected := make(chan error, 1)
	go func() { disconnected <- client.Disconnect(ctx) }()

	// the linktest task tries to start its reply task while Disconnect drains the tasks
	time.Sleep(200 * time.Millisecond)
	close(gated.release)

	select {
	case err := <-disconnected:
		require.NoError(err)
	case <-time.After(3 * time.Second):
		require.FailNow("Disconnect blocked")
	}
	require.Equal(StateDisconnected, client.State())

	connectCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	require.NoError(client.Connect(connectCtx))
	require.True(client.IsConnected())
	require.NoError(client.Disconnect(ctx))
}

func TestClient_RegisterAfterTeardown(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	client := newTestClient(ctx, t, 5000, WithDialer(&streamDialer{stream: newFailingStream()}))

	ac := &activeConn{stream: newFailingStream()}
	pr, err := client.register(ac, 42)
	require.NoError(err)
	require.NotNil(pr)
	require.Equal(1, client.PendingCount())
	require.True(client.pending.cancel(42))

	// a teardown that already failed the table marks the connection closed first
	ac.closed.Store(true)
	_, err = client.register(ac, 43)
	require.ErrorIs(err, hsms.ErrConnClosed)
	require.Zero(client.PendingCount())
}
