package hsmsclient

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"

	"github.com/arloliu/go-hsms/logger"
)

// ConnState represents the state of an HSMS-SS client connection.
type ConnState string

const (
	// StateDisconnected means no byte stream is open.
	StateDisconnected ConnState = "disconnected"
	// StateConnecting means the TCP connection is being established.
	StateConnecting ConnState = "connecting"
	// StateConnected means the TCP connection is established but the session is not selected.
	StateConnected ConnState = "connected"
	// StateSelected means the equipment accepted the Select.req.
	StateSelected ConnState = "selected"
)

func (s ConnState) String() string { return string(s) }

// IsDisconnected reports whether the state is StateDisconnected.
func (s ConnState) IsDisconnected() bool { return s == StateDisconnected }

// IsConnected reports whether a TCP connection is established, selected or not.
func (s ConnState) IsConnected() bool { return s == StateConnected || s == StateSelected }

// IsSelected reports whether the state is StateSelected.
func (s ConnState) IsSelected() bool { return s == StateSelected }

const (
	eventDial        = "dial"
	eventEstablished = "established"
	eventSelect      = "select"
	eventDeselect    = "deselect"
	eventClose       = "close"
)

// ConnStateChangeHandler is invoked after the client enters a new state.
type ConnStateChangeHandler func(c *Client, prevState ConnState, newState ConnState)

// connStateMgr drives the connection state machine and lets callers wait for a state.
type connStateMgr struct {
	mu       sync.Mutex
	cond     *sync.Cond
	fsm      *fsm.FSM
	client   *Client
	logger   logger.Logger
	handlers []ConnStateChangeHandler
}

func newConnStateMgr(client *Client, l logger.Logger) *connStateMgr {
	cs := &connStateMgr{client: client, logger: l}
	cs.cond = sync.NewCond(&cs.mu)

	cs.fsm = fsm.NewFSM(
		string(StateDisconnected),
		fsm.Events{
			{Name: eventDial, Src: []string{string(StateDisconnected)}, Dst: string(StateConnecting)},
			{Name: eventEstablished, Src: []string{string(StateConnecting)}, Dst: string(StateConnected)},
			{Name: eventSelect, Src: []string{string(StateConnected)}, Dst: string(StateSelected)},
			{Name: eventDeselect, Src: []string{string(StateSelected)}, Dst: string(StateConnected)},
			{
				Name: eventClose,
				Src:  []string{string(StateConnecting), string(StateConnected), string(StateSelected)},
				Dst:  string(StateDisconnected),
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) { cs.onEnterState(e) },
		},
	)

	return cs
}

func (cs *connStateMgr) State() ConnState {
	return ConnState(cs.fsm.Current())
}

func (cs *connStateMgr) AddHandler(handlers ...ConnStateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.handlers = append(cs.handlers, handlers...)
}

// fire triggers event. Triggering an event that isn't allowed from the current state is reported
// as an error, triggering one that leads to the current state is a no-op.
func (cs *connStateMgr) fire(event string) error {
	err := cs.fsm.Event(context.Background(), event)

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}

	return err
}

// WaitState blocks until the state machine enters state or ctx is done.
func (cs *connStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.State() == state {
		return nil
	}

	stop := context.AfterFunc(ctx, func() {
		cs.mu.Lock()
		cs.cond.Broadcast()
		cs.mu.Unlock()
	})
	defer stop()

	for cs.State() != state {
		if err := ctx.Err(); err != nil {
			return err
		}
		cs.cond.Wait()
	}

	return nil
}

func (cs *connStateMgr) onEnterState(e *fsm.Event) {
	prev, cur := ConnState(e.Src), ConnState(e.Dst)

	cs.mu.Lock()
	handlers := make([]ConnStateChangeHandler, len(cs.handlers))
	copy(handlers, cs.handlers)
	cs.cond.Broadcast()
	cs.mu.Unlock()

	cs.logger.Debug("connection state changed", "event", e.Event, "prev_state", prev, "state", cur)

	for _, handler := range handlers {
		if handler != nil {
			handler(cs.client, prev, cur)
		}
	}
}
