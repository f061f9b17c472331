package hsmsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/internal/pool"
	"github.com/arloliu/go-hsms/logger"
)

const (
	receiverTaskName = "receiver"
	linktestTaskName = "linktest"
)

// Client is an HSMS-SS active client connected to one piece of equipment.
//
// A Client can be connected and disconnected repeatedly. All methods are safe for concurrent use.
type Client struct {
	cfg      *ConnectionConfig
	logger   logger.Logger
	codec    *hsms.FrameCodec
	dialer   Dialer
	ids      *hsms.SystemBytesGenerator
	stateMgr *connStateMgr
	taskMgr  *hsms.TaskManager
	pending  *pendingTable
	events   *eventHub
	metrics  *ConnectionMetrics

	lifecycleMu sync.Mutex // serializes Connect and Disconnect
	conn        atomic.Pointer[activeConn]
}

// activeConn is one generation of the connection, from a successful dial to its teardown.
type activeConn struct {
	stream    Stream
	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewClient creates a disconnected client for cfg. ctx bounds the lifetime of every connection
// task the client starts.
func NewClient(ctx context.Context, cfg *ConnectionConfig) (*Client, error) {
	if cfg == nil {
		return nil, hsms.ErrConnConfigNil
	}

	l := cfg.Logger().With("remote", cfg.Address())
	c := &Client{
		cfg:     cfg,
		logger:  l,
		codec:   hsms.NewFrameCodec(cfg.MaxFrameSize()),
		dialer:  cfg.dialer,
		ids:     hsms.NewSystemBytesGenerator(),
		taskMgr: hsms.NewTaskManager(ctx, l),
		pending: newPendingTable(),
		metrics: &ConnectionMetrics{},
	}
	if c.dialer == nil {
		c.dialer = NewTCPDialer(cfg.MaxFrameSize(), cfg.T8Timeout())
	}
	c.stateMgr = newConnStateMgr(c, l)
	c.events = newEventHub(c.metrics, l, cfg.EventBacklogWarn())

	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() *ConnectionConfig { return c.cfg }

// Metrics returns the client metrics.
func (c *Client) Metrics() *ConnectionMetrics { return c.metrics }

// State returns the current connection state.
func (c *Client) State() ConnState { return c.stateMgr.State() }

// WaitState blocks until the client enters state or ctx is done.
func (c *Client) WaitState(ctx context.Context, state ConnState) error {
	return c.stateMgr.WaitState(ctx, state)
}

// AddStateChangeHandler adds handlers invoked after each state change, including the change to
// StateDisconnected caused by the equipment closing the connection.
func (c *Client) AddStateChangeHandler(handlers ...ConnStateChangeHandler) {
	c.stateMgr.AddHandler(handlers...)
}

// IsConnected reports whether the byte stream is open and the receiver is running.
// It doesn't imply the session is selected.
func (c *Client) IsConnected() bool {
	ac := c.conn.Load()
	return ac != nil && !ac.closed.Load()
}

// PendingCount returns the number of requests awaiting a reply.
func (c *Client) PendingCount() int { return c.pending.Len() }

// Subscribe returns a channel receiving the unsolicited messages from the equipment, i.e. the data
// messages that don't answer a pending request. The channel is closed when ctx is done.
//
// Messages are buffered without limit for slow subscribers, see WithEventBacklogWarn.
func (c *Client) Subscribe(ctx context.Context) <-chan *hsms.Message {
	return c.events.subscribe(ctx)
}

// Connect opens the connection, starts the receiver and sends a Select.req.
//
// Connect returns once the TCP connection is established, it doesn't wait for the Select.rsp;
// use WaitState with StateSelected for that. Calling Connect on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.IsConnected() {
		return nil
	}

	// a teardown caused by the remote may still be in progress
	if !c.State().IsDisconnected() {
		if err := c.WaitState(ctx, StateDisconnected); err != nil {
			return err
		}
	}

	// tasks of the previous connection may outlive a timed out Disconnect
	if err := c.taskMgr.Ready(ctx); err != nil {
		return err
	}

	if err := c.stateMgr.fire(eventDial); err != nil {
		return fmt.Errorf("%w: %w", hsms.ErrConnection, err)
	}

	addr := c.cfg.Address()
	c.logger.Debug("dial", "timeout", c.cfg.ConnectTimeout())

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout())
	stream, err := c.dialer.Dial(dialCtx, addr, c.cfg.ConnectTimeout())
	cancel()
	if err != nil {
		c.metrics.incConnectErrCount()
		_ = c.stateMgr.fire(eventClose)

		return fmt.Errorf("%w: dial %s: %w", hsms.ErrConnection, addr, err)
	}

	ac := &activeConn{stream: stream}
	c.conn.Store(ac)
	c.metrics.incConnectCount()
	_ = c.stateMgr.fire(eventEstablished)
	c.logger.Info("connection established")

	if err := c.taskMgr.Start(receiverTaskName, c.receiverTask(ac)); err != nil {
		c.teardown(ac, err)
		return fmt.Errorf("%w: %w", hsms.ErrConnection, err)
	}

	if err := c.selectSession(ac); err != nil {
		c.teardown(ac, err)
		return err
	}

	if interval := c.cfg.LinktestInterval(); interval > 0 {
		if err := c.taskMgr.StartInterval(linktestTaskName, c.linktestTask(ac), interval, false); err != nil {
			c.logger.Warn("failed to start linktest", "error", err)
		}
	}

	if r := c.cfg.Registry(); r != nil {
		r.Add(c)
		// the equipment may have closed the connection meanwhile
		if ac.closed.Load() {
			r.Remove(c)
		}
	}

	return nil
}

// Disconnect cancels the linktest, fails every pending request with hsms.ErrConnClosed, closes the
// stream and waits up to the close timeout for the connection tasks to exit.
//
// Disconnect is idempotent, it succeeds trivially when the client isn't connected.
func (c *Client) Disconnect(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	ac := c.conn.Load()
	if ac == nil {
		return nil
	}

	c.teardown(ac, nil)
	c.taskMgr.Stop()

	timeout := c.cfg.CloseTimeout()
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	if !c.taskMgr.WaitTimeout(timeout) {
		return fmt.Errorf("%w: tasks still running after %v", hsms.ErrTimeout, timeout)
	}

	return nil
}

// Send sends msg without waiting for a reply.
//
// A primary data message with zero system bytes is stamped with fresh system bytes in place.
func (c *Client) Send(ctx context.Context, msg *hsms.Message) error {
	ac := c.conn.Load()
	if ac == nil || ac.closed.Load() {
		return hsms.ErrNotConnected
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if msg.IsPrimary() && msg.Header.SystemBytes == 0 {
		msg.Header.SystemBytes = c.ids.Next()
	}

	err := c.writeMessage(ac, msg)
	if msg.IsDataMessage() {
		if err != nil {
			c.metrics.incDataMsgErrCount()
		} else {
			c.metrics.incDataMsgSendCount()
		}
	}

	return err
}

// SendRequest sends a copy of msg with fresh system bytes and the W-bit set, and waits for the reply.
//
// It returns hsms.ErrTimeout when no reply arrives within T3, hsms.ErrConnClosed when the connection
// is torn down meanwhile, hsms.ErrRejected when the equipment answers with a Reject.req, or the ctx
// error when ctx is done first. A write failure is returned immediately.
func (c *Client) SendRequest(ctx context.Context, msg *hsms.Message) (*hsms.Message, error) {
	ac := c.conn.Load()
	if ac == nil || ac.closed.Load() {
		return nil, hsms.ErrNotConnected
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := &hsms.Message{Header: msg.Header, Body: msg.Body}
	req.Header.SystemBytes = c.ids.Next()
	if req.IsDataMessage() {
		req.Header.WBit = true
	}
	id := req.ID()

	pr, err := c.register(ac, id)
	if err != nil {
		return nil, err
	}

	if err := c.writeMessage(ac, req); err != nil {
		c.pending.cancel(id)
		c.metrics.incDataMsgErrCount()

		return nil, err
	}
	c.metrics.incDataMsgSendCount()

	c.metrics.incDataMsgInflightCount()
	defer c.metrics.decDataMsgInflightCount()

	reply, err := c.awaitReply(ctx, id, pr, c.cfg.T3Timeout())
	if err != nil {
		c.metrics.incDataMsgErrCount()
		c.logger.Debug("request failed", hsms.MsgInfo(req, "error", err)...)

		return reply, err
	}

	return reply, nil
}

// register adds the waiter of id. A teardown sets ac.closed before failing the table, so a waiter
// added after that fan-out is caught by the second check.
func (c *Client) register(ac *activeConn, id uint32) (*pendingReply, error) {
	pr, err := c.pending.register(id)
	if err != nil {
		return nil, err
	}

	if ac.closed.Load() {
		c.pending.cancel(id)
		return nil, hsms.ErrConnClosed
	}

	return pr, nil
}

// awaitReply waits for the waiter of id. Whichever of reply, timeout, cancellation and teardown
// removes the entry first decides the result.
func (c *Client) awaitReply(ctx context.Context, id uint32, pr *pendingReply, timeout time.Duration) (*hsms.Message, error) {
	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	var res replyResult
	select {
	case res = <-pr.ch:
	case <-timer.C:
		if c.pending.cancel(id) {
			return nil, fmt.Errorf("%w: system bytes %d after %v", hsms.ErrTimeout, id, timeout)
		}
		res = <-pr.ch
	case <-ctx.Done():
		if c.pending.cancel(id) {
			return nil, ctx.Err()
		}
		res = <-pr.ch
	}

	if res.err != nil {
		return nil, res.err
	}

	if res.msg.Type() == hsms.RejectReqType {
		return res.msg, fmt.Errorf("%w: system bytes %d, reason %d", hsms.ErrRejected, id, res.msg.RejectReason())
	}

	return res.msg, nil
}

func (c *Client) writeMessage(ac *activeConn, msg *hsms.Message) error {
	frame, err := c.codec.EncodeFrame(msg)
	if err != nil {
		return err
	}

	ac.writeMu.Lock()
	err = ac.stream.WriteFrame(frame)
	ac.writeMu.Unlock()

	if err != nil {
		c.logger.Warn("failed to write message", hsms.MsgInfo(msg, "error", err)...)
		return fmt.Errorf("%w: %w", hsms.ErrConnection, err)
	}

	c.logger.Debug("message sent", hsms.MsgInfo(msg)...)

	return nil
}

// requestControl writes a control request and hands its reply, error included, to onReply from a
// separate task, so the caller doesn't wait for T6.
func (c *Client) requestControl(ac *activeConn, msg *hsms.Message, onReply func(reply *hsms.Message, err error)) error {
	id := msg.ID()

	pr, err := c.register(ac, id)
	if err != nil {
		return err
	}

	if err := c.writeMessage(ac, msg); err != nil {
		c.pending.cancel(id)
		return err
	}

	name := msg.Type().String() + "-reply"
	err = c.taskMgr.Go(name, func(ctx context.Context) {
		onReply(c.awaitReply(ctx, id, pr, c.cfg.T6Timeout()))
	})
	if err != nil {
		c.pending.cancel(id)
		return err
	}

	return nil
}

func (c *Client) selectSession(ac *activeConn) error {
	return c.requestControl(ac, hsms.NewSelectReq(c.ids.Next()), func(reply *hsms.Message, err error) {
		if err != nil {
			c.logger.Error("select failed", "error", err)
			return
		}

		if status := reply.SelectStatus(); status != hsms.SelectStatusEstablished {
			c.logger.Error("select failed", "error", hsms.ErrSelectFailed, "status", status)
			return
		}

		if err := c.stateMgr.fire(eventSelect); err != nil {
			c.logger.Debug("ignore select reply", "state", c.State(), "error", err)
		}
	})
}

func (c *Client) linktestTask(ac *activeConn) hsms.TaskFunc {
	return func() bool {
		if ac.closed.Load() {
			return false
		}

		c.metrics.incLinktestSendCount()
		err := c.requestControl(ac, hsms.NewLinktestReq(c.ids.Next()), func(_ *hsms.Message, err error) {
			if err != nil {
				c.metrics.incLinktestErrCount()
				c.logger.Warn("linktest failed", "error", err)

				return
			}
			c.metrics.incLinktestRecvCount()
		})
		if err != nil {
			c.metrics.incLinktestErrCount()
			c.logger.Warn("failed to send linktest", "error", err)
		}

		return !ac.closed.Load()
	}
}

func (c *Client) receiverTask(ac *activeConn) hsms.TaskFunc {
	return func() bool {
		frame, err := ac.stream.ReadFrame()
		if err != nil {
			if ac.closed.Load() {
				return false
			}

			if isNetError(err) {
				c.logger.Info("connection closed by remote", "error", err)
			} else {
				c.logger.Error("failed to read frame", "error", err)
			}
			c.teardown(ac, err)

			return false
		}

		msg, err := hsms.DecodeMessage(frame)
		if err != nil {
			c.logger.Error("failed to decode message", "error", err)
			c.teardown(ac, err)

			return false
		}

		c.dispatch(ac, msg)

		return true
	}
}

func (c *Client) dispatch(ac *activeConn, msg *hsms.Message) {
	c.logger.Debug("message received", hsms.MsgInfo(msg)...)

	switch msg.Type() {
	case hsms.DataMsgType:
		c.metrics.incDataMsgRecvCount()
		if c.pending.resolve(msg.ID(), msg) {
			return
		}
		c.events.publish(msg)

	case hsms.SelectRspType, hsms.DeselectRspType, hsms.LinkTestRspType, hsms.RejectReqType:
		if !c.pending.resolve(msg.ID(), msg) {
			c.logger.Warn("unexpected control message", hsms.MsgInfo(msg)...)
		}

	case hsms.LinkTestReqType:
		c.metrics.incLinktestRecvCount()
		rsp, _ := hsms.NewLinktestRsp(msg)
		c.replyControl(ac, rsp)

	case hsms.SelectReqType:
		status := hsms.SelectStatusEstablished
		if c.State().IsSelected() {
			status = hsms.SelectStatusAlreadySelected
		}
		rsp, _ := hsms.NewSelectRsp(msg, status)
		c.replyControl(ac, rsp)
		_ = c.stateMgr.fire(eventSelect)

	case hsms.DeselectReqType:
		rsp, _ := hsms.NewDeselectRsp(msg, 0)
		c.replyControl(ac, rsp)
		_ = c.stateMgr.fire(eventDeselect)

	case hsms.SeparateReqType:
		c.logger.Info("separate requested by remote")
		c.teardown(ac, nil)
	}
}

func (c *Client) replyControl(ac *activeConn, rsp *hsms.Message) {
	if err := c.writeMessage(ac, rsp); err != nil {
		c.logger.Warn("failed to reply control message", hsms.MsgInfo(rsp, "error", err)...)
	}
}

// teardown closes one connection generation. It runs once per generation, whether requested by
// Disconnect or caused by the remote closing the stream.
func (c *Client) teardown(ac *activeConn, cause error) {
	ac.closeOnce.Do(func() {
		ac.closed.Store(true)
		c.conn.CompareAndSwap(ac, nil)

		_ = c.taskMgr.StopInterval(linktestTaskName)
		failed := c.pending.failAll(hsms.ErrConnClosed)

		if err := ac.stream.Close(); err != nil {
			c.logger.Debug("failed to close stream", "error", err)
		}

		if r := c.cfg.Registry(); r != nil {
			r.Remove(c)
		}

		c.metrics.incDisconnectCount()
		_ = c.stateMgr.fire(eventClose)

		c.logger.Info("connection closed", "cause", cause, "failed_requests", failed)
	})
}

func isNetError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
