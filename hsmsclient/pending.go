package hsmsclient

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-hsms/hsms"
)

type replyResult struct {
	msg *hsms.Message
	err error
}

// pendingReply is a one-shot waiter. The channel is buffered so the resolver never blocks.
type pendingReply struct {
	ch chan replyResult
}

// pendingTable correlates outstanding requests with their replies by system bytes.
//
// Every path that completes a waiter (reply, timeout, cancellation, teardown) removes the entry
// with LoadAndDelete first, so exactly one of them delivers a result.
type pendingTable struct {
	m *xsync.MapOf[uint32, *pendingReply]
}

func newPendingTable() *pendingTable {
	return &pendingTable{m: xsync.NewMapOf[uint32, *pendingReply]()}
}

func (t *pendingTable) register(id uint32) (*pendingReply, error) {
	pr := &pendingReply{ch: make(chan replyResult, 1)}
	if _, loaded := t.m.LoadOrStore(id, pr); loaded {
		return nil, fmt.Errorf("%w: %d", hsms.ErrDuplicateSystemBytes, id)
	}

	return pr, nil
}

// resolve delivers msg to the waiter of id, and reports whether a waiter was found.
func (t *pendingTable) resolve(id uint32, msg *hsms.Message) bool {
	pr, ok := t.m.LoadAndDelete(id)
	if !ok {
		return false
	}
	pr.ch <- replyResult{msg: msg}

	return true
}

// cancel removes the waiter of id without delivering a result.
// It returns false if the waiter was already completed by another path.
func (t *pendingTable) cancel(id uint32) bool {
	_, ok := t.m.LoadAndDelete(id)
	return ok
}

// failAll completes every waiter with err and returns the number of failed waiters.
func (t *pendingTable) failAll(err error) int {
	count := 0
	t.m.Range(func(id uint32, _ *pendingReply) bool {
		if pr, ok := t.m.LoadAndDelete(id); ok {
			pr.ch <- replyResult{err: err}
			count++
		}

		return true
	})

	return count
}

// Len returns the number of outstanding requests.
func (t *pendingTable) Len() int {
	return t.m.Size()
}
