package hsmsclient

import (
	"context"
	"sync"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/internal/queue"
	"github.com/arloliu/go-hsms/logger"
)

// eventHub multicasts unsolicited inbound messages to subscribers.
//
// Each subscriber owns an unbounded FIFO drained by its own goroutine, so publish never blocks
// the receiver and never drops a message.
type eventHub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	metrics     *ConnectionMetrics
	logger      logger.Logger
	warnAt      int
}

func newEventHub(metrics *ConnectionMetrics, l logger.Logger, warnAt int) *eventHub {
	return &eventHub{
		subscribers: make(map[*subscriber]struct{}),
		metrics:     metrics,
		logger:      l,
		warnAt:      warnAt,
	}
}

// subscribe registers a subscriber that lives until ctx is done.
func (h *eventHub) subscribe(ctx context.Context) <-chan *hsms.Message {
	sub := &subscriber{
		hub:    h,
		queue:  queue.NewSliceQueue[*hsms.Message](16),
		notify: make(chan struct{}, 1),
		out:    make(chan *hsms.Message),
		nextAt: h.warnAt,
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	go sub.run(ctx)

	return sub.out
}

func (h *eventHub) publish(msg *hsms.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.metrics.incEventPublishedCount()
	if len(h.subscribers) == 0 {
		h.logger.Debug("no subscriber for unsolicited message", hsms.MsgInfo(msg)...)
		return
	}

	for sub := range h.subscribers {
		sub.push(msg)
	}
}

func (h *eventHub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

func (h *eventHub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

type subscriber struct {
	hub    *eventHub
	mu     sync.Mutex
	queue  queue.Queue[*hsms.Message]
	nextAt int
	notify chan struct{}
	out    chan *hsms.Message
}

func (s *subscriber) push(msg *hsms.Message) {
	s.mu.Lock()
	s.queue.Enqueue(msg)
	backlog := s.queue.Length()
	warn := backlog >= s.nextAt
	if warn {
		s.nextAt *= 2
	}
	s.mu.Unlock()

	s.hub.metrics.addEventBacklog(1)
	if warn {
		s.hub.logger.Warn("subscriber backlog is growing", "backlog", backlog)
	}

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) pop() (*hsms.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.queue.Dequeue()
	if ok && s.queue.IsEmpty() {
		s.nextAt = s.hub.warnAt
	}

	return msg, ok
}

func (s *subscriber) run(ctx context.Context) {
	defer func() {
		s.hub.remove(s)

		s.mu.Lock()
		s.hub.metrics.addEventBacklog(-int64(s.queue.Length()))
		s.queue.Reset()
		s.mu.Unlock()

		close(s.out)
	}()

	for {
		msg, ok := s.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.notify:
				continue
			}
		}

		select {
		case <-ctx.Done():
			// msg was taken off the queue but never delivered
			s.hub.metrics.addEventBacklog(-1)
			return
		case s.out <- msg:
			s.hub.metrics.addEventBacklog(-1)
		}
	}
}
