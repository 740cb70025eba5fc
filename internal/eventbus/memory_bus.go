package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("шина событий закрыта")

// MemoryBus: шина внутри процесса. Один диспетчер читает буфер и
// раздаёт события подписчикам в отдельных горутинах.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]*memSub
	nextID      int
	stats       Stats
	closed      bool

	buffer chan *Envelope
	done   chan struct{}
}

// NewMemoryBus создаёт шину с буфером capacity (минимум 1) и запускает диспетчер.
func NewMemoryBus(capacity int) *MemoryBus {
	if capacity < 1 {
		capacity = 1
	}
	mb := &MemoryBus{
		subscribers: make(map[int]*memSub),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish кладёт событие в буфер. При переполнении событие ниже PriorityHigh
// отбрасывается, а высокоприоритетное ждёт места или отмены ctx.
func (mb *MemoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.RLock()
	closed := mb.closed
	mb.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.count(&mb.stats.Published)
		return nil
	default:
	}

	if ev.Priority < PriorityHigh {
		mb.count(&mb.stats.Dropped)
		return nil
	}
	select {
	case mb.buffer <- ev:
		mb.count(&mb.stats.Published)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe регистрирует обработчик. Подписка снимается при отмене ctx
// или вызове Unsubscribe.
func (mb *MemoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil, ErrClosed
	}

	sctx, cancel := context.WithCancel(ctx)
	sub := &memSub{bus: mb, id: mb.nextID, filter: f, handler: h, ctx: sctx, cancel: cancel}
	mb.subscribers[sub.id] = sub
	mb.nextID++
	return sub, nil
}

// Metrics возвращает снимок счётчиков
func (mb *MemoryBus) Metrics() Stats {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	s := mb.stats
	s.InFlight = len(mb.buffer)
	return s
}

// Close отменяет подписки и останавливает диспетчер. Повторный вызов безопасен.
func (mb *MemoryBus) Close() error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	for id, sub := range mb.subscribers {
		sub.cancel()
		delete(mb.subscribers, id)
	}
	mb.mu.Unlock()

	close(mb.done)
	return nil
}

func (mb *MemoryBus) count(c *uint64) {
	mb.mu.Lock()
	*c++
	mb.mu.Unlock()
}

func (mb *MemoryBus) dispatchLoop() {
	for {
		select {
		case <-mb.done:
			return
		case ev := <-mb.buffer:
			mb.dispatch(ev)
		}
	}
}

func (mb *MemoryBus) dispatch(ev *Envelope) {
	mb.mu.RLock()
	targets := make([]*memSub, 0, len(mb.subscribers))
	for _, sub := range mb.subscribers {
		if matchFilter(ev, sub.filter) {
			targets = append(targets, sub)
		}
	}
	mb.mu.RUnlock()

	for _, sub := range targets {
		go func(s *memSub) {
			if s.ctx.Err() != nil {
				return
			}
			s.handler(s.ctx, ev)
			mb.count(&mb.stats.Consumed)
		}(sub)
	}
}

type memSub struct {
	bus     *MemoryBus
	id      int
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if _, ok := s.bus.subscribers[s.id]; ok {
		s.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
