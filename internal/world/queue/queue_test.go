package queue

import (
	"sync"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEmptyPop(t *testing.T) {
	q := NewQueue[int]()
	_, ok := q.TryPop()
	assert.False(t, ok)
	assert.Zero(t, q.Len())
}

func TestQueueCompaction(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 500; i++ {
		q.TryPush(i)
	}
	for i := 0; i < 300; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 200, q.Len())

	rest := q.Drain()
	require.Len(t, rest, 200)
	assert.Equal(t, 300, rest[0])
	assert.Equal(t, 499, rest[199])
	assert.Zero(t, q.Len())
}

func TestQueueEveryItemPoppedOnce(t *testing.T) {
	q := NewQueue[int]()
	const producers, perProducer = 4, 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.TryPush(p*perProducer + i)
			}
		}(p)
	}

	var mu sync.Mutex
	seen := make(map[int]int)
	done := make(chan struct{})
	var consumers sync.WaitGroup
	for c := 0; c < 3; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				v, ok := q.TryPop()
				if ok {
					mu.Lock()
					seen[v]++
					mu.Unlock()
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	consumers.Wait()
	for _, v := range q.Drain() {
		seen[v]++
	}

	require.Len(t, seen, producers*perProducer)
	for v, n := range seen {
		assert.Equal(t, 1, n, "элемент %d извлечён %d раз", v, n)
	}
}

func TestRouterStrictPriority(t *testing.T) {
	r := NewRouter()
	r.Push(Ticket{Slot: 4, Priority: PriorityBackground})
	r.Push(Ticket{Slot: 3, Priority: PriorityGeneration})
	r.Push(Ticket{Slot: 2, Priority: PriorityLight})
	r.Push(Ticket{Slot: 1, Priority: PriorityUser})
	assert.Equal(t, 4, r.Pending())

	var order []int
	for {
		tk, ok := r.Pop()
		if !ok {
			break
		}
		order = append(order, tk.Slot)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, order)
}

func TestRouterRechecksFromTop(t *testing.T) {
	r := NewRouter()
	r.Push(Ticket{Slot: 10, Priority: PriorityBackground})
	r.Push(Ticket{Slot: 11, Priority: PriorityBackground})

	tk, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, PriorityBackground, tk.Priority)

	// Правка игрока, пришедшая между извлечениями, обгоняет оставшийся фон
	r.Push(Ticket{Slot: 20, Priority: PriorityUser})
	tk, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, 20, tk.Slot)
	assert.Equal(t, PriorityUser, tk.Priority)
}

func TestRouterUnknownPriorityIsBackground(t *testing.T) {
	r := NewRouter()
	r.Push(Ticket{Slot: 5, Priority: Priority(42)})
	assert.Equal(t, 1, r.Len(PriorityBackground))

	r.Clear()
	assert.Zero(t, r.Pending())
}

func TestHandoffPrefersUser(t *testing.T) {
	h := NewHandoff()
	h.Push(ReadyMesh{Slot: 1, Position: vec.Vec2{X: 1}}, false)
	h.Push(ReadyMesh{Slot: 2, Position: vec.Vec2{X: 2}}, true)

	m, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, m.Slot)

	m, ok = h.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, m.Slot)

	_, ok = h.Pop()
	assert.False(t, ok)
}
