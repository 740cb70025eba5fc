package queue

import "sync"

// Queue: неограниченная неблокирующая очередь для многих писателей и читателей.
// TryPush никогда не блокирует и не теряет элементы; TryPop возвращает false,
// если очередь пуста. Порядок выдачи не гарантируется потребителям.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
}

// NewQueue создаёт пустую очередь
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// TryPush добавляет элемент в очередь
func (q *Queue[T]) TryPush(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// TryPop извлекает элемент, если он есть
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Сжимаем хвост, когда прочитано больше половины буфера
	if q.head >= len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return item, true
}

// Len возвращает число элементов в очереди
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Drain извлекает и возвращает все элементы
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]T, len(q.items)-q.head)
	copy(result, q.items[q.head:])
	q.items = nil
	q.head = 0
	return result
}
