package queue

// Priority: класс срочности перестройки чанка
type Priority uint8

const (
	PriorityUser       Priority = iota // Правки игрока
	PriorityLight                      // Изменения освещения
	PriorityGeneration                 // Генерация вокруг наблюдателя
	PriorityBackground                 // Косметическая перерисовка

	priorityCount // всегда последний: количество классов
)

// String возвращает имя класса приоритета
func (p Priority) String() string {
	switch p {
	case PriorityUser:
		return "user"
	case PriorityLight:
		return "light"
	case PriorityGeneration:
		return "generation"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Priorities возвращает все классы в порядке убывания срочности
func Priorities() []Priority {
	return []Priority{PriorityUser, PriorityLight, PriorityGeneration, PriorityBackground}
}

// Ticket: заявка "слот требует перестройки". Полезной нагрузки нет:
// мешер всё берёт из текущего состояния хранилища, так что дубли безвредны.
type Ticket struct {
	Slot     int
	Priority Priority
}

// Router раскладывает заявки по очередям приоритетов
type Router struct {
	queues [priorityCount]*Queue[int]
}

// NewRouter создаёт маршрутизатор с четырьмя пустыми очередями
func NewRouter() *Router {
	r := &Router{}
	for i := range r.queues {
		r.queues[i] = NewQueue[int]()
	}
	return r
}

// Push кладёт заявку в очередь её класса. Неизвестный класс считается фоновым.
func (r *Router) Push(t Ticket) {
	p := t.Priority
	if p >= priorityCount {
		p = PriorityBackground
	}
	r.queues[p].TryPush(t.Slot)
}

// Pop извлекает самую срочную заявку. Каждый вызов заново проверяет
// очереди сверху вниз, поэтому новая правка игрока обгоняет фоновую работу.
func (r *Router) Pop() (Ticket, bool) {
	for p := Priority(0); p < priorityCount; p++ {
		if slot, ok := r.queues[p].TryPop(); ok {
			return Ticket{Slot: slot, Priority: p}, true
		}
	}
	return Ticket{}, false
}

// Len возвращает длину очереди указанного класса
func (r *Router) Len(p Priority) int {
	if p >= priorityCount {
		return 0
	}
	return r.queues[p].Len()
}

// Pending возвращает суммарное число заявок
func (r *Router) Pending() int {
	total := 0
	for _, q := range r.queues {
		total += q.Len()
	}
	return total
}

// Clear очищает все очереди
func (r *Router) Clear() {
	for _, q := range r.queues {
		q.Drain()
	}
}
