package eventbus

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Приоритеты событий. События ниже PriorityHigh при переполнении буфера
// отбрасываются, остальные ждут места.
const (
	PriorityLow    = 1
	PriorityNormal = 3
	PriorityHigh   = 5
)

// Envelope: конверт события движка. Payload содержит сериализованный
// protobuf Struct (см. EncodePayload).
type Envelope struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Source    string    `json:"source"`
	EventType string    `json:"type"`
	Priority  int       `json:"priority"`
	Payload   []byte    `json:"payload,omitempty"`
}

// NewEnvelope создаёт конверт с новым UUID и текущим временем UTC.
func NewEnvelope(eventType, source string, priority int, payload []byte) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Priority:  priority,
		Payload:   payload,
	}
}

// Filter ограничивает подписку типами и источниками. Пустой список - любые.
type Filter struct {
	Types   []string
	Sources []string
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats: счётчики шины для экспорта метрик.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus: шина событий движка.
// Реализации: in-memory (по умолчанию) и NATS для нескольких процессов.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	io.Closer
}

func matchFilter(ev *Envelope, f Filter) bool {
	return contains(f.Types, ev.EventType) && contains(f.Sources, ev.Source)
}

func contains(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

var (
	defaultMu  sync.RWMutex
	defaultBus EventBus
)

// Init назначает шину процесса, которой пользуются движки без своей шины.
// Init(nil) отключает публикацию.
func Init(bus EventBus) {
	defaultMu.Lock()
	defaultBus = bus
	defaultMu.Unlock()
}

// Default возвращает шину процесса или nil
func Default() EventBus {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultBus
}

// Publish отправляет событие в шину процесса; без шины ничего не делает
func Publish(ctx context.Context, ev *Envelope) error {
	bus := Default()
	if bus == nil {
		return nil
	}
	return bus.Publish(ctx, ev)
}
