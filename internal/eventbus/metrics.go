package eventbus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter переносит счётчики шины в Prometheus. Шина сама ничего
// не знает о Prometheus: экспортер периодически опрашивает Metrics().
type MetricsExporter struct {
	bus    EventBus
	cancel context.CancelFunc
	done   chan struct{}

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter регистрирует метрики шины. reg == nil - глобальный регистр.
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) *MetricsExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: "eventbus", Name: name, Help: help})
	}
	me := &MetricsExporter{
		bus:       bus,
		published: counter("messages_published_total", "Опубликовано событий."),
		consumed:  counter("messages_consumed_total", "Доставлено событий подписчикам."),
		dropped:   counter("messages_dropped_total", "Отброшено событий при переполнении буфера."),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Событий в буфере, ещё не разосланных.",
		}),
	}
	reg.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// Start запускает опрос шины с периодом every
func (m *MetricsExporter) Start(every time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx, every)
}

// Stop останавливает опрос и ждёт завершения горутины
func (m *MetricsExporter) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}

func (m *MetricsExporter) loop(ctx context.Context, every time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	// Counter только растёт, поэтому прибавляем разницу с прошлым снимком
	var prev Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := m.bus.Metrics()
			addDelta(m.published, cur.Published, prev.Published)
			addDelta(m.consumed, cur.Consumed, prev.Consumed)
			addDelta(m.dropped, cur.Dropped, prev.Dropped)
			m.inflight.Set(float64(cur.InFlight))
			prev = cur
		}
	}
}

func addDelta(c prometheus.Counter, cur, prev uint64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}
