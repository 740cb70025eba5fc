package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockEditedRoundTrip(t *testing.T) {
	ev, err := NewBlockEdited("engine", -3, 64, 12, 3)
	require.NoError(t, err)
	assert.Equal(t, EventBlockEdited, ev.EventType)
	assert.Len(t, ev.ID, 36)

	fields, err := DecodePayload(ev.Payload)
	require.NoError(t, err)
	assert.Equal(t, float64(-3), fields["x"])
	assert.Equal(t, float64(64), fields["y"])
	assert.Equal(t, float64(3), fields["value"])
}

func TestEnvelopeIDsUnique(t *testing.T) {
	a := NewEnvelope("t", "s", 0, nil)
	b := NewEnvelope("t", "s", 0, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	got := make(chan string, 4)

	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventBlockEdited}}, func(_ context.Context, ev *Envelope) {
		got <- ev.EventType
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventWorldSaved, "engine", 1, nil)))
	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventBlockEdited, "engine", 5, nil)))

	select {
	case typ := <-got:
		assert.Equal(t, EventBlockEdited, typ)
	case <-time.After(2 * time.Second):
		t.Fatal("событие не доставлено")
	}

	assert.Eventually(t, func() bool { return bus.Metrics().Published == 2 }, time.Second, 10*time.Millisecond)
}

func TestDefaultBus(t *testing.T) {
	Init(nil)
	assert.Nil(t, Default())
	assert.NoError(t, Publish(context.Background(), NewEnvelope("x", "y", 0, nil)))

	bus := stalledBus(2)
	Init(bus)
	defer Init(nil)
	assert.Same(t, bus, Default())
	require.NoError(t, Publish(context.Background(), NewEnvelope("x", "y", PriorityLow, nil)))
	assert.Equal(t, uint64(1), bus.Metrics().Published)
}

func TestMetricsExporterCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := NewMemoryBus(4)
	me := NewMetricsExporter(bus, reg)
	me.Start(10 * time.Millisecond)
	defer me.Stop()

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("x", "y", 0, nil)))

	assert.Eventually(t, func() bool {
		families, err := reg.Gather()
		if err != nil {
			return false
		}
		for _, f := range families {
			if f.GetName() == "eventbus_messages_published_total" {
				return f.GetMetric()[0].GetCounter().GetValue() >= 1
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

// stalledBus: шина без диспетчера: буфер не разгружается
func stalledBus(capacity int) *MemoryBus {
	return &MemoryBus{
		subscribers: make(map[int]*memSub),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	bus := stalledBus(1)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkGenerated, "engine", PriorityLow, nil)))
	}
	stats := bus.Metrics()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(2), stats.Dropped)
	assert.Equal(t, 1, stats.InFlight)
}

func TestMemoryBusHighPriorityRespectsContext(t *testing.T) {
	bus := stalledBus(1)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("x", "y", PriorityHigh, nil)))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, NewEnvelope("x", "y", PriorityHigh, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), NewEnvelope("x", "y", PriorityLow, nil)), ErrClosed)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	got := make(chan struct{}, 4)
	sub, err := bus.Subscribe(context.Background(), Filter{Sources: []string{"engine"}}, func(context.Context, *Envelope) {
		got <- struct{}{}
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("x", "engine", PriorityHigh, nil)))
	select {
	case <-got:
		t.Fatal("событие доставлено после отписки")
	case <-time.After(50 * time.Millisecond):
	}
}
