package eventbus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSBusRoundTrip(t *testing.T) {
	url := os.Getenv("VOXEL_TEST_NATS_URL")
	if url == "" {
		t.Skip("VOXEL_TEST_NATS_URL не задан")
	}

	bus, err := NewNATSBus(NATSConfig{URL: url, SubjectPrefix: "voxel.test"})
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Envelope, 1)
	_, err = bus.Subscribe(ctx, Filter{Types: []string{EventChunkGenerated}, Sources: []string{"engine"}},
		func(_ context.Context, ev *Envelope) { got <- ev })
	require.NoError(t, err)

	ev, err := NewChunkGenerated("engine", 3, -2, 4)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	select {
	case recv := <-got:
		assert.Equal(t, ev.ID, recv.ID)
		fields, err := DecodePayload(recv.Payload)
		require.NoError(t, err)
		assert.Equal(t, float64(4), fields["placed"])
	case <-time.After(3 * time.Second):
		t.Fatal("событие не доставлено")
	}
	assert.Equal(t, uint64(1), bus.Metrics().Published)
}
