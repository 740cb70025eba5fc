package eventbus

import (
	"context"

	"github.com/annel0/voxel-engine/internal/logging"
)

// StartLoggingListener пишет каждое событие шины в DEBUG-лог.
// Полезная нагрузка раскрывается, если это protobuf Struct.
func StartLoggingListener(bus EventBus) error {
	_, err := bus.Subscribe(context.Background(), Filter{}, func(_ context.Context, ev *Envelope) {
		if fields, err := DecodePayload(ev.Payload); err == nil && len(fields) > 0 {
			logging.Debug("[EventBus] %s src=%s prio=%d %v", ev.EventType, ev.Source, ev.Priority, fields)
			return
		}
		logging.Debug("[EventBus] %s src=%s prio=%d size=%dB", ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return err
	}
	logging.Info("🪵 Логирование событий шины включено")
	return nil
}
