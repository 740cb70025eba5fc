package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	nats "github.com/nats-io/nats.go"
)

// NATSConfig содержит параметры подключения шины к NATS.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"` // события уходят в <prefix>.<type>
	Stream        string        `yaml:"stream"`         // пусто - обычный pub/sub без JetStream
	Retention     time.Duration `yaml:"retention"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// NATSBus реализует EventBus поверх NATS. Если задан Stream, публикация
// идёт через JetStream и события переживают перезапуск подписчиков.
type NATSBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	prefix string

	published uint64
	consumed  uint64
	dropped   uint64
}

// NewNATSBus подключается к NATS и при необходимости создаёт стрим.
func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "voxel.events"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn("NATS отключён: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS переподключён к %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	bus := &NATSBus{nc: nc, prefix: cfg.SubjectPrefix}
	if cfg.Stream == "" {
		logging.Info("📡 Шина событий NATS: %s (%s.*)", cfg.URL, cfg.SubjectPrefix)
		return bus, nil
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if _, err := js.StreamInfo(cfg.Stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      cfg.Stream,
			Subjects:  []string{cfg.SubjectPrefix + ".*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    cfg.Retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Drain()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}
	bus.js = js

	logging.Info("📡 Шина событий NATS JetStream: %s stream=%s", cfg.URL, cfg.Stream)
	return bus, nil
}

func (nb *NATSBus) subject(eventType string) string {
	return nb.prefix + "." + eventType
}

// Publish сериализует Envelope в JSON и публикует в <prefix>.<type>.
func (nb *NATSBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		atomic.AddUint64(&nb.dropped, 1)
		return err
	}

	if nb.js != nil {
		_, err = nb.js.Publish(nb.subject(ev.EventType), data, nats.Context(ctx))
	} else {
		err = nb.nc.Publish(nb.subject(ev.EventType), data)
	}
	if err != nil {
		atomic.AddUint64(&nb.dropped, 1)
		return err
	}
	atomic.AddUint64(&nb.published, 1)
	return nil
}

// Subscribe подписывается на <prefix>.<type> (или на все типы) и
// дофильтровывает источники на стороне клиента.
func (nb *NATSBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := nb.prefix + ".*"
	if len(f.Types) == 1 {
		subj = nb.subject(f.Types[0])
	}

	handle := func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&nb.dropped, 1)
			return
		}
		if !matchFilter(&ev, f) {
			return
		}
		h(ctx, &ev)
		atomic.AddUint64(&nb.consumed, 1)
	}

	var (
		sub *nats.Subscription
		err error
	)
	if nb.js != nil {
		sub, err = nb.js.Subscribe(subj, func(msg *nats.Msg) {
			handle(msg)
			_ = msg.Ack()
		}, nats.ManualAck(), nats.DeliverNew(), nats.AckWait(30*time.Second))
	} else {
		sub, err = nb.nc.Subscribe(subj, handle)
	}
	if err != nil {
		return nil, err
	}

	ns := &natsSub{s: sub}
	go func() {
		<-ctx.Done()
		ns.Unsubscribe()
	}()
	return ns, nil
}

// Metrics возвращает текущие счётчики.
func (nb *NATSBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&nb.published),
		Consumed:  atomic.LoadUint64(&nb.consumed),
		Dropped:   atomic.LoadUint64(&nb.dropped),
	}
}

// Close дожидается отправки буфера и закрывает соединение.
func (nb *NATSBus) Close() error {
	return nb.nc.Drain()
}

type natsSub struct {
	s *nats.Subscription
}

func (n *natsSub) Unsubscribe() {
	if n.s.IsValid() {
		_ = n.s.Unsubscribe()
	}
}
