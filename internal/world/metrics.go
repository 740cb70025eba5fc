package world

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics: Prometheus-метрики движка
type Metrics struct {
	rebuilds        *prometheus.CounterVec
	rebuildSeconds  *prometheus.HistogramVec
	vertices        *prometheus.HistogramVec
	staleDiscards   prometheus.Counter
	uploads         prometheus.Counter
	userEdits       prometheus.Counter
	generatedChunks prometheus.Counter
	queueDepth      *prometheus.GaugeVec
	handoffDepth    *prometheus.GaugeVec
}

// NewMetrics создаёт и регистрирует метрики. reg == nil - глобальный регистр.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "rebuilds_total",
			Help:      "Перестроенные меши по классу приоритета.",
		}, []string{"priority"}),
		rebuildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxel",
			Name:      "rebuild_duration_seconds",
			Help:      "Время построения меша одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"queue"}),
		vertices: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxel",
			Name:      "mesh_vertices",
			Help:      "Число вершин в меше чанка.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 12),
		}, []string{"stream"}),
		staleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "stale_meshes_discarded_total",
			Help:      "Готовые меши, отброшенные после переназначения слота.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "mesh_uploads_total",
			Help:      "Меши, загруженные потоком рендера.",
		}),
		userEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "user_edits_total",
			Help:      "Правки блоков игроком.",
		}),
		generatedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "generated_chunks_total",
			Help:      "Чанки, заполненные структурами.",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "rebuild_queue_depth",
			Help:      "Длина очередей перестройки.",
		}, []string{"priority"}),
		handoffDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "handoff_queue_depth",
			Help:      "Готовые меши, ожидающие загрузки.",
		}, []string{"queue"}),
	}

	reg.MustRegister(m.rebuilds, m.rebuildSeconds, m.vertices, m.staleDiscards,
		m.uploads, m.userEdits, m.generatedChunks, m.queueDepth, m.handoffDepth)
	return m
}

// ObserveRebuild вызывается мешером после каждой перестройки
func (m *Metrics) ObserveRebuild(userPower bool, elapsed time.Duration, solid, transparent int) {
	queueName := "background"
	if userPower {
		queueName = "user"
	}
	m.rebuildSeconds.WithLabelValues(queueName).Observe(elapsed.Seconds())
	m.vertices.WithLabelValues("solid").Observe(float64(solid))
	m.vertices.WithLabelValues("transparent").Observe(float64(transparent))
}
