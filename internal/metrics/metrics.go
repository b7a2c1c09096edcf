// Package metrics собирает Prometheus-метрики симуляции деревни.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/annel0/peach-village/internal/rebuild"
)

const namespace = "village"

// Collector метрики симуляции. Реализует rebuild.Observer.
type Collector struct {
	phase         prometheus.Gauge
	transitions   *prometheus.CounterVec
	generations   *prometheus.CounterVec
	genDuration   prometheus.Histogram
	fallbacks     prometheus.Counter
	voxels        prometheus.Gauge
	lockedVoxels  prometheus.Gauge
	villagers     *prometheus.GaugeVec
	tickDuration  prometheus.Histogram
	ticks         prometheus.Counter
	timeOfDay     prometheus.Gauge
	commands      *prometheus.CounterVec
	streamClients prometheus.Gauge
}

var _ rebuild.Observer = (*Collector)(nil)

// New регистрирует метрики в reg
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		phase: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "world_phase",
			Help:      "Текущая фаза мира: 0=idle, 1=exploding, 2=rebuilding.",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Число смен фазы мира.",
		}, []string{"from", "to"}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Завершённые запросы генерации форм.",
		}, []string{"result"}),
		genDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Длительность генерации формы.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		fallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Сколько раз вместо сгенерированной формы использована запасная.",
		}),
		voxels: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voxels",
			Help:      "Размер набора активных вокселей.",
		}),
		lockedVoxels: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voxels_locked",
			Help:      "Воксели, достигшие цели в текущей перестройке.",
		}),
		villagers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "villagers",
			Help:      "Жители по ролям.",
		}, []string{"role"}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Время обработки одного тика.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Выполненные тики симуляции.",
		}),
		timeOfDay: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "time_of_day_hours",
			Help:      "Текущее время суток.",
		}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Принятые команды по типу и результату.",
		}, []string{"kind", "accepted"}),
		streamClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Подключённые websocket-клиенты.",
		}),
	}
}

// PhaseChanged учитывает смену фазы
func (c *Collector) PhaseChanged(t rebuild.Transition) {
	c.phase.Set(float64(t.To))
	c.transitions.WithLabelValues(t.From.String(), t.To.String()).Inc()
	c.voxels.Set(float64(t.Voxels))
}

// GenerationDone учитывает итог генерации
func (c *Collector) GenerationDone(r rebuild.GenerationReport) {
	result := "ok"
	if r.Fallback {
		result = "fallback"
		c.fallbacks.Inc()
	}
	c.generations.WithLabelValues(result).Inc()
	c.genDuration.Observe(r.Duration.Seconds())
}

// GeneratorFallback учитывает отказ внешнего генератора, скрытый обёрткой
func (c *Collector) GeneratorFallback(error) {
	c.fallbacks.Inc()
}

// ObserveTick учитывает длительность тика
func (c *Collector) ObserveTick(d time.Duration) {
	c.ticks.Inc()
	c.tickDuration.Observe(d.Seconds())
}

// SetWorld обновляет показатели мира после тика
func (c *Collector) SetWorld(voxels, locked int, hour float64) {
	c.voxels.Set(float64(voxels))
	c.lockedVoxels.Set(float64(locked))
	c.timeOfDay.Set(hour)
}

// SetVillagers обновляет численность жителей по ролям
func (c *Collector) SetVillagers(byRole map[string]int) {
	for role, n := range byRole {
		c.villagers.WithLabelValues(role).Set(float64(n))
	}
}

// CommandHandled учитывает команду
func (c *Collector) CommandHandled(kind string, accepted bool) {
	label := "false"
	if accepted {
		label = "true"
	}
	c.commands.WithLabelValues(kind, label).Inc()
}

// StreamClients обновляет число websocket-клиентов
func (c *Collector) StreamClients(n int) {
	c.streamClients.Set(float64(n))
}
