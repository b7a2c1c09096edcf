package eventbus

import (
	"context"
	"time"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/rebuild"
)

// Приоритеты событий деревни
const (
	PriorityTransition = 6
	PriorityReport     = 3
	PriorityClock      = 2
)

// publishTimeout ограничивает ожидание места в буфере шины
const publishTimeout = 50 * time.Millisecond

// PhaseChangedPayload полезная нагрузка события PhaseChanged
type PhaseChangedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Shape    string `json:"shape"`
	Voxels   int    `json:"voxels"`
	Fallback bool   `json:"fallback"`
}

// GenerationDonePayload полезная нагрузка события GenerationDone
type GenerationDonePayload struct {
	Requested  string `json:"requested"`
	Produced   string `json:"produced"`
	Blocks     int    `json:"blocks"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Fallback   bool   `json:"fallback"`
}

// TimeChangedPayload полезная нагрузка события TimeChanged
type TimeChangedPayload struct {
	Hour    float64 `json:"hour"`
	Band    string  `json:"band"`
	Lantern bool    `json:"lanterns_lit"`
	Reason  string  `json:"reason"`
}

// RebuildPublisher переводит уведомления координатора в события шины.
// Реализует rebuild.Observer.
type RebuildPublisher struct {
	bus    EventBus
	source string
	logger *logging.Logger
}

var _ rebuild.Observer = (*RebuildPublisher)(nil)

// NewRebuildPublisher создаёт издателя событий перестройки
func NewRebuildPublisher(bus EventBus, source string, logger *logging.Logger) *RebuildPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &RebuildPublisher{bus: bus, source: source, logger: logger}
}

// PhaseChanged публикует смену фазы
func (p *RebuildPublisher) PhaseChanged(t rebuild.Transition) {
	p.publish(TypePhaseChanged, PriorityTransition, PhaseChangedPayload{
		From:     t.From.String(),
		To:       t.To.String(),
		Shape:    t.ShapeName,
		Voxels:   t.Voxels,
		Fallback: t.Fallback,
	})
}

// GenerationDone публикует итог генерации
func (p *RebuildPublisher) GenerationDone(r rebuild.GenerationReport) {
	payload := GenerationDonePayload{
		Requested:  r.Requested,
		Produced:   r.Produced,
		Blocks:     r.Blocks,
		DurationMs: r.Duration.Milliseconds(),
		Fallback:   r.Fallback,
	}
	if r.Err != nil {
		payload.Error = r.Err.Error()
	}
	p.publish(TypeGenerationDone, PriorityReport, payload)
}

// TimeChanged публикует ручное изменение времени суток
func (p *RebuildPublisher) TimeChanged(payload TimeChangedPayload) {
	p.publish(TypeTimeChanged, PriorityClock, payload)
}

func (p *RebuildPublisher) publish(eventType string, priority int, payload interface{}) {
	ev, err := NewEnvelope(p.source, eventType, priority, payload)
	if err != nil {
		p.logger.Warn("⚠️ Не удалось сериализовать событие %s: %v", eventType, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Warn("⚠️ Событие %s не опубликовано: %v", eventType, err)
	}
}
