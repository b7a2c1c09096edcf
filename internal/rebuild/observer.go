package rebuild

import "time"

// Transition описывает смену фазы
type Transition struct {
	From      Phase
	To        Phase
	ShapeName string
	Voxels    int
	Fallback  bool
}

// GenerationReport итог одного запроса генерации
type GenerationReport struct {
	Requested string
	Produced  string
	Blocks    int
	Duration  time.Duration
	Err       error
	Fallback  bool
}

// Observer получает уведомления координатора. Вызывается из потока тиков.
type Observer interface {
	PhaseChanged(Transition)
	GenerationDone(GenerationReport)
}

// NopObserver ничего не делает
type NopObserver struct{}

func (NopObserver) PhaseChanged(Transition)         {}
func (NopObserver) GenerationDone(GenerationReport) {}

// Observers рассылает уведомления нескольким наблюдателям
type Observers []Observer

func (o Observers) PhaseChanged(t Transition) {
	for _, obs := range o {
		obs.PhaseChanged(t)
	}
}

func (o Observers) GenerationDone(r GenerationReport) {
	for _, obs := range o {
		obs.GenerationDone(r)
	}
}
