package sim

import (
	"github.com/annel0/peach-village/internal/clock"
	"github.com/annel0/peach-village/internal/player"
	"github.com/annel0/peach-village/internal/rebuild"
	"github.com/annel0/peach-village/internal/villager"
	"github.com/annel0/peach-village/internal/world"
)

// Frame неизменяемая проекция состояния мира после тика.
// Потребители кадров не должны менять его содержимое.
type Frame struct {
	Tick      uint64               `json:"tick"`
	Elapsed   float64              `json:"elapsed"`
	Status    Status               `json:"status"`
	Lighting  clock.Lighting       `json:"lighting"`
	Voxels    []rebuild.VoxelState `json:"voxels"`
	Villagers []villager.Villager  `json:"villagers"`
	Player    player.Avatar        `json:"player"`
	Lamps     []world.Lamp         `json:"lamps"`
}

// Status сводка мира без тяжёлых массивов
type Status struct {
	Phase       string         `json:"phase"`
	Shape       string         `json:"shape"`
	Pending     bool           `json:"pending"`
	Voxels      int            `json:"voxels"`
	Locked      int            `json:"locked"`
	Hour        float64        `json:"hour"`
	Band        clock.Band     `json:"band"`
	LanternsLit bool           `json:"lanterns_lit"`
	Villagers   map[string]int `json:"villagers"`
}

// FrameSink потребитель кадров. Вызывается из потока тиков и не должен блокировать.
type FrameSink interface {
	PublishFrame(f *Frame)
}

// FrameSinkFunc адаптер функции к FrameSink
type FrameSinkFunc func(f *Frame)

// PublishFrame вызывает fn(f)
func (fn FrameSinkFunc) PublishFrame(f *Frame) { fn(f) }
