package rebuild

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annel0/peach-village/internal/physics"
	"github.com/annel0/peach-village/internal/vec"
	"github.com/annel0/peach-village/internal/world"
)

// Voxel активный воксель. Идентичность выдаётся при создании и не меняется
// между перестройками; положение хранится в физическом движке.
type Voxel struct {
	ID     uuid.UUID
	Color  world.Color
	Mode   physics.Mode
	Locked bool
	Target *world.Block
}

// VoxelState снимок вокселя для кадра
type VoxelState struct {
	ID     uuid.UUID    `json:"id"`
	Pos    vec.Vec3     `json:"pos"`
	Rot    [4]float64   `json:"rot"` // w, x, y, z
	Color  world.Color  `json:"color"`
	Mode   physics.Mode `json:"mode"`
	Locked bool         `json:"locked"`
}

func quatArray(q mgl64.Quat) [4]float64 {
	return [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()}
}

// Assignment упорядоченное соответствие вокселей блокам новой формы
type Assignment struct {
	order   []uuid.UUID
	targets map[uuid.UUID]world.Block
}

func newAssignment(capacity int) *Assignment {
	return &Assignment{
		order:   make([]uuid.UUID, 0, capacity),
		targets: make(map[uuid.UUID]world.Block, capacity),
	}
}

func (a *Assignment) assign(id uuid.UUID, b world.Block) {
	if _, exists := a.targets[id]; !exists {
		a.order = append(a.order, id)
	}
	a.targets[id] = b
}

// Len число назначенных вокселей
func (a *Assignment) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}

// Target возвращает блок, назначенный вокселю
func (a *Assignment) Target(id uuid.UUID) (world.Block, bool) {
	if a == nil {
		return world.Block{}, false
	}
	b, ok := a.targets[id]
	return b, ok
}

// IDs возвращает воксели в порядке назначения
func (a *Assignment) IDs() []uuid.UUID {
	if a == nil {
		return nil
	}
	return append([]uuid.UUID(nil), a.order...)
}

// Blocks возвращает назначенные блоки в порядке назначения
func (a *Assignment) Blocks() []world.Block {
	if a == nil {
		return nil
	}
	out := make([]world.Block, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.targets[id])
	}
	return out
}
