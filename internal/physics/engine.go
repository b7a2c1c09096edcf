// Package physics задаёт контракт физического движка для вокселей
// и простую встроенную реализацию на точечных телах.
package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annel0/peach-village/internal/vec"
)

// Ошибки движка
var (
	ErrUnknownBody   = errors.New("physics: unknown body")
	ErrDuplicateBody = errors.New("physics: body already exists")
)

// Mode режим участия тела в симуляции
type Mode int

const (
	// Static тело неподвижно и не интегрируется
	Static Mode = iota
	// Kinematic положение задаётся снаружи через Teleport
	Kinematic
	// Dynamic положение принадлежит движку
	Dynamic
)

// String возвращает строковое представление режима
func (m Mode) String() string {
	switch m {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Box ограничивающий параллелепипед тела (половины размеров)
type Box struct {
	HalfExtents vec.Vec3
}

// NewCube создаёт куб с ребром size
func NewCube(size float64) Box {
	h := size / 2
	return Box{HalfExtents: vec.Vec3{X: h, Y: h, Z: h}}
}

// Upright ориентация без поворота
func Upright() mgl64.Quat {
	return mgl64.QuatIdent()
}

// Engine контракт физического движка, которым пользуется координатор перестройки.
// Пока тело в режиме Dynamic, его положением владеет движок; в остальных режимах
// владелец тот, кто вызывает Teleport.
type Engine interface {
	AddBody(id uuid.UUID, pos vec.Vec3, box Box, mode Mode) error
	SetMode(id uuid.UUID, mode Mode) error
	ApplyImpulse(id uuid.UUID, impulse vec.Vec3) error
	// Freeze обнуляет линейную и угловую скорость
	Freeze(id uuid.UUID) error
	Teleport(id uuid.UUID, pos vec.Vec3, rot mgl64.Quat) error
	Position(id uuid.UUID) (vec.Vec3, error)
	Rotation(id uuid.UUID) (mgl64.Quat, error)
	Step(dt float64)
}
