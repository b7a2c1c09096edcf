package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annel0/peach-village/internal/terrain"
	"github.com/annel0/peach-village/internal/vec"
)

// Параметры материала вокселя
const (
	Gravity     = 9.81
	Restitution = 0.3
	Friction    = 0.5
	SleepSpeed  = 0.5 // Ниже этой скорости тело начинает засыпать
	SleepTime   = 0.5 // Сколько секунд тело должно быть медленным
	Mass        = 1.0

	groundDrag    = 10.0 // Усиление трения о поверхность
	bounceCutoff  = 1.0  // Отскок слабее этого гасится полностью
	spinFromPush  = 0.5  // Доля импульса, уходящая во вращение
	angularDamp   = 2.0
	maxStepLength = 0.1 // Ограничение шага интегрирования
)

// SurfaceFunc возвращает высоту твёрдой поверхности в точке (x, z)
type SurfaceFunc func(x, z float64) float64

type body struct {
	pos      vec.Vec3
	vel      vec.Vec3
	angVel   vec.Vec3
	rot      mgl64.Quat
	box      Box
	mode     Mode
	sleeping bool
	slowFor  float64
}

// PointWorld простая реализация Engine: тела без взаимных столкновений,
// гравитация и контакт с поверхностью рельефа.
type PointWorld struct {
	bodies  map[uuid.UUID]*body
	order   []uuid.UUID
	surface SurfaceFunc
}

// NewPointWorld создаёт мир с поверхностью долины
func NewPointWorld() *PointWorld {
	return NewPointWorldWithSurface(terrain.SolidSurface)
}

// NewPointWorldWithSurface создаёт мир с произвольной поверхностью
func NewPointWorldWithSurface(surface SurfaceFunc) *PointWorld {
	return &PointWorld{
		bodies:  make(map[uuid.UUID]*body),
		surface: surface,
	}
}

func (w *PointWorld) get(id uuid.UUID) (*body, error) {
	b, ok := w.bodies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	return b, nil
}

// AddBody регистрирует тело
func (w *PointWorld) AddBody(id uuid.UUID, pos vec.Vec3, box Box, mode Mode) error {
	if _, exists := w.bodies[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, id)
	}
	w.bodies[id] = &body{pos: pos, rot: Upright(), box: box, mode: mode, sleeping: mode != Dynamic}
	w.order = append(w.order, id)
	return nil
}

// SetMode меняет режим тела. Переход в Dynamic будит тело.
func (w *PointWorld) SetMode(id uuid.UUID, mode Mode) error {
	b, err := w.get(id)
	if err != nil {
		return err
	}
	b.mode = mode
	if mode == Dynamic {
		b.sleeping = false
		b.slowFor = 0
	}
	return nil
}

// ApplyImpulse добавляет импульс и будит тело
func (w *PointWorld) ApplyImpulse(id uuid.UUID, impulse vec.Vec3) error {
	b, err := w.get(id)
	if err != nil {
		return err
	}
	b.vel = b.vel.Add(impulse.Mul(1 / Mass))
	b.angVel = b.angVel.Add(vec.Vec3{X: impulse.Z, Y: 0, Z: -impulse.X}.Mul(spinFromPush))
	b.sleeping = false
	b.slowFor = 0
	return nil
}

// Freeze обнуляет скорости
func (w *PointWorld) Freeze(id uuid.UUID) error {
	b, err := w.get(id)
	if err != nil {
		return err
	}
	b.vel = vec.Zero3
	b.angVel = vec.Zero3
	b.sleeping = true
	return nil
}

// Teleport задаёт положение и ориентацию напрямую
func (w *PointWorld) Teleport(id uuid.UUID, pos vec.Vec3, rot mgl64.Quat) error {
	b, err := w.get(id)
	if err != nil {
		return err
	}
	b.pos = pos
	b.rot = rot.Normalize()
	return nil
}

// Position возвращает текущее положение тела
func (w *PointWorld) Position(id uuid.UUID) (vec.Vec3, error) {
	b, err := w.get(id)
	if err != nil {
		return vec.Zero3, err
	}
	return b.pos, nil
}

// Rotation возвращает текущую ориентацию тела
func (w *PointWorld) Rotation(id uuid.UUID) (mgl64.Quat, error) {
	b, err := w.get(id)
	if err != nil {
		return mgl64.QuatIdent(), err
	}
	return b.rot, nil
}

// Velocity возвращает линейную скорость тела
func (w *PointWorld) Velocity(id uuid.UUID) (vec.Vec3, error) {
	b, err := w.get(id)
	if err != nil {
		return vec.Zero3, err
	}
	return b.vel, nil
}

// Mode возвращает режим тела
func (w *PointWorld) Mode(id uuid.UUID) (Mode, error) {
	b, err := w.get(id)
	if err != nil {
		return Static, err
	}
	return b.mode, nil
}

// Sleeping сообщает, заснуло ли тело
func (w *PointWorld) Sleeping(id uuid.UUID) bool {
	b, ok := w.bodies[id]
	return ok && b.sleeping
}

// Len возвращает число тел
func (w *PointWorld) Len() int {
	return len(w.bodies)
}

// Step продвигает динамические тела на dt секунд
func (w *PointWorld) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for dt > 0 {
		h := math.Min(dt, maxStepLength)
		for _, id := range w.order {
			b := w.bodies[id]
			if b.mode != Dynamic || b.sleeping {
				continue
			}
			w.integrate(b, h)
		}
		dt -= h
	}
}

func (w *PointWorld) integrate(b *body, dt float64) {
	b.vel.Y -= Gravity * dt
	b.pos = b.pos.Add(b.vel.Mul(dt))

	if spin := b.angVel.Length(); spin > 1e-9 {
		axis := mgl64.Vec3{b.angVel.X / spin, b.angVel.Y / spin, b.angVel.Z / spin}
		b.rot = mgl64.QuatRotate(spin*dt, axis).Mul(b.rot).Normalize()
	}
	b.angVel = b.angVel.Mul(math.Max(0, 1-angularDamp*dt))

	floor := w.surface(b.pos.X, b.pos.Z) + b.box.HalfExtents.Y
	if b.pos.Y <= floor {
		b.pos.Y = floor
		if b.vel.Y < 0 {
			b.vel.Y = -b.vel.Y * Restitution
			if b.vel.Y < bounceCutoff {
				b.vel.Y = 0
			}
		}
		damp := math.Max(0, 1-Friction*groundDrag*dt)
		b.vel.X *= damp
		b.vel.Z *= damp
		b.angVel = b.angVel.Mul(damp)
	}

	if b.vel.Length() < SleepSpeed && b.pos.Y <= floor+1e-6 {
		b.slowFor += dt
		if b.slowFor >= SleepTime {
			b.sleeping = true
			b.vel = vec.Zero3
			b.angVel = vec.Zero3
		}
	} else {
		b.slowFor = 0
	}
}
