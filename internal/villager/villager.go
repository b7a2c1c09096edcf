// Package villager реализует автономных жителей деревни: навигацию по долине
// с обходом реки, гравитацию и вычисление позы по роли.
package villager

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/annel0/peach-village/internal/terrain"
	"github.com/annel0/peach-village/internal/vec"
	"github.com/annel0/peach-village/internal/world"
)

// Role поведенческая роль жителя
type Role int

const (
	Walker Role = iota
	Farmer
	Sitting
)

// String возвращает строковое представление роли
func (r Role) String() string {
	switch r {
	case Walker:
		return "walker"
	case Farmer:
		return "farmer"
	case Sitting:
		return "sitting"
	default:
		return "unknown"
	}
}

// Константы поведения
const (
	WalkSpeed      = 2.0
	Gravity        = 9.8
	FallThreshold  = -0.5
	LODDistance    = 40.0
	HipHeight      = 0.6
	SeatHeight     = 0.4
	HeadingJitter  = 1.0 // Ширина разброса при развороте
	defaultHeading = 1.0
)

// Appearance внешний вид жителя. На логику не влияет.
type Appearance struct {
	Robe  world.Color `json:"robe"`
	Pants world.Color `json:"pants"`
	Hair  string      `json:"hair"`
	Hat   string      `json:"hat"`
	Scale float64     `json:"scale"`
}

// Villager автономный житель
type Villager struct {
	ID       uuid.UUID     `json:"id"`
	Role     Role          `json:"role"`
	Pos      vec.Vec3      `json:"pos"`
	Yaw      float64       `json:"yaw"`
	Seed     float64       `json:"-"`
	Heading  vec.Vec2Float `json:"-"`
	VelY     float64       `json:"-"`
	Ground   float64       `json:"ground"`
	Flailing bool          `json:"flailing"`
	Culled   bool          `json:"culled"`
	Pose     Pose          `json:"pose"`
	Look     Appearance    `json:"look"`
}

// New создаёт жителя. Для пешехода heading нормализуется.
func New(role Role, pos vec.Vec3, yaw float64, heading vec.Vec2Float, seed float64) *Villager {
	v := &Villager{
		ID:      uuid.New(),
		Role:    role,
		Pos:     pos,
		Yaw:     yaw,
		Seed:    seed,
		Heading: heading.Normalized(),
		Pose:    RestPose(),
		Look:    Appearance{Robe: world.ColorClothBlue, Pants: world.ColorClothGrey, Scale: 1},
	}
	if v.Heading.Length() == 0 {
		v.Heading = vec.Vec2Float{Y: defaultHeading}
	}
	if role == Walker {
		v.Yaw = headingYaw(v.Heading)
	}
	return v
}

// headingYaw угол поворота вокруг Y, при котором житель смотрит вдоль heading
func headingYaw(h vec.Vec2Float) float64 {
	return math.Atan2(h.X, h.Y)
}

// Update продвигает жителя на dt секунд. elapsed это время симуляции,
// camera задаёт точку наблюдения для отсечения позы по дальности.
func (v *Villager) Update(dt, elapsed float64, camera vec.Vec3, rng *rand.Rand) {
	ground := terrain.GroundHeight(v.Pos.X, v.Pos.Z)
	v.Ground = ground

	behaviorFor(v.Role).Move(v, dt, ground, rng)
	v.applyGravity(dt, ground)

	v.Flailing = v.Pos.Y < FallThreshold || ground == terrain.RiverSinkHeight

	// Дальние жители продолжают двигаться, но сохраняют прежнюю позу
	if v.Pos.DistanceTo(camera) > LODDistance {
		v.Culled = true
		return
	}
	v.Culled = false
	v.Pose = DerivePose(v.Role, elapsed+v.Seed, v.Flailing)
}

// applyGravity тянет жителя к поверхности и мгновенно поднимает на более высокую
func (v *Villager) applyGravity(dt, ground float64) {
	switch {
	case v.Pos.Y > ground:
		v.VelY -= Gravity * dt
		v.Pos.Y += v.VelY * dt
		if v.Pos.Y < ground {
			v.Pos.Y = ground
			v.VelY = 0
		}
	case v.Pos.Y < ground:
		v.Pos.Y = ground
		v.VelY = 0
	}
}
