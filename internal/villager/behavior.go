package villager

import (
	"math/rand"

	"github.com/annel0/peach-village/internal/terrain"
	"github.com/annel0/peach-village/internal/vec"
)

// Behavior перемещение жителя в зависимости от роли
type Behavior interface {
	Move(v *Villager, dt, ground float64, rng *rand.Rand)
}

type walkerBehavior struct{}
type stationaryBehavior struct{}

var (
	walking    Behavior = walkerBehavior{}
	stationary Behavior = stationaryBehavior{}
)

func behaviorFor(role Role) Behavior {
	if role == Walker {
		return walking
	}
	return stationary
}

// Move делает шаг вдоль heading. Шаг в воду вне моста разворачивает
// пешехода с небольшим случайным отклонением, и в этот тик он стоит.
// Обход действует, только пока житель на суше или на мосту.
func (walkerBehavior) Move(v *Villager, dt, ground float64, rng *rand.Rand) {
	step := v.Heading.Mul(WalkSpeed * dt)
	nextX := v.Pos.X + step.X
	nextZ := v.Pos.Z + step.Y

	if terrain.IsHazard(nextX, nextZ) && ground >= 0 {
		h := v.Heading.Neg()
		h.X += (rng.Float64() - 0.5) * HeadingJitter
		h = h.Normalized()
		if h.Length() == 0 {
			h = vec.Vec2Float{Y: defaultHeading}
		}
		v.Heading = h
	} else {
		v.Pos.X = nextX
		v.Pos.Z = nextZ
	}

	if terrain.OutOfBounds(v.Pos.X, v.Pos.Z) {
		v.Heading = v.Heading.Neg()
	}

	v.Yaw = headingYaw(v.Heading)
}

// Move у фермеров и сидящих не меняет положение и поворот
func (stationaryBehavior) Move(v *Villager, dt, ground float64, rng *rand.Rand) {}
