package villager

import (
	"math"
	"math/rand"

	"github.com/annel0/peach-village/internal/terrain"
	"github.com/annel0/peach-village/internal/util"
	"github.com/annel0/peach-village/internal/vec"
	"github.com/annel0/peach-village/internal/world"
)

// Состав деревни
const (
	PopulationSize = 24
	SeatedCount    = 4
	FarmerCount    = 8
	SpawnSpread    = 60.0
	SeatRadius     = 1.1

	// spawnBankMargin и spawnBankOffset выталкивают появившихся у реки на берег
	spawnBankMargin = 2.0
	spawnBankOffset = 3.0
	seedSpan        = 1000.0
)

// seatYaws повороты сидящих лицом к столу: восток, юг, запад, север
var seatYaws = [SeatedCount]float64{-math.Pi / 2, math.Pi, math.Pi / 2, 0}

type palette struct {
	robe, pants world.Color
}

var palettes = []palette{
	{world.ColorClothBlue, "#1565C0"},
	{world.ColorClothGrey, "#455A64"},
	{world.ColorClothRed, "#C62828"},
	{world.ColorWoodDark, "#3E2723"},
	{"#7B1FA2", "#4A148C"},
	{"#FBC02D", "#F57F17"},
}

// RoleFor возвращает роль по порядковому номеру жителя
func RoleFor(i int) Role {
	switch {
	case i < SeatedCount:
		return Sitting
	case i < SeatedCount+FarmerCount:
		return Farmer
	default:
		return Walker
	}
}

// SeatPosition место i-го игрока за столом
func SeatPosition(i int) (vec.Vec3, float64) {
	angle := float64(i) / SeatedCount * 2 * math.Pi
	pos := world.MahjongTable.Add(vec.Vec3{X: math.Cos(angle) * SeatRadius, Z: math.Sin(angle) * SeatRadius})
	return pos, seatYaws[i%SeatedCount]
}

// SafeSpawn сдвигает точку появления на берег, если она слишком близко к реке
func SafeSpawn(x, z float64) (float64, float64) {
	if terrain.InHazardBand(x, z, spawnBankMargin) {
		z = terrain.RiverZ(x) + terrain.RiverWidth + spawnBankOffset
	}
	return x, z
}

// SpawnPopulation создаёт жителей деревни детерминированно по сиду
func SpawnPopulation(seed int64) []*Villager {
	rng := util.NewSeeded(seed)
	out := make([]*Villager, 0, PopulationSize)

	for i := 0; i < PopulationSize; i++ {
		role := RoleFor(i)
		look := randomLook(rng)
		phase := rng.Float64() * seedSpan
		heading := vec.Vec2Float{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5}

		var v *Villager
		if role == Sitting {
			pos, yaw := SeatPosition(i)
			v = New(role, pos, yaw, heading, phase)
			look.Robe = world.ColorClothBlue
			if i%2 != 0 {
				look.Robe = world.ColorWoodDark
			}
		} else {
			x, z := SafeSpawn(util.Centered(rng, SpawnSpread), util.Centered(rng, SpawnSpread))
			v = New(role, vec.Vec3{X: x, Z: z}, 0, heading, phase)
		}
		v.Look = look
		out = append(out, v)
	}
	return out
}

func randomLook(rng *rand.Rand) Appearance {
	p := palettes[rng.Intn(len(palettes))]
	look := Appearance{Robe: p.robe, Pants: p.pants, Scale: 0.9 + rng.Float64()*0.2}

	switch {
	case rng.Float64() > 0.8:
		look.Hair = "none"
	case rng.Float64() > 0.5:
		look.Hair = "bun"
	default:
		look.Hair = "long"
	}
	switch {
	case rng.Float64() > 0.7:
		look.Hat = "straw"
	case rng.Float64() > 0.95:
		look.Hat = "official"
	default:
		look.Hat = "none"
	}
	return look
}

// Crowd все жители деревни
type Crowd struct {
	villagers []*Villager
	rng       *rand.Rand
}

// NewCrowd оборачивает жителей; rng используется для разворотов пешеходов
func NewCrowd(villagers []*Villager, rng *rand.Rand) *Crowd {
	return &Crowd{villagers: villagers, rng: rng}
}

// Update продвигает всех жителей. Жители не делят изменяемое состояние.
func (c *Crowd) Update(dt, elapsed float64, camera vec.Vec3) {
	for _, v := range c.villagers {
		v.Update(dt, elapsed, camera, c.rng)
	}
}

// Len число жителей
func (c *Crowd) Len() int {
	return len(c.villagers)
}

// Snapshot копии жителей для кадра
func (c *Crowd) Snapshot() []Villager {
	out := make([]Villager, len(c.villagers))
	for i, v := range c.villagers {
		out[i] = *v
	}
	return out
}

// CountByRole число жителей каждой роли
func (c *Crowd) CountByRole() map[Role]int {
	counts := make(map[Role]int, 3)
	for _, v := range c.villagers {
		counts[v.Role]++
	}
	return counts
}
