package world

import (
	"math"

	"github.com/annel0/peach-village/internal/terrain"
	"github.com/annel0/peach-village/internal/util"
)

const (
	// VillageName имя стартовой формы
	VillageName = "Procedural Peach Blossom Village"
	// FallbackName имя запасной формы
	FallbackName = "Small Shrine"
	// FallbackSeed фиксированный сид запасной формы
	FallbackSeed int64 = 1

	// HouseCount число кандидатов на постройку
	HouseCount = 6
	// VillageMinRadius ближняя граница кольца построек
	VillageMinRadius = 25.0
	// VillageRadiusBand ширина кольца построек
	VillageRadiusBand = 20.0
	// VillageAngleJitter максимальный сдвиг угла кандидата
	VillageAngleJitter = 0.5
	// RiverClearance дополнительный отступ постройки от полосы реки
	RiverClearance = 8.0
)

// Placement позиция одной постройки деревни
type Placement struct {
	Index    int
	X, Z     float64
	Rotation float64
	Seed     int64
}

// PlanVillage раскладывает кандидатов по кольцу вокруг центра.
// Кандидат в опасной полосе реки пропускается без повторной попытки,
// поэтому построек может оказаться меньше HouseCount.
func PlanVillage(seed int64) []Placement {
	rng := util.NewSeeded(seed)
	placements := make([]Placement, 0, HouseCount)

	for i := 0; i < HouseCount; i++ {
		angle := float64(i)/HouseCount*2*math.Pi + rng.Float64()*VillageAngleJitter
		dist := VillageMinRadius + rng.Float64()*VillageRadiusBand

		x := math.Cos(angle) * dist
		z := math.Sin(angle) * dist
		if terrain.InHazardBand(x, z, RiverClearance) {
			continue
		}

		placements = append(placements, Placement{
			Index:    i,
			X:        x,
			Z:        z,
			Rotation: angle + math.Pi/2, // фасадом к центру
			Seed:     util.DeriveSeed(seed, i),
		})
	}
	return placements
}

// BuildVillage строит стартовую форму деревни
func BuildVillage(seed int64) Shape {
	var blocks []Block
	for _, p := range PlanVillage(seed) {
		blocks = append(blocks, BuildStructure(p.X, p.Z, p.Rotation, p.Seed)...)
	}
	return Shape{Name: VillageName, Blocks: blocks}
}

// FallbackShape одиночная постройка в центре. Гарантирует цель для перестройки.
func FallbackShape() Shape {
	return Shape{Name: FallbackName, Blocks: BuildStructure(0, 0, 0, FallbackSeed)}
}
