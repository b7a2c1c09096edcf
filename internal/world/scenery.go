package world

import (
	"math"

	"github.com/annel0/peach-village/internal/terrain"
	"github.com/annel0/peach-village/internal/util"
	"github.com/annel0/peach-village/internal/vec"
)

// TreeKind вид декоративного дерева
type TreeKind string

const (
	TreePeach  TreeKind = "peach"
	TreeWillow TreeKind = "willow"
	TreePine   TreeKind = "pine"
	TreeBamboo TreeKind = "bamboo"
)

const (
	TreeCount    = 60
	TreeMinRange = 20.0
	TreeMaxRange = 90.0

	// treeNoiseScale и treeNoiseCutoff прореживают лес шумом Перлина
	treeNoiseScale  = 0.08
	treeNoiseCutoff = 0.3

	// LampEvery фонарь ставится на каждой третьей точке дороги
	LampEvery   = 3
	LampOffset  = 2.5
	roadSamples = 20
)

// MahjongTable позиция стола, за которым сидят жители
var MahjongTable = vec.Vec3{X: 5, Y: 0, Z: 8}

// Tree декоративное дерево
type Tree struct {
	Pos   vec.Vec3 `json:"pos"`
	Scale float64  `json:"scale"`
	Kind  TreeKind `json:"kind"`
}

// Lamp уличный фонарь вдоль дороги
type Lamp struct {
	Pos vec.Vec3 `json:"pos"`
	Lit bool     `json:"lit"`
}

// Field прямоугольное поле на плоскости земли
type Field struct {
	Center vec.Vec3 `json:"center"`
	Size   float64  `json:"size"`
}

// Scenery статичные декорации деревни
type Scenery struct {
	Trees     []Tree   `json:"trees"`
	Lamps     []Lamp   `json:"lamps"`
	Table     vec.Vec3 `json:"table"`
	FarmField Field    `json:"farm_field"`
}

// BuildScenery расставляет декорации из сида
func BuildScenery(seed int64) Scenery {
	return Scenery{
		Trees:     plantTrees(seed),
		Lamps:     placeLamps(),
		Table:     MahjongTable,
		FarmField: Field{Center: vec.Vec3{X: 30, Y: 0.1, Z: -20}, Size: 25},
	}
}

// WithLanterns возвращает копию фонарей с заданным состоянием
func (s Scenery) WithLanterns(lit bool) []Lamp {
	lamps := make([]Lamp, len(s.Lamps))
	for i, l := range s.Lamps {
		l.Lit = lit
		lamps[i] = l
	}
	return lamps
}

func plantTrees(seed int64) []Tree {
	rng := util.NewSeeded(seed)
	noise := util.NewNoise(seed)

	trees := make([]Tree, 0, TreeCount)
	for i := 0; i < TreeCount; i++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := util.Range(rng, TreeMinRange, TreeMaxRange)
		kindRoll := rng.Float64()
		scale := 0.8 + rng.Float64()*0.6

		x := math.Cos(angle) * dist
		z := math.Sin(angle) * dist
		if terrain.InHazardBand(x, z, 1) {
			continue
		}
		if noise.Noise2D(x*treeNoiseScale, z*treeNoiseScale) < treeNoiseCutoff {
			continue
		}

		kind := TreePeach
		switch {
		case kindRoll > 0.90:
			kind = TreeBamboo
		case kindRoll > 0.75:
			kind = TreePine
		case kindRoll > 0.60:
			kind = TreeWillow
		}
		trees = append(trees, Tree{Pos: vec.Vec3{X: x, Z: z}, Scale: scale, Kind: kind})
	}
	return trees
}

// RoadControlPoints опорные точки дороги, пересекающей мост
func RoadControlPoints() []vec.Vec3 {
	bz := terrain.BridgeZ
	return []vec.Vec3{
		{X: -40, Z: bz + 10},
		{X: -10, Z: bz + 2},
		{X: 0, Z: bz},
		{X: 10, Z: bz - 2},
		{X: 40, Z: bz - 10},
	}
}

func placeLamps() []Lamp {
	points := SampleCatmullRom(RoadControlPoints(), roadSamples)
	var lamps []Lamp
	for i, p := range points {
		if i%LampEvery != 0 {
			continue
		}
		// Фонари чередуются по сторонам дороги
		offset := LampOffset
		if i%2 != 0 {
			offset = -LampOffset
		}
		lamps = append(lamps, Lamp{Pos: vec.Vec3{X: p.X + 5 + offset, Z: p.Z + 5 + offset}})
	}
	return lamps
}

// SampleCatmullRom возвращает divisions+1 равномерных по параметру точек
// однородного сплайна Катмулла-Рома через points.
func SampleCatmullRom(points []vec.Vec3, divisions int) []vec.Vec3 {
	n := len(points)
	if n < 2 || divisions <= 0 {
		return append([]vec.Vec3(nil), points...)
	}

	out := make([]vec.Vec3, 0, divisions+1)
	for d := 0; d <= divisions; d++ {
		t := float64(d) / float64(divisions)
		p := float64(n-1) * t
		seg := int(math.Floor(p))
		w := p - float64(seg)
		if seg >= n-1 {
			seg = n - 2
			w = 1
		}

		p1 := points[seg]
		p2 := points[seg+1]
		var p0, p3 vec.Vec3
		if seg > 0 {
			p0 = points[seg-1]
		} else {
			p0 = p1.Mul(2).Sub(p2)
		}
		if seg+2 < n {
			p3 = points[seg+2]
		} else {
			p3 = p2.Mul(2).Sub(p1)
		}
		out = append(out, catmullRom(p0, p1, p2, p3, w))
	}
	return out
}

func catmullRom(p0, p1, p2, p3 vec.Vec3, t float64) vec.Vec3 {
	t2 := t * t
	t3 := t2 * t
	axis := func(a, b, c, d float64) float64 {
		return 0.5 * (2*b + (c-a)*t + (2*a-5*b+4*c-d)*t2 + (3*b-a-3*c+d)*t3)
	}
	return vec.Vec3{
		X: axis(p0.X, p1.X, p2.X, p3.X),
		Y: axis(p0.Y, p1.Y, p2.Y, p3.Y),
		Z: axis(p0.Z, p1.Z, p2.Z, p3.Z),
	}
}
