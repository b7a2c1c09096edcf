package shapegen

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/annel0/peach-village/internal/util"
	"github.com/annel0/peach-village/internal/world"
)

// Имена офлайн-вариантов
const (
	NameAncestralHall = "Grand Ancestral Hall"
	NameTwinPagodas   = "Twin Pagodas"
	NameMarketRow     = "Market Row"
)

// PagodaSpacing расстояние между центрами парных построек
const PagodaSpacing = 9.0

// MarketSpacing шаг построек торгового ряда
const MarketSpacing = 13.0

type variant struct {
	name  string
	build func(seed int64, rot float64) []world.Block
}

var variants = []variant{
	{name: world.VillageName, build: func(seed int64, _ float64) []world.Block {
		return world.BuildVillage(seed).Blocks
	}},
	{name: NameAncestralHall, build: func(seed int64, rot float64) []world.Block {
		return world.BuildStructure(0, 0, rot, seed)
	}},
	{name: NameTwinPagodas, build: func(seed int64, rot float64) []world.Block {
		dx, dz := math.Cos(rot)*PagodaSpacing, math.Sin(rot)*PagodaSpacing
		blocks := world.BuildStructure(-dx, -dz, rot, seed)
		return append(blocks, world.BuildStructure(dx, dz, rot, seed)...)
	}},
	{name: NameMarketRow, build: func(seed int64, rot float64) []world.Block {
		var blocks []world.Block
		for i := -1; i <= 1; i++ {
			blocks = append(blocks, world.BuildStructure(float64(i)*MarketSpacing, 0, rot, util.DeriveSeed(seed, i+1))...)
		}
		return blocks
	}},
}

// Procedural офлайн-генератор: собирает новую форму из процедурных построек.
// Имя результата всегда отличается от текущего.
type Procedural struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewProcedural создаёт генератор с детерминированной последовательностью форм
func NewProcedural(seed int64) *Procedural {
	return &Procedural{rng: util.NewSeeded(seed)}
}

// Generate выбирает вариант, отличный от req.CurrentName
func (p *Procedural) Generate(ctx context.Context, req Request) (world.Shape, error) {
	if err := ctx.Err(); err != nil {
		return world.Shape{}, err
	}

	candidates := make([]variant, 0, len(variants))
	for _, v := range variants {
		if v.name != req.CurrentName {
			candidates = append(candidates, v)
		}
	}

	p.mu.Lock()
	v := candidates[p.rng.Intn(len(candidates))]
	seed := p.rng.Int63()
	rot := float64(p.rng.Intn(4)) * math.Pi / 2
	p.mu.Unlock()

	return world.NewShape(v.name, v.build(seed, rot)), nil
}
