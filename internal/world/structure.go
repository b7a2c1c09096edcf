package world

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/peach-village/internal/util"
	"github.com/annel0/peach-village/internal/vec"
)

// Диапазоны размеров дома в ячейках сетки
const (
	MinWidth  = 8
	MaxWidth  = 12
	MinDepth  = 6
	MaxDepth  = 10
	MinHeight = 5
	MaxHeight = 7

	// RoofLevels максимальное число ярусов крыши
	RoofLevels = 5
	// DoorHeight двери вырезаются на уровнях y < DoorHeight
	DoorHeight = 5
	// PillarStep шаг тёмных балок фахверка
	PillarStep = 4
)

// Cell ячейка чертежа в локальной сетке дома.
// Y отсчитывается от платформы, ярусы крыши идут выше стен.
type Cell struct {
	X, Y, Z int
	Color   Color
}

// RoofLevel один ярус крыши: внутренние границы и признак сплошной крышки
type RoofLevel struct {
	Level      int
	MinX, MaxX int
	MinZ, MaxZ int
	Cap        bool
}

// SpanX ширина яруса без свеса
func (r RoofLevel) SpanX() int { return r.MaxX - r.MinX + 1 }

// SpanZ глубина яруса без свеса
func (r RoofLevel) SpanZ() int { return r.MaxZ - r.MinZ + 1 }

// Blueprint чертёж дома в локальных координатах до поворота и масштабирования
type Blueprint struct {
	Width, Depth, Height int
	Cells                []Cell
	Roof                 []RoofLevel
}

// NewBlueprint выбирает размеры из генератора и строит чертёж
func NewBlueprint(rng *rand.Rand) Blueprint {
	width := util.IntRange(rng, MinWidth, MaxWidth)
	depth := util.IntRange(rng, MinDepth, MaxDepth)
	height := util.IntRange(rng, MinHeight, MaxHeight)
	return DrawBlueprint(width, depth, height)
}

// DrawBlueprint строит чертёж дома заданных размеров
func DrawBlueprint(width, depth, height int) Blueprint {
	bp := Blueprint{Width: width, Depth: depth, Height: height}

	// Каменная платформа на ячейку шире дома со всех сторон
	for x := -1; x <= width; x++ {
		for z := -1; z <= depth; z++ {
			bp.Cells = append(bp.Cells, Cell{X: x, Y: 0, Z: z, Color: ColorStone})
		}
	}

	// Стены по периметру
	for y := 1; y < height; y++ {
		for x := 0; x < width; x++ {
			for z := 0; z < depth; z++ {
				isWallX := x == 0 || x == width-1
				isWallZ := z == 0 || z == depth-1
				if !isWallX && !isWallZ {
					continue
				}
				if bp.IsWindow(x, y, z) || bp.IsDoor(x, y, z) {
					continue
				}

				color := ColorWall
				if bp.isCorner(x, z) || (x%PillarStep == 0 && isWallZ) || (z%PillarStep == 0 && isWallX) {
					color = ColorWoodDark
				}
				bp.Cells = append(bp.Cells, Cell{X: x, Y: y, Z: z, Color: color})
			}
		}
	}

	// Ярусы крыши сужаются на ячейку с каждым уровнем
	for k := 0; k < RoofLevels; k++ {
		outline := k - 1
		level := RoofLevel{
			Level: k,
			MinX:  outline,
			MaxX:  width - 1 - outline,
			MinZ:  outline,
			MaxZ:  depth - 1 - outline,
		}
		if level.MinX > level.MaxX || level.MinZ > level.MaxZ {
			break
		}
		bp.Roof = append(bp.Roof, level)
	}
	if n := len(bp.Roof); n > 0 {
		bp.Roof[n-1].Cap = true
	}

	for _, level := range bp.Roof {
		for x := level.MinX - 1; x <= level.MaxX+1; x++ {
			for z := level.MinZ - 1; z <= level.MaxZ+1; z++ {
				inner := x > level.MinX && x < level.MaxX && z > level.MinZ && z < level.MaxZ
				if inner && !level.Cap {
					continue
				}
				color := ColorRoofDark
				if x == level.MinX-1 || x == level.MaxX+1 || z == level.MinZ-1 || z == level.MaxZ+1 {
					color = ColorRoofLight
				}
				bp.Cells = append(bp.Cells, Cell{X: x, Y: height + level.Level, Z: z, Color: color})
			}
		}
	}

	return bp
}

func (bp Blueprint) isCorner(x, z int) bool {
	return (x == 0 || x == bp.Width-1) && (z == 0 || z == bp.Depth-1)
}

// IsWindow сообщает, попадает ли ячейка стены в оконный проём
func (bp Blueprint) IsWindow(x, y, z int) bool {
	if y <= 2 || y >= bp.Height-2 || bp.isCorner(x, z) {
		return false
	}
	isWallX := x == 0 || x == bp.Width-1
	isWallZ := z == 0 || z == bp.Depth-1
	midX := math.Abs(float64(x)-float64(bp.Width)/2) < 2
	midZ := math.Abs(float64(z)-float64(bp.Depth)/2) < 2
	return (midX && isWallZ) || (midZ && isWallX)
}

// IsDoor сообщает, попадает ли ячейка стены в дверной проём на стене z = depth-1
func (bp Blueprint) IsDoor(x, y, z int) bool {
	return z == bp.Depth-1 && math.Abs(float64(x)-float64(bp.Width)/2) <= 1 && y < DoorHeight
}

// Place поворачивает чертёж вокруг его центра, масштабирует и переносит в мир
func (bp Blueprint) Place(originX, originZ, rotation float64) []Block {
	rot := mgl64.Rotate2D(rotation)
	halfW := float64(bp.Width) / 2
	halfD := float64(bp.Depth) / 2

	blocks := make([]Block, 0, len(bp.Cells))
	for _, c := range bp.Cells {
		p := rot.Mul2x1(mgl64.Vec2{float64(c.X) - halfW, float64(c.Z) - halfD})
		blocks = append(blocks, Block{
			Pos: vec.Vec3{
				X: p.X()*BlockScale + originX,
				Y: float64(c.Y) * BlockScale,
				Z: p.Y()*BlockScale + originZ,
			},
			Color: c.Color,
		})
	}
	return blocks
}

// BuildStructure синтезирует дом со случайными размерами из сида
// и размещает его в мировых координатах.
func BuildStructure(originX, originZ, rotation float64, seed int64) []Block {
	return NewBlueprint(util.NewSeeded(seed)).Place(originX, originZ, rotation)
}
