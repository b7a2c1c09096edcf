package world

import (
	"github.com/annel0/peach-village/internal/vec"
)

// BlockScale размер одной ячейки сетки в мировых единицах
const BlockScale = 0.8

// Block один процедурно размещённый воксель. Неизменяем после генерации,
// идентичность получает только активный воксель.
type Block struct {
	Pos   vec.Vec3 `json:"pos"`
	Color Color    `json:"color"`
}

// Shape именованный упорядоченный набор блоков.
// Новая форма всегда целиком заменяет старую.
type Shape struct {
	Name   string  `json:"name"`
	Blocks []Block `json:"blocks"`
}

// NewShape создаёт форму с собственной копией блоков
func NewShape(name string, blocks []Block) Shape {
	cp := make([]Block, len(blocks))
	copy(cp, blocks)
	return Shape{Name: name, Blocks: cp}
}

// Len возвращает количество блоков формы
func (s Shape) Len() int {
	return len(s.Blocks)
}

// Empty сообщает, что форма не содержит блоков
func (s Shape) Empty() bool {
	return len(s.Blocks) == 0
}

// Bounds возвращает минимальный и максимальный углы формы
func (s Shape) Bounds() (min, max vec.Vec3) {
	if len(s.Blocks) == 0 {
		return vec.Zero3, vec.Zero3
	}
	min, max = s.Blocks[0].Pos, s.Blocks[0].Pos
	for _, b := range s.Blocks[1:] {
		p := b.Pos
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	return min, max
}
