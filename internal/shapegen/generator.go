// Package shapegen поставляет новые формы для перестройки: HTTP-клиент
// внешнего генератора, офлайн-генератор и обёртку с запасной формой.
package shapegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/peach-village/internal/world"
)

// Ошибки генерации
var (
	ErrUnavailable  = errors.New("shapegen: generator unavailable")
	ErrInvalidShape = errors.New("shapegen: invalid shape")
)

// MaxGridSize ограничение размера формы в ячейках по каждой оси
const MaxGridSize = 20

// MaxBlocks предельное число блоков в форме
const MaxBlocks = MaxGridSize * MaxGridSize * MaxGridSize

// Request контекст запроса новой формы
type Request struct {
	CurrentName string  `json:"current_name"`
	TimeOfDay   float64 `json:"time_of_day"`
}

// Generator производит новую форму
type Generator interface {
	Generate(ctx context.Context, req Request) (world.Shape, error)
}

// GeneratorFunc адаптер функции к Generator
type GeneratorFunc func(ctx context.Context, req Request) (world.Shape, error)

// Generate вызывает f(ctx, req)
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (world.Shape, error) {
	return f(ctx, req)
}

// Validate проверяет форму перед использованием
func Validate(shape world.Shape) error {
	if shape.Empty() {
		return fmt.Errorf("%w: no blocks", ErrInvalidShape)
	}
	if shape.Len() > MaxBlocks {
		return fmt.Errorf("%w: %d blocks exceeds %d", ErrInvalidShape, shape.Len(), MaxBlocks)
	}
	for i, b := range shape.Blocks {
		if !b.Color.IsHex() {
			return fmt.Errorf("%w: block %d has color %q", ErrInvalidShape, i, b.Color)
		}
	}
	return nil
}
