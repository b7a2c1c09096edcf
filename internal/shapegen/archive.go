package shapegen

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/world"
)

// ShapeStore хранилище ранее сгенерированных форм
type ShapeStore interface {
	Save(shape world.Shape) error
	Load(name string) (world.Shape, error)
	Names() ([]string, error)
}

// Recording сохраняет каждую валидную форму обёрнутого генератора в хранилище.
// Ошибка записи только логируется: форма всё равно возвращается.
type Recording struct {
	Generator Generator
	Store     ShapeStore
	Logger    *logging.Logger
}

// Record оборачивает gen
func Record(gen Generator, store ShapeStore, logger *logging.Logger) *Recording {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recording{Generator: gen, Store: store, Logger: logger}
}

func (r *Recording) Generate(ctx context.Context, req Request) (world.Shape, error) {
	shape, err := r.Generator.Generate(ctx, req)
	if err != nil {
		return shape, err
	}
	if Validate(shape) == nil {
		if err := r.Store.Save(shape); err != nil {
			r.Logger.Warn("⚠️ Форма %q не сохранена в архив: %v", shape.Name, err)
		} else {
			r.Logger.Debug("📦 Форма %q сохранена в архив (%d блоков)", shape.Name, shape.Len())
		}
	}
	return shape, nil
}

// Archived генератор, повторяющий формы из архива.
// Выбирает случайную форму с именем, отличным от текущего.
type Archived struct {
	Store ShapeStore

	mu  sync.Mutex
	rng *rand.Rand
}

// FromArchive создаёт генератор поверх store
func FromArchive(store ShapeStore, seed int64) *Archived {
	return &Archived{Store: store, rng: rand.New(rand.NewSource(seed))}
}

func (a *Archived) Generate(ctx context.Context, req Request) (world.Shape, error) {
	if err := ctx.Err(); err != nil {
		return world.Shape{}, err
	}
	names, err := a.Store.Names()
	if err != nil {
		return world.Shape{}, fmt.Errorf("%w: archive: %v", ErrUnavailable, err)
	}

	candidates := names[:0:0]
	for _, name := range names {
		if name != req.CurrentName {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return world.Shape{}, fmt.Errorf("%w: archive has no alternative to %q", ErrUnavailable, req.CurrentName)
	}

	a.mu.Lock()
	name := candidates[a.rng.Intn(len(candidates))]
	a.mu.Unlock()

	shape, err := a.Store.Load(name)
	if err != nil {
		return world.Shape{}, fmt.Errorf("%w: archive: %v", ErrUnavailable, err)
	}
	return shape, nil
}
