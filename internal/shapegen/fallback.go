package shapegen

import (
	"context"
	"time"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/world"
)

// Fallback цепочка генераторов, которая никогда не возвращает ошибку.
// Основной генератор ограничен по времени; при ошибке или невалидной
// форме используется запасной, а если и он не справился, запасная форма мира.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	Timeout   time.Duration
	Logger    *logging.Logger

	// OnFallback вызывается при каждом отказе основного генератора
	OnFallback func(err error)
}

// WithFallback оборачивает primary. secondary может быть nil.
func WithFallback(primary, secondary Generator, timeout time.Duration, logger *logging.Logger) *Fallback {
	if logger == nil {
		logger = logging.Default()
	}
	return &Fallback{Primary: primary, Secondary: secondary, Timeout: timeout, Logger: logger}
}

// Generate возвращает форму основного генератора или замену
func (f *Fallback) Generate(ctx context.Context, req Request) (world.Shape, error) {
	shape, err := f.try(ctx, f.Primary, req)
	if err == nil {
		return shape, nil
	}
	f.Logger.Warn("⚠️ Генератор форм недоступен: %v", err)
	if f.OnFallback != nil {
		f.OnFallback(err)
	}

	if f.Secondary != nil {
		if shape, err = f.try(ctx, f.Secondary, req); err == nil {
			f.Logger.Info("🏗️ Использована офлайн-форма %q", shape.Name)
			return shape, nil
		}
		f.Logger.Warn("⚠️ Запасной генератор тоже не справился: %v", err)
	}
	return world.FallbackShape(), nil
}

func (f *Fallback) try(ctx context.Context, gen Generator, req Request) (world.Shape, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	shape, err := gen.Generate(ctx, req)
	if err != nil {
		return world.Shape{}, err
	}
	if err := Validate(shape); err != nil {
		return world.Shape{}, err
	}
	return shape, nil
}
