package shapegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/vec"
	"github.com/annel0/peach-village/internal/world"
)

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("shapegen", &bytes.Buffer{}, logging.ERROR)
}

func TestValidate(t *testing.T) {
	t.Run("пустая форма", func(t *testing.T) {
		err := Validate(world.Shape{Name: "empty"})
		assert.True(t, errors.Is(err, ErrInvalidShape))
	})
	t.Run("неверный цвет", func(t *testing.T) {
		err := Validate(world.NewShape("bad", []world.Block{{Color: "red"}}))
		assert.True(t, errors.Is(err, ErrInvalidShape))
	})
	t.Run("валидная форма", func(t *testing.T) {
		assert.NoError(t, Validate(world.FallbackShape()))
	})
}

func TestDecodeShape_ScalesCoordinates(t *testing.T) {
	raw := []byte(`{"name":"Dragon Bridge","blocks":[{"x":1,"y":2,"z":-3,"color":"#5D4037"}]}`)
	shape, err := DecodeShape(raw)
	require.NoError(t, err)

	assert.Equal(t, "Dragon Bridge", shape.Name)
	require.Equal(t, 1, shape.Len())
	pos := shape.Blocks[0].Pos
	want := vec.Vec3{X: 0.8, Y: 1.6, Z: -2.4}
	assert.InDelta(t, want.X, pos.X, 1e-9)
	assert.InDelta(t, want.Y, pos.Y, 1e-9)
	assert.InDelta(t, want.Z, pos.Z, 1e-9)
	assert.Equal(t, world.ColorWoodDark, shape.Blocks[0].Color)
}

func TestDecodeShape_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"не JSON":        `{"name":`,
		"без блоков":     `{"name":"x","blocks":[]}`,
		"без имени":      `{"blocks":[{"x":1,"y":2,"z":3,"color":"#FFFFFF"}]}`,
		"цвет не hex":    `{"name":"x","blocks":[{"x":1,"y":2,"z":3,"color":"gold"}]}`,
		"вне сетки":      `{"name":"x","blocks":[{"x":100,"y":2,"z":3,"color":"#FFFFFF"}]}`,
		"нет координаты": `{"name":"x","blocks":[{"x":1,"y":2,"color":"#FFFFFF"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeShape([]byte(raw))
			assert.True(t, errors.Is(err, ErrInvalidShape), "ожидалась ErrInvalidShape, получено %v", err)
		})
	}
}

func TestHTTPGenerator(t *testing.T) {
	t.Run("без ключа недоступен", func(t *testing.T) {
		gen := NewHTTPGenerator("http://127.0.0.1:1", "", "m", time.Second)
		_, err := gen.Generate(context.Background(), Request{CurrentName: "a"})
		assert.True(t, errors.Is(err, ErrUnavailable))
	})

	t.Run("успешный ответ", func(t *testing.T) {
		var got httpRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"Twin Pagodas","blocks":[{"x":0,"y":0,"z":0,"color":"#37474F"},{"x":0,"y":1,"z":0,"color":"#37474F"}]}`))
		}))
		defer srv.Close()

		gen := NewHTTPGenerator(srv.URL, "secret", "voxel-architect", time.Second)
		shape, err := gen.Generate(context.Background(), Request{CurrentName: "Small Shrine", TimeOfDay: 13})
		require.NoError(t, err)

		assert.Equal(t, "Twin Pagodas", shape.Name)
		assert.Equal(t, 2, shape.Len())
		assert.Equal(t, "Small Shrine", got.CurrentName)
		assert.Equal(t, "voxel-architect", got.Model)
		assert.Equal(t, MaxGridSize, got.MaxSize)
	})

	t.Run("ошибка сервера", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		gen := NewHTTPGenerator(srv.URL, "secret", "m", time.Second)
		_, err := gen.Generate(context.Background(), Request{})
		assert.True(t, errors.Is(err, ErrUnavailable))
	})

	t.Run("невалидный ответ", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name":"x","blocks":[]}`))
		}))
		defer srv.Close()

		gen := NewHTTPGenerator(srv.URL, "secret", "m", time.Second)
		_, err := gen.Generate(context.Background(), Request{})
		assert.True(t, errors.Is(err, ErrInvalidShape))
	})
}

func TestProcedural(t *testing.T) {
	t.Run("имя отличается от текущего", func(t *testing.T) {
		gen := NewProcedural(7)
		current := world.VillageName
		for i := 0; i < 20; i++ {
			shape, err := gen.Generate(context.Background(), Request{CurrentName: current})
			require.NoError(t, err)
			assert.NotEqual(t, current, shape.Name)
			assert.NoError(t, Validate(shape))
			current = shape.Name
		}
	})

	t.Run("детерминирован по сиду", func(t *testing.T) {
		a, err := NewProcedural(11).Generate(context.Background(), Request{CurrentName: "x"})
		require.NoError(t, err)
		b, err := NewProcedural(11).Generate(context.Background(), Request{CurrentName: "x"})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("отменённый контекст", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewProcedural(1).Generate(ctx, Request{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFallback(t *testing.T) {
	failing := GeneratorFunc(func(ctx context.Context, req Request) (world.Shape, error) {
		return world.Shape{}, ErrUnavailable
	})
	slow := GeneratorFunc(func(ctx context.Context, req Request) (world.Shape, error) {
		<-ctx.Done()
		return world.Shape{}, ctx.Err()
	})
	fixed := func(name string) Generator {
		return GeneratorFunc(func(ctx context.Context, req Request) (world.Shape, error) {
			return world.NewShape(name, []world.Block{{Color: world.ColorStone}}), nil
		})
	}

	t.Run("основной генератор", func(t *testing.T) {
		f := WithFallback(fixed("primary"), fixed("secondary"), time.Second, quietLogger())
		shape, err := f.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "primary", shape.Name)
	})

	t.Run("запасной генератор", func(t *testing.T) {
		var fallbacks int
		f := WithFallback(failing, fixed("secondary"), time.Second, quietLogger())
		f.OnFallback = func(err error) { fallbacks++ }

		shape, err := f.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "secondary", shape.Name)
		assert.Equal(t, 1, fallbacks)
	})

	t.Run("таймаут приводит к запасной форме", func(t *testing.T) {
		f := WithFallback(slow, nil, 10*time.Millisecond, quietLogger())
		shape, err := f.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, world.FallbackName, shape.Name)
	})

	t.Run("невалидная форма отклоняется", func(t *testing.T) {
		empty := GeneratorFunc(func(ctx context.Context, req Request) (world.Shape, error) {
			return world.Shape{Name: "empty"}, nil
		})
		f := WithFallback(empty, failing, time.Second, quietLogger())
		shape, err := f.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, world.FallbackName, shape.Name)
	})
}
