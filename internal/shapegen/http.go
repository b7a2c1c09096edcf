package shapegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/peach-village/internal/vec"
	"github.com/annel0/peach-village/internal/world"
)

// maxResponseBytes ограничение на размер ответа генератора
const maxResponseBytes = 4 << 20

// shapeSchema схема ответа внешнего генератора
const shapeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "blocks"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "blocks": {
      "type": "array",
      "minItems": 1,
      "maxItems": 8000,
      "items": {
        "type": "object",
        "required": ["x", "y", "z", "color"],
        "properties": {
          "x": {"type": "number", "minimum": -20, "maximum": 20},
          "y": {"type": "number", "minimum": -20, "maximum": 20},
          "z": {"type": "number", "minimum": -20, "maximum": 20},
          "color": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"}
        }
      }
    }
  }
}`

var compiledShapeSchema = jsonschema.MustCompileString("shape.schema.json", shapeSchema)

// Palette цвета, которые предлагаются внешнему генератору
var Palette = map[string]world.Color{
	"wood":  world.ColorWoodDark,
	"roof":  world.ColorRoofDark,
	"walls": world.ColorWall,
	"decor": world.ColorCropWheat,
}

// Examples примеры имён, задающие стиль генерации
var Examples = []string{"Grand Ancestral Hall", "Dragon Bridge", "Market Watchtower", "Twin Pagodas"}

// httpRequest тело запроса к генератору
type httpRequest struct {
	Model       string                 `json:"model"`
	CurrentName string                 `json:"current_name"`
	TimeOfDay   float64                `json:"time_of_day"`
	MaxSize     int                    `json:"max_size"`
	Palette     map[string]world.Color `json:"palette"`
	Examples    []string               `json:"examples"`
}

type wireBlock struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Color string  `json:"color"`
}

type wireShape struct {
	Name   string      `json:"name"`
	Blocks []wireBlock `json:"blocks"`
}

// HTTPGenerator запрашивает форму у внешнего сервиса генерации.
// Ответ проверяется по JSON-схеме, координаты сетки переводятся в мировые через BlockScale.
type HTTPGenerator struct {
	Endpoint string
	APIKey   string
	Model    string
	Client   *http.Client
}

// NewHTTPGenerator создаёт клиент внешнего генератора
func NewHTTPGenerator(endpoint, apiKey, model string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Model:    model,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Generate выполняет запрос. Без адреса или ключа возвращает ErrUnavailable.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (world.Shape, error) {
	if g.Endpoint == "" || g.APIKey == "" {
		return world.Shape{}, fmt.Errorf("%w: endpoint or api key not configured", ErrUnavailable)
	}

	ctx, span := otel.Tracer("peach-village/shapegen").Start(ctx, "shapegen.http.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("shape.current", req.CurrentName),
		attribute.String("generator.model", g.Model),
	)

	shape, err := g.do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return world.Shape{}, err
	}
	span.SetAttributes(
		attribute.String("shape.name", shape.Name),
		attribute.Int("shape.blocks", shape.Len()),
	)
	return shape, nil
}

func (g *HTTPGenerator) do(ctx context.Context, req Request) (world.Shape, error) {
	body, err := json.Marshal(httpRequest{
		Model:       g.Model,
		CurrentName: req.CurrentName,
		TimeOfDay:   req.TimeOfDay,
		MaxSize:     MaxGridSize,
		Palette:     Palette,
		Examples:    Examples,
	})
	if err != nil {
		return world.Shape{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return world.Shape{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return world.Shape{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return world.Shape{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return world.Shape{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	return DecodeShape(raw)
}

// DecodeShape проверяет JSON по схеме и переводит его в форму мира
func DecodeShape(raw []byte) (world.Shape, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return world.Shape{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if err := compiledShapeSchema.Validate(doc); err != nil {
		return world.Shape{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	var ws wireShape
	if err := json.Unmarshal(raw, &ws); err != nil {
		return world.Shape{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	blocks := make([]world.Block, len(ws.Blocks))
	for i, b := range ws.Blocks {
		blocks[i] = world.Block{
			Pos:   vec.Vec3{X: b.X, Y: b.Y, Z: b.Z}.Mul(world.BlockScale),
			Color: world.Color(b.Color),
		}
	}
	shape := world.NewShape(ws.Name, blocks)
	if err := Validate(shape); err != nil {
		return world.Shape{}, err
	}
	return shape, nil
}
