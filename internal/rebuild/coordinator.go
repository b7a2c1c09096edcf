package rebuild

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/physics"
	"github.com/annel0/peach-village/internal/shapegen"
	"github.com/annel0/peach-village/internal/util"
	"github.com/annel0/peach-village/internal/vec"
	"github.com/annel0/peach-village/internal/world"
)

// Значения по умолчанию
const (
	DefaultLerpAlpha         = 0.08
	DefaultLockEpsilon       = 0.1
	DefaultRebuildDelay      = 4.0 // секунды
	DefaultGenerationTimeout = 20 * time.Second

	// Разброс импульса взрыва
	ImpulseSpread = 5.0
	ImpulseMinUp  = 1.0
	ImpulseMaxUp  = 5.0

	// Точка появления новых вокселей
	SpawnSpread = 40.0
	SpawnHeight = 30.0
)

// Options настройки координатора
type Options struct {
	LerpAlpha         float64
	LockEpsilon       float64
	RebuildDelay      float64
	GenerationTimeout time.Duration
	// Rand косметический генератор для импульсов и точек появления
	Rand *rand.Rand
	// TimeOfDay источник времени суток для разнообразия генерации
	TimeOfDay func() float64
	// Now настенные часы для таймера сборки. Без них таймер считает dt из Update.
	Now      func() time.Time
	Observer Observer
	Logger   *logging.Logger
}

func (o *Options) applyDefaults() {
	if o.LerpAlpha <= 0 || o.LerpAlpha > 1 {
		o.LerpAlpha = DefaultLerpAlpha
	}
	if o.LockEpsilon <= 0 {
		o.LockEpsilon = DefaultLockEpsilon
	}
	if o.RebuildDelay <= 0 {
		o.RebuildDelay = DefaultRebuildDelay
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = DefaultGenerationTimeout
	}
	if o.Rand == nil {
		o.Rand = util.NewCosmetic()
	}
	if o.TimeOfDay == nil {
		o.TimeOfDay = func() float64 { return 12 }
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
}

type generationResult struct {
	token    uint64
	request  shapegen.Request
	shape    world.Shape
	err      error
	duration time.Duration
}

// Coordinator единственный писатель фазы мира и назначений.
// Все методы, кроме фоновой генерации, вызываются из потока тиков.
type Coordinator struct {
	engine physics.Engine
	gen    shapegen.Generator
	opts   Options
	box    physics.Box

	phase      Phase
	shape      world.Shape
	voxels     []*Voxel
	assignment *Assignment

	pending   uint64 // токен запроса в полёте, 0 = запроса нет
	lastToken uint64
	results   chan generationResult

	rebuildElapsed float64
	rebuildStarted time.Time
}

// NewCoordinator создаёт воксели для стартовой формы и замораживает их на местах
func NewCoordinator(engine physics.Engine, gen shapegen.Generator, initial world.Shape, opts Options) (*Coordinator, error) {
	opts.applyDefaults()
	c := &Coordinator{
		engine:  engine,
		gen:     gen,
		opts:    opts,
		box:     physics.NewCube(world.BlockScale),
		phase:   Idle,
		shape:   initial,
		results: make(chan generationResult, 1),
	}

	for _, b := range initial.Blocks {
		if _, err := c.spawn(b.Pos, b.Color, physics.Static); err != nil {
			return nil, err
		}
	}

	opts.Logger.Info("🧱 Координатор готов: форма %q, вокселей %d", initial.Name, len(c.voxels))
	return c, nil
}

func (c *Coordinator) spawn(pos vec.Vec3, color world.Color, mode physics.Mode) (*Voxel, error) {
	v := &Voxel{ID: uuid.New(), Color: color, Mode: mode}
	if err := c.engine.AddBody(v.ID, pos, c.box, mode); err != nil {
		return nil, err
	}
	c.voxels = append(c.voxels, v)
	return v, nil
}

// Phase возвращает текущую фазу
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Shape возвращает текущую форму
func (c *Coordinator) Shape() world.Shape {
	return c.shape
}

// Pending сообщает, что запрос генерации в полёте
func (c *Coordinator) Pending() bool {
	return c.pending != 0
}

// VoxelCount возвращает размер активного набора
func (c *Coordinator) VoxelCount() int {
	return len(c.voxels)
}

// Voxels возвращает копии вокселей в порядке создания
func (c *Coordinator) Voxels() []Voxel {
	out := make([]Voxel, len(c.voxels))
	for i, v := range c.voxels {
		out[i] = *v
		if v.Target != nil {
			t := *v.Target
			out[i].Target = &t
		}
	}
	return out
}

// Assignment возвращает текущее назначение или nil
func (c *Coordinator) Assignment() *Assignment {
	return c.assignment
}

// Locked возвращает число зафиксированных вокселей
func (c *Coordinator) Locked() int {
	n := 0
	for _, v := range c.voxels {
		if v.Locked {
			n++
		}
	}
	return n
}

// Snapshot собирает состояние вокселей для кадра
func (c *Coordinator) Snapshot() []VoxelState {
	out := make([]VoxelState, 0, len(c.voxels))
	for _, v := range c.voxels {
		pos, _ := c.engine.Position(v.ID)
		rot, _ := c.engine.Rotation(v.ID)
		out = append(out, VoxelState{
			ID:     v.ID,
			Pos:    pos,
			Rot:    quatArray(rot),
			Color:  v.Color,
			Mode:   v.Mode,
			Locked: v.Locked,
		})
	}
	return out
}

func (c *Coordinator) transition(to Phase, fallback bool) {
	from := c.phase
	c.phase = to
	c.opts.Logger.Debug("Фаза %s → %s (форма %q)", from, to, c.shape.Name)
	c.opts.Observer.PhaseChanged(Transition{
		From:      from,
		To:        to,
		ShapeName: c.shape.Name,
		Voxels:    len(c.voxels),
		Fallback:  fallback,
	})
}

// Smash разбрасывает воксели. Допустим только в Idle, иначе возвращает false.
func (c *Coordinator) Smash() bool {
	if !c.phase.CanTransition(Exploding) {
		c.opts.Logger.Debug("Smash проигнорирован в фазе %s", c.phase)
		return false
	}

	c.assignment = nil
	for _, v := range c.voxels {
		v.Target = nil
		v.Locked = false
		v.Mode = physics.Dynamic
		if err := c.engine.SetMode(v.ID, physics.Dynamic); err != nil {
			c.opts.Logger.Error("Не удалось включить физику вокселя %s: %v", v.ID, err)
			continue
		}
		if err := c.engine.ApplyImpulse(v.ID, c.randomImpulse()); err != nil {
			c.opts.Logger.Error("Не удалось толкнуть воксель %s: %v", v.ID, err)
		}
	}

	c.transition(Exploding, false)
	return true
}

// randomImpulse даёт импульс наружу и вверх; вертикальная составляющая не меньше ImpulseMinUp
func (c *Coordinator) randomImpulse() vec.Vec3 {
	r := c.opts.Rand
	return vec.Vec3{
		X: util.Centered(r, ImpulseSpread),
		Y: util.Range(r, ImpulseMinUp, ImpulseMaxUp),
		Z: util.Centered(r, ImpulseSpread),
	}
}

// RequestRebuild запускает генерацию новой формы. Допустим только в Exploding
// и только если предыдущий запрос завершён. Не блокирует вызывающего.
func (c *Coordinator) RequestRebuild(ctx context.Context) bool {
	if c.phase != Exploding {
		c.opts.Logger.Debug("RequestRebuild проигнорирован в фазе %s", c.phase)
		return false
	}
	if c.pending != 0 {
		c.opts.Logger.Debug("RequestRebuild проигнорирован: запрос %d ещё в полёте", c.pending)
		return false
	}

	c.lastToken++
	token := c.lastToken
	c.pending = token
	req := shapegen.Request{CurrentName: c.shape.Name, TimeOfDay: c.opts.TimeOfDay()}
	timeout := c.opts.GenerationTimeout
	gen := c.gen
	results := c.results

	c.opts.Logger.Info("🔨 Запрос новой формы #%d (текущая %q)", token, req.CurrentName)

	go func() {
		genCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		var (
			shape world.Shape
			err   error
		)
		if gen == nil {
			err = shapegen.ErrUnavailable
		} else {
			shape, err = gen.Generate(genCtx, req)
		}
		results <- generationResult{
			token:    token,
			request:  req,
			shape:    shape,
			err:      err,
			duration: time.Since(start),
		}
	}()
	return true
}

// Update продвигает координатор на dt секунд симуляции
func (c *Coordinator) Update(dt float64) {
	before := c.phase
	c.drainResults()

	if c.phase != Rebuilding {
		return
	}
	// В тике применения воксели уже сдвинула физика, интерполяция со следующего тика
	if before != Rebuilding {
		return
	}

	c.interpolate()

	// Фиксированная задержка не ждёт сходимости всех вокселей
	if c.rebuildDue(dt) {
		c.enterIdle()
	}
}

func (c *Coordinator) rebuildDue(dt float64) bool {
	if c.opts.Now != nil {
		return c.opts.Now().Sub(c.rebuildStarted).Seconds() >= c.opts.RebuildDelay
	}
	c.rebuildElapsed += dt
	return c.rebuildElapsed >= c.opts.RebuildDelay
}

func (c *Coordinator) drainResults() {
	for {
		select {
		case res := <-c.results:
			c.handleResult(res)
		default:
			return
		}
	}
}

func (c *Coordinator) handleResult(res generationResult) {
	if res.token != c.pending {
		c.opts.Logger.Debug("Отброшен устаревший результат генерации #%d", res.token)
		return
	}
	c.pending = 0

	report := GenerationReport{
		Requested: res.request.CurrentName,
		Duration:  res.duration,
		Err:       res.err,
	}

	shape := res.shape
	if res.err == nil {
		res.err = shapegen.Validate(shape)
		report.Err = res.err
	}
	if res.err != nil {
		c.opts.Logger.Warn("⚠️ Генерация не удалась, используем запасную форму: %v", res.err)
		shape = world.FallbackShape()
		report.Fallback = true
	}
	report.Produced = shape.Name
	report.Blocks = shape.Len()
	c.opts.Observer.GenerationDone(report)

	if c.phase != Exploding {
		c.opts.Logger.Debug("Результат генерации пришёл в фазе %s, пропускаем", c.phase)
		return
	}
	c.apply(shape, report.Fallback)
}

// apply заменяет форму целиком, достраивает набор вокселей и строит назначение
func (c *Coordinator) apply(shape world.Shape, fallback bool) {
	c.shape = world.NewShape(shape.Name, shape.Blocks)
	blocks := c.shape.Blocks

	grown := 0
	r := c.opts.Rand
	for i := len(c.voxels); i < len(blocks); i++ {
		pos := vec.Vec3{
			X: util.Centered(r, SpawnSpread),
			Y: SpawnHeight,
			Z: util.Centered(r, SpawnSpread),
		}
		if _, err := c.spawn(pos, blocks[i].Color, physics.Kinematic); err != nil {
			c.opts.Logger.Error("Не удалось создать воксель: %v", err)
			break
		}
		grown++
	}

	c.assignment = newAssignment(len(blocks))
	for i, v := range c.voxels {
		v.Locked = false
		v.Target = nil
		if i < len(blocks) {
			target := blocks[i]
			v.Target = &target
			c.assignment.assign(v.ID, target)
		}

		v.Mode = physics.Kinematic
		if err := c.engine.SetMode(v.ID, physics.Kinematic); err != nil {
			c.opts.Logger.Error("Не удалось выключить физику вокселя %s: %v", v.ID, err)
		}
		if err := c.engine.Freeze(v.ID); err != nil {
			c.opts.Logger.Error("Не удалось остановить воксель %s: %v", v.ID, err)
		}
	}

	c.rebuildElapsed = 0
	if c.opts.Now != nil {
		c.rebuildStarted = c.opts.Now()
	}
	c.opts.Logger.Info("🏗️ Сборка %q: блоков %d, новых вокселей %d", c.shape.Name, len(blocks), grown)
	c.transition(Rebuilding, fallback)
}

func (c *Coordinator) interpolate() {
	for _, v := range c.voxels {
		if v.Target == nil || v.Locked {
			continue
		}
		pos, err := c.engine.Position(v.ID)
		if err != nil {
			c.opts.Logger.Error("Нет положения вокселя %s: %v", v.ID, err)
			continue
		}

		target := v.Target.Pos
		next := pos.Lerp(target, c.opts.LerpAlpha)
		if next.DistanceTo(target) < c.opts.LockEpsilon {
			next = target
			v.Locked = true
		}
		v.Color = v.Target.Color
		if err := c.engine.Teleport(v.ID, next, physics.Upright()); err != nil {
			c.opts.Logger.Error("Не удалось переместить воксель %s: %v", v.ID, err)
		}
	}
}

// enterIdle замораживает все воксели и ставит назначенные точно на места
func (c *Coordinator) enterIdle() {
	for _, v := range c.voxels {
		v.Mode = physics.Static
		if err := c.engine.SetMode(v.ID, physics.Static); err != nil {
			c.opts.Logger.Error("Не удалось заморозить воксель %s: %v", v.ID, err)
		}
		if err := c.engine.Freeze(v.ID); err != nil {
			c.opts.Logger.Error("Не удалось остановить воксель %s: %v", v.ID, err)
		}
		if v.Target != nil {
			if err := c.engine.Teleport(v.ID, v.Target.Pos, physics.Upright()); err != nil {
				c.opts.Logger.Error("Не удалось поставить воксель %s: %v", v.ID, err)
			}
			v.Color = v.Target.Color
			v.Locked = true
		}
		v.Target = nil
	}
	c.assignment = nil
	c.rebuildElapsed = 0
	c.transition(Idle, false)
}
