// Package sim связывает компоненты деревни в единый контекст симуляции:
// очередь команд, порядок тика и проекцию кадра для потребителей.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/peach-village/internal/clock"
	"github.com/annel0/peach-village/internal/config"
	"github.com/annel0/peach-village/internal/eventbus"
	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/metrics"
	"github.com/annel0/peach-village/internal/physics"
	"github.com/annel0/peach-village/internal/player"
	"github.com/annel0/peach-village/internal/rebuild"
	"github.com/annel0/peach-village/internal/shapegen"
	"github.com/annel0/peach-village/internal/util"
	"github.com/annel0/peach-village/internal/villager"
	"github.com/annel0/peach-village/internal/world"
)

// Options зависимости симуляции. Пустые поля заменяются значениями по умолчанию.
type Options struct {
	Config            config.SimConfig
	Generator         shapegen.Generator
	GenerationTimeout time.Duration
	Engine            physics.Engine
	Metrics           *metrics.Collector
	Events            *eventbus.RebuildPublisher
	Sinks             []FrameSink
	Rand              *rand.Rand       // косметический генератор
	Now               func() time.Time // часы таймера сборки; nil = секунды симуляции
	Logger            *logging.Logger
	RebuildLogger     *logging.Logger // по умолчанию Logger
}

// Simulation явный контекст симуляции. Состояние меняет только поток тиков.
type Simulation struct {
	cfg     config.SimConfig
	logger  *logging.Logger
	metrics *metrics.Collector
	events  *eventbus.RebuildPublisher

	engine  physics.Engine
	coord   *rebuild.Coordinator
	crowd   *villager.Crowd
	clock   *clock.Clock
	avatar  *player.Avatar
	scenery world.Scenery

	inbox chan Command
	sinks []FrameSink

	sinksMu sync.RWMutex
	latest  atomic.Pointer[Frame]

	tick    uint64
	elapsed float64
	runCtx  context.Context
}

// New собирает деревню из сида конфигурации
func New(opts Options) (*Simulation, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = util.NewCosmetic()
	}
	rebuildLogger := opts.RebuildLogger
	if rebuildLogger == nil {
		rebuildLogger = logger
	}
	engine := opts.Engine
	if engine == nil {
		engine = physics.NewPointWorld()
	}

	s := &Simulation{
		cfg:     cfg,
		logger:  logger,
		metrics: opts.Metrics,
		events:  opts.Events,
		engine:  engine,
		clock:   clock.New(clock.TimeOfDay(cfg.StartHour), cfg.DayLengthSeconds),
		avatar:  player.NewAvatar(),
		scenery: world.BuildScenery(cfg.Seed),
		inbox:   make(chan Command, InboxSize),
		sinks:   append([]FrameSink(nil), opts.Sinks...),
		runCtx:  context.Background(),
	}

	var observers rebuild.Observers
	if opts.Metrics != nil {
		observers = append(observers, opts.Metrics)
	}
	if opts.Events != nil {
		observers = append(observers, opts.Events)
	}

	initial := world.BuildVillage(cfg.Seed)
	coord, err := rebuild.NewCoordinator(engine, opts.Generator, initial, rebuild.Options{
		LerpAlpha:         cfg.LerpAlpha,
		RebuildDelay:      cfg.RebuildSeconds,
		GenerationTimeout: opts.GenerationTimeout,
		Rand:              rng,
		TimeOfDay:         func() float64 { return float64(s.clock.Now()) },
		Now:               opts.Now,
		Observer:          observers,
		Logger:            rebuildLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("init coordinator: %w", err)
	}
	s.coord = coord
	s.crowd = villager.NewCrowd(villager.SpawnPopulation(cfg.Seed), rng)

	s.latest.Store(s.project())
	logger.Info("🏗️ Деревня собрана: сид %d, вокселей %d, жителей %d, деревьев %d",
		cfg.Seed, coord.VoxelCount(), s.crowd.Len(), len(s.scenery.Trees))
	return s, nil
}

// AddSink подключает потребителя кадров
func (s *Simulation) AddSink(sink FrameSink) {
	s.sinksMu.Lock()
	s.sinks = append(s.sinks, sink)
	s.sinksMu.Unlock()
}

// Scenery статичные декорации
func (s *Simulation) Scenery() world.Scenery {
	return s.scenery
}

// Latest последний опубликованный кадр. Безопасен для чтения из любых горутин.
func (s *Simulation) Latest() *Frame {
	return s.latest.Load()
}

// Status сводка последнего кадра
func (s *Simulation) Status() Status {
	return s.Latest().Status
}

// Enqueue ставит команду в очередь без ожидания результата
func (s *Simulation) Enqueue(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	select {
	case s.inbox <- cmd:
		return nil
	default:
		return ErrInboxFull
	}
}

// Submit ставит команду в очередь и ждёт её обработки в ближайшем тике
func (s *Simulation) Submit(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}
	cmd.reply = make(chan Result, 1)
	select {
	case s.inbox <- cmd:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
		return Result{}, ErrInboxFull
	}
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Run выполняет тики с частотой конфигурации до отмены ctx
func (s *Simulation) Run(ctx context.Context) error {
	s.runCtx = ctx
	interval := s.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("▶️ Симуляция запущена: %d Гц", int(time.Second/interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("⏹️ Симуляция остановлена на тике %d", s.tick)
			return ctx.Err()
		case <-ticker.C:
			s.Tick(interval.Seconds())
		}
	}
}

// Tick продвигает мир на dt секунд: команды, игрок, физика, координатор,
// жители, часы, затем проекция кадра.
func (s *Simulation) Tick(dt float64) *Frame {
	start := time.Now()

	s.drainInbox()
	s.avatar.Update(dt)
	s.engine.Step(dt)
	s.coord.Update(dt)
	s.elapsed += dt
	s.crowd.Update(dt, s.elapsed, s.avatar.Camera())
	s.clock.Advance(dt)
	s.tick++

	frame := s.project()
	s.latest.Store(frame)

	s.sinksMu.RLock()
	for _, sink := range s.sinks {
		sink.PublishFrame(frame)
	}
	s.sinksMu.RUnlock()

	if s.metrics != nil {
		s.metrics.ObserveTick(time.Since(start))
		s.metrics.SetWorld(frame.Status.Voxels, frame.Status.Locked, frame.Status.Hour)
		s.metrics.SetVillagers(frame.Status.Villagers)
	}
	return frame
}

func (s *Simulation) drainInbox() {
	for {
		select {
		case cmd := <-s.inbox:
			res := s.apply(cmd)
			if s.metrics != nil {
				s.metrics.CommandHandled(string(cmd.Kind), res.Accepted)
			}
			if cmd.reply != nil {
				cmd.reply <- res
			}
		default:
			return
		}
	}
}

func (s *Simulation) apply(cmd Command) Result {
	var accepted bool
	switch cmd.Kind {
	case CmdSmash:
		accepted = s.coord.Smash()
	case CmdRebuild:
		accepted = s.coord.RequestRebuild(s.runCtx)
	case CmdToggleTime:
		s.clock.Toggle()
		accepted = true
		s.timeChanged("toggle")
	case CmdSetTime:
		s.clock.Set(clock.TimeOfDay(*cmd.Hour))
		accepted = true
		s.timeChanged("set")
	case CmdPlayerInput:
		s.avatar.SetInput(*cmd.Input)
		accepted = true
	default:
		s.logger.Debug("Неизвестная команда %q", cmd.Kind)
	}
	return Result{
		Kind:     cmd.Kind,
		Accepted: accepted,
		Phase:    s.coord.Phase().String(),
		Hour:     float64(s.clock.Now()),
		Tick:     s.tick,
	}
}

func (s *Simulation) timeChanged(reason string) {
	now := s.clock.Now()
	s.logger.Info("🌗 Время суток: %.2f (%s)", float64(now), clock.BandOf(now))
	if s.events != nil {
		s.events.TimeChanged(eventbus.TimeChangedPayload{
			Hour:    float64(now),
			Band:    string(clock.BandOf(now)),
			Lantern: clock.LanternsLit(now),
			Reason:  reason,
		})
	}
}

// project строит кадр из текущего состояния
func (s *Simulation) project() *Frame {
	now := s.clock.Now()
	lit := clock.LanternsLit(now)

	byRole := make(map[string]int, 3)
	for role, n := range s.crowd.CountByRole() {
		byRole[role.String()] = n
	}

	return &Frame{
		Tick:    s.tick,
		Elapsed: s.elapsed,
		Status: Status{
			Phase:       s.coord.Phase().String(),
			Shape:       s.coord.Shape().Name,
			Pending:     s.coord.Pending(),
			Voxels:      s.coord.VoxelCount(),
			Locked:      s.coord.Locked(),
			Hour:        float64(now),
			Band:        clock.BandOf(now),
			LanternsLit: lit,
			Villagers:   byRole,
		},
		Lighting:  clock.DeriveLighting(now),
		Voxels:    s.coord.Snapshot(),
		Villagers: s.crowd.Snapshot(),
		Player:    *s.avatar,
		Lamps:     s.scenery.WithLanterns(lit),
	}
}
