package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/peach-village/internal/api"
	"github.com/annel0/peach-village/internal/auth"
	"github.com/annel0/peach-village/internal/config"
	"github.com/annel0/peach-village/internal/eventbus"
	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/metrics"
	"github.com/annel0/peach-village/internal/observability"
	"github.com/annel0/peach-village/internal/recorder"
	"github.com/annel0/peach-village/internal/shapegen"
	"github.com/annel0/peach-village/internal/sim"
	"github.com/annel0/peach-village/internal/storage"
	"github.com/annel0/peach-village/internal/stream"
)

// streamHz частота кадров для websocket-зрителей
const streamHz = 10

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или VILLAGE_CONFIG)")
	record := flag.Bool("record", false, "записывать кадры независимо от конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *record {
		cfg.Recorder.Enabled = true
	}

	level := logging.ParseLevel(cfg.Logging.ConsoleLevel)
	if err := logging.InitDefaultLogger("village", level); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	logging.GetLoggerManager().SetConsoleLevel(level)

	err = run(cfg)
	logging.Info("👋 Деревня остановлена")
	_ = logging.GetLoggerManager().CloseAll()
	logging.CloseDefaultLogger()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🌸 Запуск Peach Village: сид %d, %d Гц", cfg.Sim.Seed, cfg.Sim.TickRateHz)

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry, logging.Default())
	if err != nil {
		logging.Error("❌ Ошибка инициализации телеметрии: %v", err)
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
		}
	}()

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		logging.Error("❌ Ошибка подключения шины событий: %v", err)
		return err
	}
	defer bus.Close()

	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start()
	defer exporter.Stop()

	if _, err := eventbus.StartLoggingListener(ctx, bus, logging.GetComponentLogger("events")); err != nil {
		logging.Warn("⚠️ LoggingListener не запущен: %v", err)
	}

	// === ХРАНИЛИЩА ===
	var archive *storage.ShapeArchive
	if cfg.Generator.Mode == "http" && cfg.Storage.DataDir != "" {
		archive, err = storage.NewShapeArchive(cfg.Storage.DataDir)
		if err != nil {
			logging.Error("❌ Ошибка открытия архива форм: %v", err)
			return err
		}
		defer archive.Close()
	}

	var statusRepo storage.StatusRepo
	if addr := cfg.Storage.GetRedisAddr(); addr != "" {
		repo, err := storage.NewRedisStatusRepo(&storage.RedisConfig{
			Addr: addr,
			DB:   cfg.Storage.RedisDB,
			Key:  cfg.Storage.StatusKey,
			TTL:  24 * time.Hour,
		})
		if err != nil {
			logging.Error("❌ Ошибка подключения к Redis: %v", err)
			return err
		}
		defer repo.Close()
		statusRepo = repo
		logging.Info("🔴 Снимок статуса публикуется в Redis %s", addr)

		if cfg.Storage.ResumeClock {
			resumeClock(ctx, repo, &cfg.Sim)
		}
	}

	// === СИМУЛЯЦИЯ ===
	simulation, err := sim.New(sim.Options{
		Config:            cfg.Sim,
		Generator:         newGenerator(cfg, collector, archive),
		GenerationTimeout: cfg.Generator.GenerationTimeout(),
		Now:               time.Now,
		Metrics:           collector,
		Events:            eventbus.NewRebuildPublisher(bus, "sim", logging.GetComponentLogger("events")),
		Logger:            logging.GetSimLogger(),
		RebuildLogger:     logging.GetRebuildLogger(),
	})
	if err != nil {
		logging.Error("❌ Ошибка создания симуляции: %v", err)
		return err
	}

	hub := stream.NewHub(simulation, cfg.Sim.TickRateHz/streamHz, logging.GetComponentLogger("stream"))
	hub.OnClients = collector.StreamClients
	simulation.AddSink(hub)
	defer hub.Close()

	if statusRepo != nil {
		sink := storage.NewStatusSink(statusRepo, cfg.Storage.StatusEvery, logging.GetComponentLogger("storage"))
		simulation.AddSink(sink)
		defer sink.Close()
	}

	if cfg.Recorder.Enabled {
		rec, err := recorder.New(cfg.Recorder.Dir, cfg.Sim.TickRateHz, logging.GetComponentLogger("recorder"))
		if err != nil {
			logging.Error("❌ Ошибка запуска записи: %v", err)
			return err
		}
		simulation.AddSink(rec)
		defer rec.Close()
	}

	// === REST API ===
	var issuer *auth.TokenIssuer
	if secret := cfg.Server.JWTSecret(); secret != "" {
		issuer, err = auth.NewTokenIssuerFromBase64(secret)
		if err != nil {
			logging.Error("❌ Неверный секрет %s: %v", cfg.Server.JWTSecretEnv, err)
			return err
		}
		logging.Info("🔒 Команды требуют токен оператора")
	}

	server := api.NewRestServer(api.Config{
		Port:        cfg.Server.GetHTTPPort(),
		ServiceName: cfg.Telemetry.ServiceName,
		Sim:         simulation,
		Stream:      hub.HandleConnection,
		Bus:         bus,
		Registry:    reg,
		Auth:        issuer,
		Logger:      logging.GetAPILogger(),
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	simDone := make(chan error, 1)
	go func() { simDone <- simulation.Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения")
	case err := <-serverErr:
		if err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
			runErr = err
		}
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	if err := <-simDone; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("❌ Симуляция завершилась с ошибкой: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn("⚠️ Ошибка остановки REST API: %v", err)
	}
	return runErr
}

func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("🚌 Шина событий: in-memory")
		return eventbus.NewMemoryBus(1024), nil
	}
	retention := time.Duration(cfg.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, retention)
	if err != nil {
		return nil, err
	}
	logging.Info("🚌 Шина событий: NATS JetStream %s (stream %s)", cfg.URL, cfg.Stream)
	return bus, nil
}

// resumeClock продолжает часы с последнего сохранённого снимка
func resumeClock(ctx context.Context, repo storage.StatusRepo, sc *config.SimConfig) {
	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	snap, found, err := repo.Load(loadCtx)
	switch {
	case err != nil:
		logging.Warn("⚠️ Снимок статуса не прочитан: %v", err)
	case found:
		sc.StartHour = snap.Status.Hour
		logging.Info("🕰️ Часы продолжены с %.2f (тик %d, %s)", snap.Status.Hour, snap.Tick, snap.SavedAt.Format(time.RFC3339))
	}
}

func newGenerator(cfg *config.Config, collector *metrics.Collector, archive *storage.ShapeArchive) shapegen.Generator {
	procedural := shapegen.NewProcedural(cfg.Sim.Seed + 1)
	if cfg.Generator.Mode != "http" {
		logging.Info("🏗️ Генератор форм: офлайн")
		return procedural
	}

	logger := logging.GetShapegenLogger()
	timeout := cfg.Generator.GenerationTimeout()

	var remote shapegen.Generator = shapegen.NewHTTPGenerator(cfg.Generator.Endpoint, cfg.Generator.APIKey(), cfg.Generator.Model, timeout)
	var offline shapegen.Generator = procedural
	if archive != nil {
		remote = shapegen.Record(remote, archive, logger)
		offline = shapegen.WithFallback(shapegen.FromArchive(archive, cfg.Sim.Seed+2), procedural, 0, logger)
	}

	fb := shapegen.WithFallback(remote, offline, timeout, logger)
	fb.OnFallback = collector.GeneratorFallback
	logging.Info("🏗️ Генератор форм: %s (модель %s, архив %v)", cfg.Generator.Endpoint, cfg.Generator.Model, archive != nil)
	return fb
}
