package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации деревни.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Generator GeneratorConfig `yaml:"generator"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SimConfig параметры симуляции
type SimConfig struct {
	Seed             int64   `yaml:"seed"`
	TickRateHz       int     `yaml:"tick_rate_hz"`
	DayLengthSeconds float64 `yaml:"day_length_seconds"` // 0 = время стоит
	StartHour        float64 `yaml:"start_hour"`
	RebuildSeconds   float64 `yaml:"rebuild_seconds"`
	LerpAlpha        float64 `yaml:"lerp_alpha"`
}

// GeneratorConfig параметры генератора форм
type GeneratorConfig struct {
	Mode           string `yaml:"mode"` // procedural | http
	Endpoint       string `yaml:"endpoint"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ServerConfig struct {
	HTTPPort     int    `yaml:"http_port"`
	JWTSecretEnv string `yaml:"jwt_secret_env"` // переменная с base64 секретом; пусто = команды без авторизации
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто = in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type RecorderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// StorageConfig архив форм и снимок статуса
type StorageConfig struct {
	DataDir     string `yaml:"data_dir"`   // каталог BadgerDB; пусто = архив не ведётся
	RedisAddr   string `yaml:"redis_addr"` // пусто = снимок статуса не публикуется
	RedisDB     int    `yaml:"redis_db"`
	StatusKey   string `yaml:"status_key"`
	StatusEvery int    `yaml:"status_every"` // сохранять каждый N-й тик
	ResumeClock bool   `yaml:"resume_clock"` // продолжить часы с сохранённого снимка
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Sim: SimConfig{
			Seed:             20240401,
			TickRateHz:       60,
			DayLengthSeconds: 600,
			StartHour:        12,
			RebuildSeconds:   4,
			LerpAlpha:        0.08,
		},
		Generator: GeneratorConfig{
			Mode:           "procedural",
			APIKeyEnv:      "VILLAGE_GENERATOR_API_KEY",
			Model:          "voxel-architect",
			TimeoutSeconds: 20,
		},
		Server: ServerConfig{
			JWTSecretEnv: "VILLAGE_JWT_SECRET",
		},
		EventBus: EventBusConfig{
			Stream:    "VILLAGE_EVENTS",
			Retention: 24,
		},
		Recorder: RecorderConfig{
			Dir: "recordings",
		},
		Storage: StorageConfig{
			DataDir:     "data",
			StatusKey:   "village:status",
			StatusEvery: 60,
			ResumeClock: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "peach-village",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "INFO",
		},
	}
}

// GetHTTPPort возвращает порт HTTP API с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getPortWithEnvFallback(s.HTTPPort, "VILLAGE_HTTP_PORT", 8088)
}

// JWTSecret читает секрет операторских токенов из переменной окружения
func (s *ServerConfig) JWTSecret() string {
	if s.JWTSecretEnv == "" {
		return ""
	}
	return os.Getenv(s.JWTSecretEnv)
}

// GenerationTimeout возвращает ограничение на один вызов генератора
func (g *GeneratorConfig) GenerationTimeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// APIKey читает ключ генератора из переменной окружения
func (g *GeneratorConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// TickInterval возвращает длительность одного тика
func (s *SimConfig) TickInterval() time.Duration {
	hz := s.TickRateHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

// GetRedisAddr возвращает адрес Redis: config -> env VILLAGE_REDIS_ADDR
func (s *StorageConfig) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	return os.Getenv("VILLAGE_REDIS_ADDR")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VILLAGE_CONFIG, иначе возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VILLAGE_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return cfg, nil
}
