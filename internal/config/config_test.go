package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("VILLAGE_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.08, cfg.Sim.LerpAlpha)
	assert.Equal(t, 4.0, cfg.Sim.RebuildSeconds)
	assert.Equal(t, 20*time.Second, cfg.Generator.GenerationTimeout())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "village.yaml")
	data := []byte("sim:\n  seed: 7\n  tick_rate_hz: 30\ngenerator:\n  mode: http\n  endpoint: http://localhost:9999/generate\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Sim.Seed)
	assert.Equal(t, time.Second/30, cfg.Sim.TickInterval())
	assert.Equal(t, "http", cfg.Generator.Mode)
	assert.Equal(t, 0.08, cfg.Sim.LerpAlpha, "незаданные поля остаются по умолчанию")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "нет.yaml"))
	assert.Error(t, err)
}

func TestGetHTTPPort_EnvFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("VILLAGE_HTTP_PORT", "9091")
	assert.Equal(t, 9091, s.GetHTTPPort())

	s.HTTPPort = 7000
	assert.Equal(t, 7000, s.GetHTTPPort(), "значение из конфига приоритетнее env")

	t.Setenv("VILLAGE_HTTP_PORT", "мусор")
	s.HTTPPort = 0
	assert.Equal(t, 8088, s.GetHTTPPort())
}

func TestStorageConfig_RedisAddr(t *testing.T) {
	t.Setenv("VILLAGE_REDIS_ADDR", "")
	cfg := Default()
	assert.Equal(t, "", cfg.Storage.GetRedisAddr(), "по умолчанию Redis не используется")
	assert.Equal(t, "data", cfg.Storage.DataDir)

	t.Setenv("VILLAGE_REDIS_ADDR", "redis:6379")
	assert.Equal(t, "redis:6379", cfg.Storage.GetRedisAddr())

	cfg.Storage.RedisAddr = "localhost:6380"
	assert.Equal(t, "localhost:6380", cfg.Storage.GetRedisAddr())
}

func TestServerConfig_JWTSecret(t *testing.T) {
	s := Default().Server
	t.Setenv("VILLAGE_JWT_SECRET", "")
	assert.Equal(t, "", s.JWTSecret())

	t.Setenv("VILLAGE_JWT_SECRET", "c2VjcmV0")
	assert.Equal(t, "c2VjcmV0", s.JWTSecret())

	s.JWTSecretEnv = ""
	assert.Equal(t, "", s.JWTSecret(), "без имени переменной авторизация выключена")
}
