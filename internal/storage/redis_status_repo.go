package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr     string        // Адрес Redis сервера
	Password string        // Пароль (пустой если не требуется)
	DB       int           // Номер базы данных
	Key      string        // Ключ снимка
	TTL      time.Duration // Время жизни записи, 0 = без истечения
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr: "localhost:6379",
		Key:  "village:status",
		TTL:  24 * time.Hour,
	}
}

// RedisStatusRepo хранит последний снимок деревни в Redis
type RedisStatusRepo struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStatusRepo подключается к Redis и проверяет соединение
func NewRedisStatusRepo(config *RedisConfig) (*RedisStatusRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.Key == "" {
		config.Key = DefaultRedisConfig().Key
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStatusRepo{client: client, key: config.Key, ttl: config.TTL}, nil
}

func (r *RedisStatusRepo) Save(ctx context.Context, snap StatusSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func (r *RedisStatusRepo) Load(ctx context.Context) (StatusSnapshot, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return StatusSnapshot{}, false, nil
	}
	if err != nil {
		return StatusSnapshot{}, false, fmt.Errorf("failed to get status: %w", err)
	}

	var snap StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return StatusSnapshot{}, false, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return snap, true, nil
}

// Delete удаляет снимок (для тестов или сброса)
func (r *RedisStatusRepo) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *RedisStatusRepo) Close() error {
	return r.client.Close()
}
