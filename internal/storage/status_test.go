package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
	"github.com/annel0/peach-village/internal/vec"
)

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("storage", &bytes.Buffer{}, logging.ERROR)
}

func testFrame(tick uint64, hour float64) *sim.Frame {
	f := &sim.Frame{Tick: tick, Elapsed: float64(tick) / 60}
	f.Status = sim.Status{Phase: "idle", Shape: "village", Hour: hour}
	f.Player.Pos = vec.Vec3{X: 1, Y: 0, Z: float64(tick)}
	return f
}

func TestMemoryStatusRepo(t *testing.T) {
	repo := NewMemoryStatusRepo()
	ctx := context.Background()

	_, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found, "Пустой репозиторий не должен возвращать снимок")

	require.NoError(t, repo.Save(ctx, SnapshotOf(testFrame(10, 18.5))))
	snap, found, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(10), snap.Tick)
	assert.Equal(t, 18.5, snap.Status.Hour)
	assert.Equal(t, 10.0, snap.Player.Z)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, repo.Save(cancelled, StatusSnapshot{}), context.Canceled)
}

func TestStatusSink(t *testing.T) {
	repo := NewMemoryStatusRepo()
	sink := NewStatusSink(repo, 5, quietLogger())

	for tick := uint64(1); tick <= 12; tick++ {
		sink.PublishFrame(testFrame(tick, 6))
	}
	sink.Close()

	snap, found, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	// Последний сохранённый снимок всегда самый свежий из прошедших фильтр
	assert.Equal(t, uint64(10), snap.Tick)
	assert.GreaterOrEqual(t, sink.Saved(), uint64(1))
	assert.LessOrEqual(t, sink.Saved(), uint64(2))

	t.Run("после закрытия кадры игнорируются", func(t *testing.T) {
		sink.Close()
		sink.PublishFrame(testFrame(15, 6))
		snap, _, _ := repo.Load(context.Background())
		assert.Equal(t, uint64(10), snap.Tick)
	})
}

type failingRepo struct{ MemoryStatusRepo }

func (f *failingRepo) Save(context.Context, StatusSnapshot) error {
	return errors.New("connection refused")
}

func TestStatusSink_RepoFailure(t *testing.T) {
	sink := NewStatusSink(&failingRepo{}, 1, quietLogger())
	sink.PublishFrame(testFrame(1, 12))
	sink.Close()

	assert.Equal(t, uint64(0), sink.Saved())
	assert.Equal(t, uint64(1), sink.Failed())
}

// Требует живой Redis: VILLAGE_TEST_REDIS_ADDR=localhost:6379
func TestRedisStatusRepo(t *testing.T) {
	addr := os.Getenv("VILLAGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VILLAGE_TEST_REDIS_ADDR не задан")
	}

	repo, err := NewRedisStatusRepo(&RedisConfig{Addr: addr, Key: "village:test:status", TTL: time.Minute})
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Delete(ctx))

	_, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Save(ctx, SnapshotOf(testFrame(42, 21))))
	snap, found, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(42), snap.Tick)
	assert.Equal(t, 21.0, snap.Status.Hour)
}

func TestNewRedisStatusRepo_Unreachable(t *testing.T) {
	_, err := NewRedisStatusRepo(&RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
