package storage

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/peach-village/internal/sim"
	"github.com/annel0/peach-village/internal/vec"
)

// StatusSnapshot последнее сохранённое состояние деревни.
// Используется внешними панелями и для продолжения часов после перезапуска.
type StatusSnapshot struct {
	Tick    uint64     `json:"tick"`
	Elapsed float64    `json:"elapsed"`
	Status  sim.Status `json:"status"`
	Player  vec.Vec3   `json:"player"`
	SavedAt time.Time  `json:"saved_at"`
}

// SnapshotOf строит снимок из кадра
func SnapshotOf(f *sim.Frame) StatusSnapshot {
	return StatusSnapshot{
		Tick:    f.Tick,
		Elapsed: f.Elapsed,
		Status:  f.Status,
		Player:  f.Player.Pos,
		SavedAt: time.Now().UTC(),
	}
}

// StatusRepo хранилище последнего снимка
type StatusRepo interface {
	// Save перезаписывает снимок
	Save(ctx context.Context, snap StatusSnapshot) error
	// Load возвращает снимок; false если ещё ничего не сохранено
	Load(ctx context.Context) (StatusSnapshot, bool, error)
	Close() error
}

// MemoryStatusRepo StatusRepo в памяти процесса
type MemoryStatusRepo struct {
	mu    sync.RWMutex
	snap  StatusSnapshot
	found bool
	saves int
}

// NewMemoryStatusRepo создаёт пустой репозиторий
func NewMemoryStatusRepo() *MemoryStatusRepo {
	return &MemoryStatusRepo{}
}

func (m *MemoryStatusRepo) Save(ctx context.Context, snap StatusSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.found = true
	m.saves++
	return nil
}

func (m *MemoryStatusRepo) Load(ctx context.Context) (StatusSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return StatusSnapshot{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, m.found, nil
}

// Saves количество выполненных сохранений
func (m *MemoryStatusRepo) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MemoryStatusRepo) Close() error { return nil }
