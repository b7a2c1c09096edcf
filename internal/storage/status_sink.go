package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
)

// StatusSink сохраняет каждый every-й кадр в StatusRepo.
// Запись идёт в отдельной горутине; если репозиторий не успевает,
// неотправленный снимок заменяется более свежим.
type StatusSink struct {
	repo    StatusRepo
	every   uint64
	timeout time.Duration
	logger  *logging.Logger

	latest chan StatusSnapshot
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	saved  atomic.Uint64
	failed atomic.Uint64
}

// NewStatusSink запускает фоновую запись
func NewStatusSink(repo StatusRepo, every int, logger *logging.Logger) *StatusSink {
	if every < 1 {
		every = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &StatusSink{
		repo:    repo,
		every:   uint64(every),
		timeout: 2 * time.Second,
		logger:  logger,
		latest:  make(chan StatusSnapshot, 1),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// PublishFrame реализует sim.FrameSink
func (s *StatusSink) PublishFrame(f *sim.Frame) {
	if f.Tick%s.every != 0 {
		return
	}
	snap := SnapshotOf(f)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	// Единственный производитель: поток тиков
	select {
	case <-s.latest:
	default:
	}
	select {
	case s.latest <- snap:
	default:
	}
}

// Saved количество успешно сохранённых снимков
func (s *StatusSink) Saved() uint64 { return s.saved.Load() }

// Failed количество неудачных сохранений
func (s *StatusSink) Failed() uint64 { return s.failed.Load() }

// Close дописывает последний снимок и останавливает горутину. Репозиторий не закрывается.
func (s *StatusSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.latest)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *StatusSink) loop() {
	defer s.wg.Done()
	for snap := range s.latest {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.repo.Save(ctx, snap)
		cancel()
		if err != nil {
			if s.failed.Add(1) == 1 {
				s.logger.Warn("⚠️ Не удалось сохранить статус деревни: %v", err)
			}
			continue
		}
		s.saved.Add(1)
	}
}
