// Package recorder пишет кадры симуляции в сжатый zstd JSONL-файл.
package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
)

// queueSize очередь кадров между потоком тиков и писателем
const queueSize = 64

// maxLine предельный размер строки кадра при чтении
const maxLine = 64 << 20

// ErrClosed запись после Close
var ErrClosed = errors.New("recorder: closed")

// Recorder асинхронно записывает каждый every-й кадр
type Recorder struct {
	path   string
	every  uint64
	logger *logging.Logger

	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer

	mu     sync.RWMutex
	queue  chan *sim.Frame
	done   chan struct{}
	closed bool

	written atomic.Uint64
	dropped atomic.Uint64
	err     error
}

// FileName имя файла записи для момента t
func FileName(t time.Time) string {
	return fmt.Sprintf("frames-%s.jsonl.zst", t.UTC().Format("2006-01-02-150405"))
}

// New создаёт файл записи в dir
func New(dir string, every int, logger *logging.Logger) (*Recorder, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if every < 1 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recorder dir: %w", err)
	}
	path := filepath.Join(dir, FileName(time.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}

	r := &Recorder{
		path:   path,
		every:  uint64(every),
		logger: logger,
		f:      f,
		enc:    enc,
		w:      bufio.NewWriterSize(enc, 128*1024),
		queue:  make(chan *sim.Frame, queueSize),
		done:   make(chan struct{}),
	}
	go r.loop()
	logger.Info("📼 Запись кадров: %s (каждый %d-й)", path, every)
	return r, nil
}

// Path путь файла записи
func (r *Recorder) Path() string {
	return r.path
}

// Written число записанных кадров
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}

// Dropped число кадров, не попавших в очередь
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// PublishFrame ставит кадр в очередь записи без блокировки
func (r *Recorder) PublishFrame(f *sim.Frame) {
	if f.Tick%r.every != 0 {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- f:
	default:
		r.dropped.Add(1)
	}
}

// Close дописывает очередь и закрывает файл
func (r *Recorder) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
	return r.err
}

func (r *Recorder) loop() {
	defer close(r.done)
	var failed bool
	for f := range r.queue {
		if failed {
			continue
		}
		if err := r.write(f); err != nil {
			r.logger.Error("Ошибка записи кадра %d: %v", f.Tick, err)
			r.err = err
			failed = true
		}
	}

	if err := r.w.Flush(); err != nil && r.err == nil {
		r.err = err
	}
	if err := r.enc.Close(); err != nil && r.err == nil {
		r.err = err
	}
	if err := r.f.Close(); err != nil && r.err == nil {
		r.err = err
	}
	r.logger.Info("📼 Запись завершена: %d кадров, пропущено %d", r.written.Load(), r.dropped.Load())
}

func (r *Recorder) write(f *sim.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	r.written.Add(1)
	return nil
}

// Replay читает записанные кадры и передаёт их fn по порядку
func Replay(path string, fn func(sim.Frame) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	return scan(dec, fn)
}

func scan(rd io.Reader, fn func(sim.Frame) error) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 1<<20), maxLine)
	line := 0
	for sc.Scan() {
		line++
		var frame sim.Frame
		if err := json.Unmarshal(sc.Bytes(), &frame); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
	return sc.Err()
}
