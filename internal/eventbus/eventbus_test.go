package eventbus

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/rebuild"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []*Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Envelope, len(c.events))
	copy(out, c.events)
	return out
}

func TestMemoryBus_DeliversInOrder(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ev, err := NewEnvelope("test", TypePhaseChanged, 5, map[string]int{"n": i})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	require.Eventually(t, func() bool { return len(c.snapshot()) == 5 }, time.Second, 5*time.Millisecond)
	for i, ev := range c.snapshot() {
		var body map[string]int
		require.NoError(t, ev.Decode(&body))
		assert.Equal(t, i, body["n"], "события должны приходить в порядке публикации")
	}
	assert.Equal(t, uint64(5), bus.Metrics().Published)
}

func TestMemoryBus_Filter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	phases := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypePhaseChanged}}, phases.handle)
	require.NoError(t, err)

	other := &collector{}
	_, err = bus.Subscribe(context.Background(), Filter{Sources: []string{"clock"}}, other.handle)
	require.NoError(t, err)

	ev1, _ := NewEnvelope("sim", TypePhaseChanged, 5, nil)
	ev2, _ := NewEnvelope("clock", TypeTimeChanged, 5, nil)
	require.NoError(t, bus.Publish(context.Background(), ev1))
	require.NoError(t, bus.Publish(context.Background(), ev2))

	require.Eventually(t, func() bool {
		return len(phases.snapshot()) == 1 && len(other.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, TypePhaseChanged, phases.snapshot()[0].EventType)
	assert.Equal(t, "clock", other.snapshot()[0].Source)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	c := &collector{}
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope("sim", TypePhaseChanged, 5, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.Eventually(t, func() bool { return bus.Metrics().InFlight == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c.snapshot())
}

func TestMemoryBus_PublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "повторное закрытие безопасно")

	ev, _ := NewEnvelope("sim", TypePhaseChanged, 5, nil)
	assert.True(t, errors.Is(bus.Publish(context.Background(), ev), ErrClosed))
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	block := make(chan struct{})
	bus := NewMemoryBus(1)
	defer func() {
		close(block)
		bus.Close()
	}()

	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) { <-block })
	require.NoError(t, err)

	ev, _ := NewEnvelope("sim", TypeTimeChanged, 1, nil)
	// Первое событие забирает dispatchLoop и блокируется в обработчике
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.Eventually(t, func() bool { return bus.Metrics().InFlight == 0 }, time.Second, 5*time.Millisecond)
	// Второе занимает буфер, третье отбрасывается
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Publish(context.Background(), ev))

	assert.Equal(t, uint64(1), bus.Metrics().Dropped)
}

func TestRebuildPublisher(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	logger := logging.NewWriterLogger("eventbus", &bytes.Buffer{}, logging.DEBUG)
	pub := NewRebuildPublisher(bus, "sim", logger)

	pub.PhaseChanged(rebuild.Transition{
		From:      rebuild.Exploding,
		To:        rebuild.Rebuilding,
		ShapeName: "Small Shrine",
		Voxels:    42,
		Fallback:  true,
	})
	pub.GenerationDone(rebuild.GenerationReport{
		Requested: "Procedural Peach Blossom Village",
		Produced:  "Small Shrine",
		Blocks:    42,
		Duration:  1500 * time.Millisecond,
		Err:       errors.New("boom"),
		Fallback:  true,
	})

	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	events := c.snapshot()

	assert.Equal(t, TypePhaseChanged, events[0].EventType)
	assert.NotEmpty(t, events[0].ID)
	var phase PhaseChangedPayload
	require.NoError(t, events[0].Decode(&phase))
	assert.Equal(t, "exploding", phase.From)
	assert.Equal(t, "rebuilding", phase.To)
	assert.Equal(t, 42, phase.Voxels)
	assert.True(t, phase.Fallback)

	var report GenerationDonePayload
	require.NoError(t, events[1].Decode(&report))
	assert.Equal(t, int64(1500), report.DurationMs)
	assert.Equal(t, "boom", report.Error)
}

func TestStartLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	var buf safeBuffer
	logger := logging.NewWriterLogger("eventbus", &buf, logging.DEBUG)
	sub, err := StartLoggingListener(context.Background(), bus, logger)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ev, _ := NewEnvelope("sim", TypePhaseChanged, 5, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte(ev.ID))
	}, time.Second, 5*time.Millisecond)
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
