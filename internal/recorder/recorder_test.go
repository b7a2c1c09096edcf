package recorder

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
)

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("recorder", &bytes.Buffer{}, logging.ERROR)
}

func TestRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, 2, quietLogger())
	require.NoError(t, err)

	for tick := uint64(1); tick <= 6; tick++ {
		rec.PublishFrame(&sim.Frame{Tick: tick, Status: sim.Status{Phase: "idle", Hour: 12}})
	}
	require.NoError(t, rec.Close())
	assert.Equal(t, uint64(3), rec.Written())

	var ticks []uint64
	err = Replay(rec.Path(), func(f sim.Frame) error {
		ticks = append(ticks, f.Tick)
		assert.Equal(t, "idle", f.Status.Phase)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4, 6}, ticks)
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	rec, err := New(t.TempDir(), 1, quietLogger())
	require.NoError(t, err)
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	// После закрытия кадры молча игнорируются
	rec.PublishFrame(&sim.Frame{Tick: 1})
	assert.Equal(t, uint64(0), rec.Written())
}

func TestRecorder_FileInDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	rec, err := New(dir, 1, quietLogger())
	require.NoError(t, err)
	defer rec.Close()

	assert.Equal(t, dir, filepath.Dir(rec.Path()))
	_, err = os.Stat(rec.Path())
	assert.NoError(t, err)
}

func TestReplay_StopsOnCallbackError(t *testing.T) {
	rec, err := New(t.TempDir(), 1, quietLogger())
	require.NoError(t, err)
	rec.PublishFrame(&sim.Frame{Tick: 1})
	rec.PublishFrame(&sim.Frame{Tick: 2})
	require.NoError(t, rec.Close())

	stop := errors.New("stop")
	calls := 0
	err = Replay(rec.Path(), func(sim.Frame) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReplay_MissingFile(t *testing.T) {
	err := Replay(filepath.Join(t.TempDir(), "absent.jsonl.zst"), func(sim.Frame) error { return nil })
	assert.True(t, os.IsNotExist(err) || errors.Is(err, os.ErrNotExist))
}
