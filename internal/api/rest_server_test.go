package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/auth"
	"github.com/annel0/peach-village/internal/eventbus"
	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
	"github.com/annel0/peach-village/internal/world"
)

type fakeSim struct {
	mu       sync.Mutex
	commands []sim.Command
	accept   bool
	err      error
}

func (f *fakeSim) Submit(_ context.Context, cmd sim.Command) (sim.Result, error) {
	if err := cmd.Validate(); err != nil {
		return sim.Result{}, err
	}
	if f.err != nil {
		return sim.Result{}, f.err
	}
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	return sim.Result{Kind: cmd.Kind, Accepted: f.accept, Phase: "idle", Hour: 12}, nil
}

func (f *fakeSim) Status() sim.Status {
	return sim.Status{Phase: "idle", Shape: world.VillageName, Voxels: 100, Hour: 12}
}

func (f *fakeSim) Latest() *sim.Frame {
	return &sim.Frame{Tick: 5, Status: f.Status()}
}

func (f *fakeSim) Scenery() world.Scenery {
	return world.Scenery{Table: world.MahjongTable}
}

func (f *fakeSim) last() sim.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commands[len(f.commands)-1]
}

func newTestServer(s *fakeSim, bus eventbus.EventBus) *RestServer {
	return NewRestServer(Config{
		Sim:      s,
		Bus:      bus,
		Registry: prometheus.NewRegistry(),
		Logger:   logging.NewWriterLogger("api", &bytes.Buffer{}, logging.ERROR),
	})
}

func do(t *testing.T, rs *RestServer, method, path, body string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)

	var resp GenericResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRestServer_Health(t *testing.T) {
	rs := newTestServer(&fakeSim{}, nil)
	w, resp := do(t, rs, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "host")
	assert.Equal(t, float64(5), data["tick"])
}

func TestRestServer_State(t *testing.T) {
	rs := newTestServer(&fakeSim{}, nil)
	w, resp := do(t, rs, http.MethodGet, "/api/state", "")

	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "idle", data["phase"])
	assert.Equal(t, world.VillageName, data["shape"])
}

func TestRestServer_Commands(t *testing.T) {
	t.Run("принятая команда", func(t *testing.T) {
		s := &fakeSim{accept: true}
		rs := newTestServer(s, nil)
		w, resp := do(t, rs, http.MethodPost, "/api/commands/smash", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, sim.CmdSmash, s.last().Kind)
	})

	t.Run("отклонённая фазой команда", func(t *testing.T) {
		rs := newTestServer(&fakeSim{accept: false}, nil)
		w, resp := do(t, rs, http.MethodPost, "/api/commands/rebuild", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, resp.Success)
	})

	t.Run("установка времени", func(t *testing.T) {
		s := &fakeSim{accept: true}
		rs := newTestServer(s, nil)
		w, _ := do(t, rs, http.MethodPut, "/api/time", `{"hour": 0}`)
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, s.last().Hour)
		assert.Equal(t, 0.0, *s.last().Hour)
	})

	t.Run("время без часа", func(t *testing.T) {
		rs := newTestServer(&fakeSim{accept: true}, nil)
		w, _ := do(t, rs, http.MethodPut, "/api/time", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ввод игрока", func(t *testing.T) {
		s := &fakeSim{accept: true}
		rs := newTestServer(s, nil)
		w, _ := do(t, rs, http.MethodPost, "/api/player/input", `{"forward": true, "camera_yaw": 1.5}`)
		assert.Equal(t, http.StatusOK, w.Code)
		in := s.last().Input
		require.NotNil(t, in)
		assert.True(t, in.Forward)
		assert.Equal(t, 1.5, in.CameraYaw)
	})

	t.Run("универсальная команда", func(t *testing.T) {
		s := &fakeSim{accept: true}
		rs := newTestServer(s, nil)
		w, _ := do(t, rs, http.MethodPost, "/api/commands", `{"kind": "toggle_time"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, sim.CmdToggleTime, s.last().Kind)
	})

	t.Run("неизвестная команда", func(t *testing.T) {
		rs := newTestServer(&fakeSim{accept: true}, nil)
		w, _ := do(t, rs, http.MethodPost, "/api/commands", `{"kind": "dance"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("очередь переполнена", func(t *testing.T) {
		rs := newTestServer(&fakeSim{err: sim.ErrInboxFull}, nil)
		w, _ := do(t, rs, http.MethodPost, "/api/commands/smash", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestRestServer_EventStats(t *testing.T) {
	rs := newTestServer(&fakeSim{}, nil)
	w, _ := do(t, rs, http.MethodGet, "/api/events/stats", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	bus := eventbus.NewMemoryBus(4)
	defer bus.Close()
	rs = newTestServer(&fakeSim{}, bus)
	w, resp := do(t, rs, http.MethodGet, "/api/events/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestRestServer_Metrics(t *testing.T) {
	rs := newTestServer(&fakeSim{}, nil)
	do(t, rs, http.MethodGet, "/api/state", "")

	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "village_api_http_request_duration_seconds")
}

func TestRestServer_Auth(t *testing.T) {
	issuer, err := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	s := &fakeSim{accept: true}
	rs := NewRestServer(Config{
		Sim:      s,
		Registry: prometheus.NewRegistry(),
		Auth:     issuer,
		Stream:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) },
		Logger:   logging.NewWriterLogger("api", &bytes.Buffer{}, logging.ERROR),
	})
	token, err := issuer.Issue("tester", time.Minute)
	require.NoError(t, err)

	send := func(path, header string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		rs.Handler().ServeHTTP(w, req)
		return w.Code
	}

	t.Run("чтение без токена", func(t *testing.T) {
		w, _ := do(t, rs, http.MethodGet, "/api/state", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("команда без токена", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, send("/api/commands/smash", ""))
		assert.Empty(t, s.commands)
	})

	t.Run("неверная схема", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, send("/api/commands/smash", "Basic "+token))
	})

	t.Run("испорченный токен", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, send("/api/commands/smash", "Bearer "+token+"x"))
	})

	t.Run("валидный токен", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send("/api/commands/smash", "Bearer "+token))
		assert.Equal(t, sim.CmdSmash, s.last().Kind)
	})

	t.Run("websocket через query", func(t *testing.T) {
		w := httptest.NewRecorder()
		rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = httptest.NewRecorder()
		rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5e9))
	assert.Equal(t, "1м 5с", formatUptime(65e9))
}

func init() {
	gin.SetMode(gin.TestMode)
}
