package stream

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
)

type fakeCommander struct {
	mu   sync.Mutex
	seen []sim.CommandKind
}

func (f *fakeCommander) Submit(_ context.Context, cmd sim.Command) (sim.Result, error) {
	if err := cmd.Validate(); err != nil {
		return sim.Result{}, err
	}
	f.mu.Lock()
	f.seen = append(f.seen, cmd.Kind)
	f.mu.Unlock()
	return sim.Result{Kind: cmd.Kind, Accepted: true, Phase: "exploding"}, nil
}

func startHub(t *testing.T, every int, onClients ...func(int)) (*Hub, *fakeCommander, *websocket.Conn) {
	t.Helper()
	cmd := &fakeCommander{}
	hub := NewHub(cmd, every, logging.NewWriterLogger("stream", &bytes.Buffer{}, logging.ERROR))
	if len(onClients) > 0 {
		hub.OnClients = onClients[0]
	}

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	return hub, cmd, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_BroadcastsEveryNthFrame(t *testing.T) {
	hub, _, conn := startHub(t, 2)

	hub.PublishFrame(&sim.Frame{Tick: 1})
	hub.PublishFrame(&sim.Frame{Tick: 2, Status: sim.Status{Phase: "idle"}})

	msg := readMessage(t, conn)
	assert.Equal(t, MsgFrame, msg.Type)
	require.NotNil(t, msg.Frame)
	assert.Equal(t, uint64(2), msg.Frame.Tick, "нечётный кадр должен быть пропущен")
	assert.Equal(t, "idle", msg.Frame.Status.Phase)
}

func TestHub_AcceptsCommands(t *testing.T) {
	_, cmd, conn := startHub(t, 1)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    MsgCommand,
		"command": map[string]interface{}{"kind": "smash"},
	}))
	msg := readMessage(t, conn)
	assert.Equal(t, MsgResult, msg.Type)
	require.NotNil(t, msg.Result)
	assert.True(t, msg.Result.Accepted)

	cmd.mu.Lock()
	assert.Equal(t, []sim.CommandKind{sim.CmdSmash}, cmd.seen)
	cmd.mu.Unlock()
}

func TestHub_RejectsBadMessages(t *testing.T) {
	_, _, conn := startHub(t, 1)

	t.Run("не JSON", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))
		msg := readMessage(t, conn)
		assert.Equal(t, MsgError, msg.Type)
	})

	t.Run("неизвестная команда", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"type":    MsgCommand,
			"command": map[string]interface{}{"kind": "dance"},
		}))
		msg := readMessage(t, conn)
		assert.Equal(t, MsgError, msg.Type)
		assert.Contains(t, msg.Error, "unknown command")
	})
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	var (
		mu     sync.Mutex
		counts []int
	)
	hub, _, conn := startHub(t, 1, func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	})

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int{1, 0}, counts)
	mu.Unlock()
}
