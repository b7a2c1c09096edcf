// Package stream раздаёт кадры симуляции websocket-клиентам и принимает от них команды.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/sim"
)

// Параметры соединения
const (
	sendBuffer     = 16
	readLimit      = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
	commandTimeout = 2 * time.Second
)

// Типы сообщений протокола
const (
	MsgFrame   = "frame"
	MsgCommand = "command"
	MsgResult  = "result"
	MsgError   = "error"
)

// Message сообщение websocket-протокола
type Message struct {
	Type    string       `json:"type"`
	Frame   *sim.Frame   `json:"frame,omitempty"`
	Command *sim.Command `json:"command,omitempty"`
	Result  *sim.Result  `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Commander принимает команды клиентов
type Commander interface {
	Submit(ctx context.Context, cmd sim.Command) (sim.Result, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // зритель открывается с любого origin
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub рассылает кадры всем подключённым клиентам
type Hub struct {
	commander Commander
	logger    *logging.Logger
	every     uint64

	mu      sync.RWMutex
	clients map[string]*client

	// OnClients вызывается при изменении числа клиентов
	OnClients func(n int)
}

// NewHub создаёт хаб, отправляющий каждый every-й кадр (0 и 1 означают каждый)
func NewHub(commander Commander, every int, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if every < 1 {
		every = 1
	}
	return &Hub{
		commander: commander,
		logger:    logger,
		every:     uint64(every),
		clients:   make(map[string]*client),
	}
}

// Len число подключённых клиентов
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishFrame сериализует кадр один раз и раздаёт его без блокировки.
// Клиент с переполненной очередью пропускает кадр.
func (h *Hub) PublishFrame(f *sim.Frame) {
	if f.Tick%h.every != 0 || h.Len() == 0 {
		return
	}
	data, err := json.Marshal(Message{Type: MsgFrame, Frame: f})
	if err != nil {
		h.logger.Error("Не удалось сериализовать кадр %d: %v", f.Tick, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Trace("Клиент %s не успевает, кадр %d пропущен", c.id, f.Tick)
		}
	}
}

// HandleConnection обрабатывает новое websocket-подключение. Блокирует до отключения клиента.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("⚠️ Ошибка upgrade websocket: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), id: uuid.NewString()}
	h.register(c)
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(r.Context(), c)
}

// Close отключает всех клиентов
func (h *Hub) Close() {
	h.mu.Lock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.mu.Unlock()
	h.notify()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Info("📺 Зритель подключён: %s", c.id)
	h.notify()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		close(c.send)
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	h.logger.Info("📺 Зритель отключён: %s", c.id)
	h.notify()
}

func (h *Hub) notify() {
	if h.OnClients != nil {
		h.OnClients(h.Len())
	}
}

// readPump читает команды клиента
func (h *Hub) readPump(ctx context.Context, c *client) {
	defer c.conn.Close()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Ошибка чтения от %s: %v", c.id, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		reply := h.handleMessage(ctx, raw)
		data, err := json.Marshal(reply)
		if err != nil {
			continue
		}
		h.mu.RLock()
		if _, ok := h.clients[c.id]; ok {
			select {
			case c.send <- data:
			default:
			}
		}
		h.mu.RUnlock()
	}
}

func (h *Hub) handleMessage(ctx context.Context, raw []byte) Message {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{Type: MsgError, Error: "malformed message"}
	}
	if msg.Type != MsgCommand || msg.Command == nil {
		return Message{Type: MsgError, Error: "expected command"}
	}
	if h.commander == nil {
		return Message{Type: MsgError, Error: "commands disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	res, err := h.commander.Submit(ctx, *msg.Command)
	if err != nil {
		return Message{Type: MsgError, Error: err.Error()}
	}
	return Message{Type: MsgResult, Result: &res}
}

// writePump отправляет кадры и пинги клиенту
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
