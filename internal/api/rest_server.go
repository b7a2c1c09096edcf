package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/peach-village/internal/auth"
	"github.com/annel0/peach-village/internal/eventbus"
	"github.com/annel0/peach-village/internal/logging"
	"github.com/annel0/peach-village/internal/middleware"
	"github.com/annel0/peach-village/internal/player"
	"github.com/annel0/peach-village/internal/sim"
	"github.com/annel0/peach-village/internal/world"
)

// commandTimeout ожидание обработки команды потоком тиков
const commandTimeout = 2 * time.Second

// Simulation то, что API требует от симуляции
type Simulation interface {
	Submit(ctx context.Context, cmd sim.Command) (sim.Result, error)
	Status() sim.Status
	Latest() *sim.Frame
	Scenery() world.Scenery
}

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	sim     Simulation
	bus     eventbus.EventBus
	metrics *ServerMetrics
	auth    *auth.TokenIssuer
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        int
	ServiceName string
	Sim         Simulation
	// Stream обработчик websocket /ws, может быть nil
	Stream http.HandlerFunc
	// Bus шина событий для /api/events/stats, может быть nil
	Bus      eventbus.EventBus
	Registry *prometheus.Registry
	// Auth если задан, команды и /ws требуют токен оператора
	Auth   *auth.TokenIssuer
	Logger *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SetTimeRequest тело PUT /api/time
type SetTimeRequest struct {
	Hour *float64 `json:"hour" binding:"required"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.ServiceName == "" {
		config.ServiceName = "peach-village"
	}
	if config.Logger == nil {
		config.Logger = logging.Default()
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger(config.Logger, "/metrics", "/health", "/ws").Handler())
	promMw := middleware.NewPrometheusMiddleware("village_api", config.Registry)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:  router,
		sim:     config.Sim,
		bus:     config.Bus,
		metrics: NewServerMetrics(),
		auth:    config.Auth,
		logger:  config.Logger,
	}
	rs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.setupRoutes(config.Stream)
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes(stream http.HandlerFunc) {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)
	if stream != nil {
		rs.router.GET("/ws", rs.authMiddleware(), gin.WrapF(stream))
	}

	api := rs.router.Group("/api")
	{
		api.GET("/state", rs.handleState)
		api.GET("/frame", rs.handleFrame)
		api.GET("/scenery", rs.handleScenery)
		api.GET("/events/stats", rs.handleEventStats)

		ops := api.Group("", rs.authMiddleware())
		ops.POST("/commands", rs.handleCommand)
		ops.POST("/commands/smash", rs.simpleCommand(sim.CmdSmash))
		ops.POST("/commands/rebuild", rs.simpleCommand(sim.CmdRebuild))
		ops.POST("/time/toggle", rs.simpleCommand(sim.CmdToggleTime))
		ops.PUT("/time", rs.handleSetTime)
		ops.POST("/player/input", rs.handlePlayerInput)
	}
}

// Handler корневой http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер. Возвращает nil после Shutdown.
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown плавно останавливает сервер
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	data := gin.H{
		"host": rs.metrics.Snapshot(),
		"time": time.Now().Unix(),
	}
	if f := rs.sim.Latest(); f != nil {
		data["tick"] = f.Tick
		data["phase"] = f.Status.Phase
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: data})
}

func (rs *RestServer) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Состояние мира", Data: rs.sim.Status()})
}

func (rs *RestServer) handleFrame(c *gin.Context) {
	c.JSON(http.StatusOK, rs.sim.Latest())
}

func (rs *RestServer) handleScenery(c *gin.Context) {
	c.JSON(http.StatusOK, rs.sim.Scenery())
}

func (rs *RestServer) handleEventStats(c *gin.Context) {
	if rs.bus == nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Шина событий не подключена"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика шины", Data: rs.bus.Metrics()})
}

func (rs *RestServer) simpleCommand(kind sim.CommandKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rs.submit(c, sim.Command{Kind: kind})
	}
}

func (rs *RestServer) handleCommand(c *gin.Context) {
	var cmd sim.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	rs.submit(c, cmd)
}

func (rs *RestServer) handleSetTime(c *gin.Context) {
	var req SetTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	rs.submit(c, sim.Command{Kind: sim.CmdSetTime, Hour: req.Hour})
}

func (rs *RestServer) handlePlayerInput(c *gin.Context) {
	var in player.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	rs.submit(c, sim.Command{Kind: sim.CmdPlayerInput, Input: &in})
}

// submit передаёт команду в поток тиков и переводит итог в HTTP-статус
func (rs *RestServer) submit(c *gin.Context, cmd sim.Command) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()

	res, err := rs.sim.Submit(ctx, cmd)
	switch {
	case err == nil:
	case errors.Is(err, sim.ErrBadCommand), errors.Is(err, sim.ErrUnknownCommand):
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	case errors.Is(err, sim.ErrInboxFull):
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Очередь команд переполнена"})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, GenericResponse{Success: false, Message: "Симуляция не ответила"})
		return
	default:
		rs.logger.Error("Команда %s: %v", cmd.Kind, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Внутренняя ошибка сервера"})
		return
	}

	if !res.Accepted {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Команда %s недопустима в фазе %s", cmd.Kind, res.Phase),
			Data:    res,
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Команда выполнена", Data: res})
}
