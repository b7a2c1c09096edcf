package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/peach-village/internal/logging"
)

// TraceIDKey ключ trace-ID в gin.Context и заголовок ответа
const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-Id"
)

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
type RequestLogger struct {
	logger *logging.Logger
	skip   map[string]bool
}

// NewRequestLogger создаёт middleware; пути из skip не логируются (например /metrics).
func NewRequestLogger(logger *logging.Logger, skip ...string) *RequestLogger {
	if logger == nil {
		logger = logging.Default()
	}
	rl := &RequestLogger{logger: logger, skip: make(map[string]bool, len(skip))}
	for _, p := range skip {
		rl.skip[p] = true
	}
	return rl
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если span уже создан otelgin
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if rl.skip[path] {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		rl.logger.Debug("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, c.ClientIP(), traceID)

		c.Next()

		rl.logger.Info("[HTTP] ◀ %s %s %d %s trace=%s", method, path, c.Writer.Status(), time.Since(start), traceID)
	}
}
