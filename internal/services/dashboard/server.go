package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/observation"
	"github.com/tx-code/subwatch/internal/domain/schedule"
	"github.com/tx-code/subwatch/internal/services/monitor"
)

// Monitor is the handle the dashboard gets on the running service.
// All state mutations flow through it or the store; the dashboard
// never touches the files directly.
type Monitor interface {
	Status() monitor.Status
	CheckNow(ctx context.Context) (bool, error)
}

type Server struct {
	log     *zap.Logger
	monitor Monitor
	store   schedule.Store
	history observation.Log
}

func New(log *zap.Logger, m Monitor, store schedule.Store, history observation.Log) *Server {
	return &Server{log: log, monitor: m, store: store, history: history}
}

// Router builds the JSON API consumed by the local web dashboard.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())

	api := r.Group("/api")
	api.GET("/status", s.getStatus)
	api.POST("/check-now", s.checkNow)
	api.GET("/config", s.getConfig)
	api.PUT("/config", s.putConfig)
	api.GET("/history", s.getHistory)
	api.GET("/urls", s.getTargets)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Bootstrap starts the dashboard server in the background and returns
// it for graceful shutdown.
func Bootstrap(addr string, handler http.Handler, l *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		l.Info("dashboard listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("dashboard server error", zap.Error(err))
		}
	}()
	return srv
}
