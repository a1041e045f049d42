// Package api exposes the task store over HTTP with gin, for user interfaces
// that run out of process.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Server routes HTTP requests to a task store.
type Server struct {
	store  *storage.Store
	log    *zap.Logger
	now    func() time.Time
	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithClock sets the time source for exports, imports and overdue counts.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a Server over store with every route registered.
func New(store *storage.Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.routes(r)
	s.router = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/tasks", s.listTasks)
	r.POST("/tasks", s.createTask)
	r.GET("/tasks/:id", s.getTask)
	r.PATCH("/tasks/:id", s.updateTask)
	r.DELETE("/tasks/:id", s.deleteTask)
	r.POST("/tasks/:id/toggle", s.toggleTask)
	r.POST("/tasks/:id/subtasks", s.addSubtask)
	r.POST("/tasks/:id/subtasks/:sid/toggle", s.toggleSubtask)

	r.GET("/tags", s.listTags)
	r.GET("/stats", s.stats)

	r.GET("/export", s.exportTasks)
	r.POST("/import", s.importTasks)
	r.GET("/backup", s.backup)
	r.POST("/restore", s.restore)

	r.GET("/settings", s.getSettings)
	r.PATCH("/settings", s.updateSettings)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs one line per request, tagged with a fresh request ID.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		s.log.Info("request",
			zap.String("requestID", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
