// Package server exposes the form pipelines as webhooks.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"formroute/internal/form"
	"formroute/internal/gateway"
	"formroute/internal/middleware"
)

// Handler processes one decoded submission.
type Handler interface {
	Handle(ctx context.Context, name middleware.EventName, p form.Payload) (gateway.Summary, error)
}

// Server is the webhook HTTP server.
type Server struct {
	handler Handler
	addr    string
	token   string
	log     *zap.Logger
	engine  *gin.Engine
}

func New(h Handler, addr, token string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if addr == "" {
		addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{handler: h, addr: addr, token: token, log: log, engine: gin.New()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	hooks := s.engine.Group("/hooks", s.authorize())
	hooks.POST("/schedule", s.hook(middleware.EventScheduleRequest))
	hooks.POST("/issue", s.hook(middleware.EventIssueReport))
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) hook(name middleware.EventName) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := form.Decode(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sum, err := s.handler.Handle(c.Request.Context(), name, p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": sum})
			return
		}
		if sum.Status == gateway.StatusIgnored {
			c.JSON(http.StatusAccepted, sum)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		want := "Bearer " + s.token
		if subtle.ConstantTimeCompare([]byte(c.GetHeader("Authorization")), []byte(want)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("webhook server listening", zap.String("addr", s.addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server error: %w", err)
	}
	return nil
}
