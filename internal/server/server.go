package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/ai"
)

const (
	DefaultAddr            = ":3000"
	defaultShutdownTimeout = 10 * time.Second
)

// Config is the server section of the config file.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	AllowOrigins    []string      `mapstructure:"allow-origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

// Server exposes the value resolver over HTTP.
type Server struct {
	cfg      Config
	resolver ai.Resolver
	logger   *zap.Logger
	engine   *gin.Engine
}

func New(cfg Config, resolver ai.Resolver, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{cfg: cfg, resolver: resolver, logger: logger}
	s.engine = s.routes()

	return s
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors.New(s.corsConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/process-form", s.processForm)

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	if len(s.cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowOrigins
	}

	return cfg
}

func (s *Server) processForm(c *gin.Context) {
	var req ai.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ai.Response{Message: "Invalid form data. No fields provided.", Error: err.Error()})
		return
	}

	switch err := req.Validate(); {
	case errors.Is(err, ai.ErrNoFields):
		c.JSON(http.StatusBadRequest, ai.Response{Message: "Invalid form data. No fields provided."})
		return
	case errors.Is(err, ai.ErrMissingAPIKey):
		c.JSON(http.StatusBadRequest, ai.Response{Message: "Missing API key. Please provide a Gemini API key."})
		return
	case errors.Is(err, ai.ErrMissingResume):
		c.JSON(http.StatusBadRequest, ai.Response{Message: "Missing resume. Please provide resume information."})
		return
	}

	s.logger.Info("form received",
		zap.String("url", req.URL),
		zap.String("title", req.Title),
		zap.Int("fields", len(req.Fields)),
	)

	values, err := s.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		status, message := http.StatusInternalServerError, "An error occurred while processing the form data with AI."
		if errors.Is(err, ai.ErrInvalidAPIKey) || strings.Contains(err.Error(), "API key") {
			status, message = http.StatusUnauthorized, "Invalid API key. Please check your Gemini API key and try again."
		}

		s.logger.Error("form processing failed", zap.Int("status", status), zap.Error(err))
		c.JSON(status, ai.Response{Message: message, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ai.Response{Success: true, FieldValues: values})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
