package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultAddr            = ":3001"
	DefaultRatePerSec      = 20.0
	DefaultBurst           = 40
	defaultShutdownTimeout = 10 * time.Second
	maxBodySize            = 4 * 1024 * 1024
)

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Addr       string
	RatePerSec float64
	Burst      int
}

func (c HTTPConfig) withDefaults() HTTPConfig {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = DefaultRatePerSec
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	return c
}

// Router builds the HTTP handler: POST /mcp for JSON-RPC, GET /health and
// GET /tools for humans and probes.
func (s *Server) Router(limiter *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORS())

	router.GET("/health", s.health)
	router.GET("/tools", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tools": s.Tools()})
	})

	mcp := router.Group("/mcp")
	if limiter != nil {
		mcp.Use(RateLimitByIP(limiter))
	}
	mcp.POST("", s.handleMCP)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"server":    ServerName + "-http",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMCP(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		_ = c.Error(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse(nil, codeInvalidRequest, "Request body too large",
				fmt.Sprintf("limit is %d bytes", tooLarge.Limit)))
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse(nil, codeParseError, "Parse error", err.Error()))
		return
	}

	resp := s.Handle(c.Request.Context(), body)
	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.Data(http.StatusOK, "application/json", resp)
}

// ListenAndServe runs the HTTP transport until ctx is canceled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, cfg HTTPConfig) error {
	cfg = cfg.withDefaults()

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	limiter := NewRateLimiter(limiterCtx, cfg.RatePerSec, cfg.Burst, time.Minute)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("MCP server listening on http://%s/mcp", cfg.Addr)
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

	log.Info("shutting down MCP HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
