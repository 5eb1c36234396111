// Package api serves the watcher's health and loop statistics over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"catalog-watcher/scheduler"

	"github.com/gin-gonic/gin"
)

// StatsProvider returns the current loop counters
type StatsProvider interface {
	Snapshot() scheduler.StatsSnapshot
}

type Handler struct {
	stats     StatsProvider
	targetURL string
	version   string
}

func NewHandler(stats StatsProvider, targetURL, version string) *Handler {
	return &Handler{stats: stats, targetURL: targetURL, version: version}
}

// NewRouter creates the gin engine with all routes configured
func NewRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %d %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
			)
		},
	}))
	r.Use(gin.Recovery())

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	return r
}

func (h *Handler) GetHealth(c *gin.Context) {
	snap := h.stats.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    h.version,
		"target_url": h.targetURL,
		"uptime":     time.Since(snap.StartedAt).Round(time.Second).String(),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot())
}

// Serve runs the status server until ctx is done, then shuts it down
func Serve(ctx context.Context, addr string, handler *Handler) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting status server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	slog.Info("Status server stopped")
	return nil
}
