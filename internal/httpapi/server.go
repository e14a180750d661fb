// Package httpapi exposes the cooking engine, timers and pantry over a
// JSON API, plus a server-sent narration feed for the browser to speak.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Option configures the Server.
type Option func(*Server)

// WithAssistant enables stateless assist calls that carry their own
// recipe.
func WithAssistant(a domain.Assistant) Option {
	return func(s *Server) { s.assistant = a }
}

// WithClock sets the clock used for pantry expiry math.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithCORSOrigins limits cross-origin callers. "*" allows any.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithTimeouts sets the http.Server read and idle timeouts. There is no
// write timeout because the event feed is long-lived.
func WithTimeouts(read, idle time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.idleTimeout = idle
	}
}

// Server wires HTTP routes to the engine.
type Server struct {
	engine    *engine.Engine
	recipes   domain.RecipeSource
	pantry    domain.PantryStore
	events    *Broker
	assistant domain.Assistant
	clock     clock.Clock
	log       *logger.Logger

	origins     []string
	readTimeout time.Duration
	idleTimeout time.Duration
}

// NewServer creates the API server. events should also be one of the
// engine's notifiers so narration reaches the feed.
func NewServer(
	eng *engine.Engine,
	recipes domain.RecipeSource,
	pantry domain.PantryStore,
	events *Broker,
	log *logger.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		engine:      eng,
		recipes:     recipes,
		pantry:      pantry,
		events:      events,
		clock:       clock.System{},
		log:         log,
		origins:     []string{"*"},
		readTimeout: 10 * time.Second,
		idleTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.health)

	api := r.Group("/api/v1")
	api.GET("/recipes", s.searchRecipes)
	api.GET("/recipes/:id", s.getRecipe)

	api.GET("/cooking", s.cookingState)
	api.POST("/cooking", s.chooseRecipe)
	api.POST("/cooking/next", s.command(domain.CommandNext))
	api.POST("/cooking/previous", s.command(domain.CommandPrevious))
	api.POST("/cooking/repeat", s.command(domain.CommandRepeat))
	api.POST("/cooking/elaborate", s.elaborate)

	api.POST("/voice", s.voice)
	api.POST("/assist", s.assist)

	api.GET("/timers", s.listTimers)
	api.POST("/timers", s.createTimer)
	api.POST("/timers/:id/toggle", s.toggleTimer)
	api.DELETE("/timers/:id", s.removeTimer)
	api.DELETE("/timers", s.clearExpired)

	api.GET("/events", s.streamEvents)

	api.GET("/pantry", s.listPantry)
	api.POST("/pantry", s.addPantry)
	api.GET("/pantry/at-risk", s.atRiskPantry)
	api.DELETE("/pantry/:id", s.deletePantry)

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range s.origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.origins
	return cfg
}

// ListenAndServe serves until ctx is cancelled, then shuts down within
// five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
		IdleTimeout:       s.idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ── Errors ───────────────────────────────────────────────────────

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidPantryItem),
		errors.Is(err, domain.ErrNoRecipe):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAssistantUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
