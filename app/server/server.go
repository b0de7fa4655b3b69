// Package server exposes the line protocol over HTTP so that many clients can use the scheduler
// at the same time, each through its own session.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/cli"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/session"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	corsMaxAge        = 12 * time.Hour
	paramToken        = "token"
)

const (
	logMsgListening      = "http server listening"
	logMsgShutdown       = "http server shutting down"
	logMsgRequestHandled = "http request handled"
	logAttrAddr          = "addr"
	logAttrMethod        = "method"
	logAttrPath          = "path"
	logAttrStatusCode    = "status_code"
	logAttrDurationMS    = "duration_ms"
)

// CommandRequest is the body of POST /sessions/:token/commands.
type CommandRequest struct {
	Line string `json:"line" binding:"required"`
}

// CommandResponse is what the line produced.
type CommandResponse struct {
	Output string `json:"output"`
	Quit   bool   `json:"quit"`
}

// SessionResponse is the body of POST /sessions.
type SessionResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to the Dispatcher.
type Server struct {
	dispatcher       cli.Dispatcher
	sessions         *session.Manager
	notifications    http.Handler
	corsOrigins      []string
	readinessCheck   func(ctx context.Context) error
	contextualLogger scheduler.ContextualLogger
}

// Option configures a Server.
type Option func(*Server)

// WithNotifications mounts handler (usually a wshub.Hub) on GET /ws/appointments.
func WithNotifications(handler http.Handler) Option {
	return func(s *Server) {
		s.notifications = handler
	}
}

// WithCORSOrigins allows browser clients from the given origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithReadinessCheck makes GET /healthz answer 503 while check fails, e.g. when the database is gone.
func WithReadinessCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.readinessCheck = check
	}
}

// WithContextualLogger sets the request logger.
func WithContextualLogger(logger scheduler.ContextualLogger) Option {
	return func(s *Server) {
		s.contextualLogger = logger
	}
}

// New creates a Server.
func New(dispatcher cli.Dispatcher, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{dispatcher: dispatcher, sessions: sessions}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests)

	if len(s.corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  s.corsOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        corsMaxAge,
		}))
	}

	router.GET("/healthz", s.health)
	router.POST("/sessions", s.createSession)
	router.DELETE("/sessions/:"+paramToken, s.deleteSession)
	router.POST("/sessions/:"+paramToken+"/commands", s.executeCommand)

	if s.notifications != nil {
		router.GET("/ws/appointments", gin.WrapH(s.notifications))
	}

	return router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.info(ctx, logMsgListening, logAttrAddr, addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.info(ctx, logMsgShutdown, logAttrAddr, addr)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) health(c *gin.Context) {
	if s.readinessCheck != nil {
		if err := s.readinessCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	token, _ := s.sessions.Create()
	c.JSON(http.StatusCreated, SessionResponse{Token: token.String()})
}

func (s *Server) deleteSession(c *gin.Context) {
	token, ok := s.token(c)
	if !ok {
		return
	}

	if err := s.sessions.Delete(token); err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) executeCommand(c *gin.Context) {
	token, ok := s.token(c)
	if !ok {
		return
	}

	sess, err := s.sessions.Get(token)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	var request CommandRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	output := s.dispatcher.Execute(c.Request.Context(), sess, request.Line)
	if output.Quit {
		_ = s.sessions.Delete(token)
	}

	c.JSON(http.StatusOK, CommandResponse{Output: output.Text, Quit: output.Quit})
}

func (s *Server) token(c *gin.Context) (session.Token, bool) {
	token, err := uuid.Parse(c.Param(paramToken))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed session token"})
		return session.Token{}, false
	}

	return token, true
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(
			c.Request.Context(), logMsgRequestHandled,
			logAttrMethod, c.Request.Method,
			logAttrPath, c.FullPath(),
			logAttrStatusCode, c.Writer.Status(),
			logAttrDurationMS, float64(time.Since(start).Nanoseconds())/1e6,
		)
	}
}

func (s *Server) info(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
	}
}
