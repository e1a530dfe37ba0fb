// Package bridge exposes the command surface to the web-rendered UI layer
// over HTTP, and pushes per-window context events over websockets.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/monitoring"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

const (
	// LabelHeader names the calling window.
	LabelHeader = "X-Window-Label"
	// RequestIDHeader carries an optional client-chosen request id.
	RequestIDHeader = "X-Request-ID"
)

// Dispatcher executes a decoded command.
type Dispatcher interface {
	Dispatch(ctx context.Context, call command.Call) (any, error)
}

type Options struct {
	Listen      string
	Dispatcher  Dispatcher
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
	Development bool
}

type Server struct {
	listen     string
	dispatcher Dispatcher
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	hub        *Hub
	engine     *gin.Engine
	upgrader   websocket.Upgrader
	http       *http.Server
	listener   net.Listener
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		listen:     opts.Listen,
		dispatcher: opts.Dispatcher,
		metrics:    opts.Metrics,
		logger:     logger,
		hub:        NewHub(logger, opts.Metrics),
		upgrader: websocket.Upgrader{
			// Loopback only; webview origins (file://, custom schemes) vary.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(monitoring.Middleware(opts.Metrics))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", LabelHeader, RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", s.health)
	router.POST("/invoke/:command", s.invoke)
	router.GET("/events", s.events)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	s.engine = router
	return s
}

// Hub returns the notifier that feeds /events subscribers.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("bridge listen %s: %w", s.listen, err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("UI bridge listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("UI bridge stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listen
	}
	return s.listener.Addr().String()
}

// Shutdown disconnects websocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) invoke(c *gin.Context) {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var args command.Args
	if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":     "ERROR",
			"request_id": requestID,
			"error":      fmt.Sprintf("invalid arguments: %v", err),
		})
		return
	}

	data, err := s.dispatcher.Dispatch(c.Request.Context(), command.Call{
		Transport: "bridge",
		Name:      c.Param("command"),
		Caller:    strings.TrimSpace(c.GetHeader(LabelHeader)),
		RequestID: requestID,
		Args:      args,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"status":     "ERROR",
			"request_id": requestID,
			"error":      err.Error(),
		})
		return
	}

	body := gin.H{"status": "OK", "request_id": requestID}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) events(c *gin.Context) {
	label := strings.TrimSpace(c.Query("label"))
	if label == "" {
		label = strings.TrimSpace(c.GetHeader(LabelHeader))
	}
	if label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "ERROR", "error": "label is required"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("label", label), zap.Error(err))
		return
	}
	s.hub.serve(conn, label)
}

// statusFor maps coordinator errors to HTTP status codes. The body always
// carries the error string.
func statusFor(err error) int {
	switch {
	case errors.Is(err, command.ErrUnknownCommand), errors.Is(err, window.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, command.ErrMissingArg), errors.Is(err, lifecycle.ErrUnknownKind),
		errors.Is(err, lifecycle.ErrUnknownCaller):
		return http.StatusBadRequest
	case errors.Is(err, window.ErrLabelInUse):
		return http.StatusConflict
	case errors.Is(err, shell.ErrExiting):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("bridge request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
