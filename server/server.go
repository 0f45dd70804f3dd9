package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/halo-dev/halo/logger"
	"github.com/halo-dev/halo/server/middleware"
)

// Stop uses this deadline when its context has none.
const shutdownTimeout = 5 * time.Second

// Server serves a Gin engine over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	config Config
	log    *logger.Logger

	// bound holds the listener address between Start and Stop.
	bound atomic.Pointer[string]
}

// New builds an unstarted Server. production selects Gin's release mode.
func New(cfg Config, production bool, log *logger.Logger) *Server {
	mode := gin.DebugMode
	if production {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	h2 := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: cfg.IdleTimeout}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      h2c.NewHandler(engine, h2),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		config: cfg,
		log:    log.WithComponent("server"),
	}
}

// GinEngine is where routes are registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the h2c-wrapped root handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start returns once the port is bound. Requests are served on a separate
// goroutine until Stop.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.http.Addr, err)
	}
	addr := ln.Addr().String()
	s.bound.Store(&addr)

	go func() {
		err := s.http.Serve(ln)
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server stopped serving")
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", addr))
	return nil
}

// Stop lets in-flight requests finish, then closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.bound.Store(nil)
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr is the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	if a := s.bound.Load(); a != nil {
		return *a
	}
	return s.http.Addr
}

func (s *Server) Listening() bool { return s.bound.Load() != nil }

// ApplyMiddleware installs the global chain, outermost first. Telemetry
// reports to the global OpenTelemetry providers.
func (s *Server) ApplyMiddleware() {
	chain := []gin.HandlerFunc{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.Telemetry(otel.GetTracerProvider(), otel.GetMeterProvider(), s.log),
		middleware.CORS(s.config.CORS),
	}
	if s.config.MaxBodySize > 0 {
		chain = append(chain, middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	chain = append(chain, middleware.RequestLogger(s.log))
	s.engine.Use(chain...)
}
