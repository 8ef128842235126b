package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/auth"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/observability"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
)

const DefaultListenAddr = "127.0.0.1:8765"

// ServerConfig configures the listener the game client dials into.
type ServerConfig struct {
	Addr            string
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	Metrics         bool
	ShutdownTimeout time.Duration
	// AuthToken, when set, is required as a bearer token on /status and
	// /metrics.
	AuthToken string
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.Addr == "" {
		c.Addr = DefaultListenAddr
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}

// Server upgrades incoming connections and hands each one to the session.
// A newer connection replaces the attached one.
type Server struct {
	cfg      ServerConfig
	session  *session.Session
	upgrader websocket.Upgrader
	router   *gin.Engine
	logger   zerolog.Logger

	// base is the context each receive loop runs under.
	base context.Context
}

func NewServer(cfg ServerConfig, s *session.Session) *Server {
	srv := &Server{
		cfg:     cfg.withDefaults(),
		session: s,
		upgrader: websocket.Upgrader{
			// The game client is a local process, not a browser.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: log.Logger.With().Str("component", "ws").Logger(),
		base:   context.Background(),
	}
	srv.router = srv.routes()
	return srv
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(s.logger))
	if s.cfg.Metrics {
		r.Use(observability.RequestMetricsMiddleware())
	}
	r.GET("/", s.handleUpgrade)

	diag := r.Group("/")
	if s.cfg.AuthToken != "" {
		diag.Use(auth.Require(auth.StaticToken{Token: s.cfg.AuthToken}))
	}
	diag.GET("/status", s.handleStatus)
	if s.cfg.Metrics {
		diag.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleUpgrade(c *gin.Context) {
	if !c.IsWebsocket() {
		c.String(http.StatusUpgradeRequired, "websocket upgrade required")
		return
	}
	remote := c.Request.RemoteAddr
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote", remote).Msg("websocket upgrade failed")
		return
	}
	s.logger.Info().Str("remote", remote).Msg("game client connected")

	t := NewConn(conn, s.cfg.WriteTimeout, s.cfg.MaxMessageBytes)
	err = s.session.Serve(s.base, t)
	_ = t.Close()
	if err != nil && !errors.Is(err, session.ErrTransportClosed) && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Str("remote", remote).Msg("receive loop ended")
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// ListenAndServe listens on the configured address, with TLS when the
// session config enables it, and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	tlsCfg, err := s.session.Config().ListenerTLSConfig()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, tlsCfg)
}

// Serve accepts on ln until ctx ends. tlsCfg may be nil for plain ws://.
func (s *Server) Serve(ctx context.Context, ln net.Listener, tlsCfg *tls.Config) error {
	scheme := "ws"
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
		scheme = "wss"
	}
	s.base = ctx
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	s.logger.Info().Msgf("LISTENING %s://%s", scheme, ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.session.Detach()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
