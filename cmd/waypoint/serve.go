package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/navtree"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/wshistory"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <config>",
		Short: "Host the route tree for browsers over WebSocket",
		Long: `Serve one route tree per WebSocket connection. The browser sends
its location on connect and reports back and forward moves; the server
tells it what to push and replace.

Endpoints:
  /ws        WebSocket history sessions
  /metrics   Prometheus metrics
  /healthz   liveness probe

Examples:
  waypoint serve tree.yaml
  waypoint serve tree.yaml --addr=127.0.0.1:9000 --log-format=json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			logger, err := flags.logger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return errors.New(errors.CodeServeListen).
			WithDetailf("Cannot listen on %s", cfg.Serve.Addr).
			Wrap(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := &http.Server{
		Handler:           newServer(cfg, logger, reg).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("waypoint: serving", "addr", ln.Addr().String(), "tree", cfg.String())

	select {
	case err := <-errCh:
		return errors.New(errors.CodeServeListen).Wrap(err)
	case <-ctx.Done():
	}

	logger.Info("waypoint: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// server hosts one route tree per WebSocket connection.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *middleware.Metrics
	upgrader websocket.Upgrader
}

func newServer(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) *server {
	return &server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics: middleware.NewMetrics(
			middleware.WithNamespace(cfg.Serve.Namespace),
			middleware.WithRegistry(reg),
		),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}
}

// Routes returns the HTTP handler.
func (s *server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	r.Get("/ws", s.handleSession)
	return r
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("waypoint: upgrade failed", "error", err)
		return
	}
	logger := s.logger.With("request_id", chimw.GetReqID(r.Context()))

	b, err := wshistory.Accept(conn, wshistory.Config{
		Base:     s.cfg.Serve.Base,
		Logger:   logger,
		OnReject: s.metrics.FrameRejected,
	})
	if err != nil {
		logger.Info("waypoint: handshake rejected", "error", err)
		return
	}

	var h history.History = middleware.Instrument(middleware.Logging(b, logger), s.metrics)
	if s.cfg.Serve.Tracing {
		h = middleware.Tracing(h, middleware.WithTracerName("waypoint"))
	}

	tree, err := navtree.Build(s.cfg, h,
		navtree.WithLogger(logger),
		navtree.WithObserver(s.metrics),
	)
	if err != nil {
		logger.Error("waypoint: build tree", "error", err)
		b.Close()
		return
	}
	defer tree.Close()

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()
	logger.Info("waypoint: session started", "location", b.Location().URL())

	if err := b.Serve(r.Context()); err != nil {
		logger.Info("waypoint: session ended", "error", err)
		return
	}
	logger.Info("waypoint: session ended")
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}
