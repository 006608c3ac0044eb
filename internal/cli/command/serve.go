package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/config"
	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/feed"
	"github.com/yndnr/recofeed-go/internal/infra/confloader"
	"github.com/yndnr/recofeed-go/internal/infra/shutdown"
	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
	"github.com/yndnr/recofeed-go/internal/telemetry/metric"
)

// ServeCommand exposes the feeds and metrics over HTTP.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve feed state and metrics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides serve.addr)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, l, log, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Serve.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	srv := newFeedServer(rt, log)
	httpSrv := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(cfg.Serve.ShutdownTimeout)
	if w := watchConfig(l, log); w != nil {
		h.OnShutdown(func(context.Context) error { return w.Stop() })
	}
	h.OnShutdown(httpSrv.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			h.Trigger()
		}
	}()
	log.Info("serving feeds", "addr", ln.Addr().String())

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := h.Wait(ctx); err != nil {
		return err
	}
	log.Info("server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// watchConfig re-reads the configuration file on change and applies the
// log level. Other settings need a restart.
func watchConfig(l *confloader.Loader, log logger.Logger) *confloader.Watcher {
	if l == nil || l.FilePath() == "" {
		return nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(l.FilePath()); err != nil {
		log.Warn("config watcher unavailable", "error", err)
		w.Stop()
		return nil
	}
	w.OnChange(func(path string) {
		cfg, err := config.Reload(l)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("config reloaded", "path", path, "log_level", cfg.Log.Level)
	})
	w.StartAsync()
	return w
}

// feedServer serves the feeds of one runtime.
type feedServer struct {
	rt  *runtime
	log logger.Logger

	mu      sync.Mutex
	mounted map[feed.Kind]bool
}

func newFeedServer(rt *runtime, log logger.Logger) *feedServer {
	col := metric.NewCollector()
	for _, ctrl := range rt.feeds.All() {
		col.Add(ctrl)
	}
	if err := rt.metrics.Registerer().Register(col); err != nil {
		log.Warn("feed collector not registered", "error", err)
	}
	return &feedServer{
		rt:      rt,
		log:     log,
		mounted: make(map[feed.Kind]bool),
	}
}

func (s *feedServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.rt.metrics.Handler())

	r.Route("/v1/feeds", func(r chi.Router) {
		r.Get("/", s.listFeeds)
		r.Get("/{kind}", s.getFeed)
		r.Post("/{kind}/more", s.loadMore)
		r.Post("/{kind}/reload", s.reload)
		r.Get("/{kind}/snapshot", s.getSnapshot)
		r.Delete("/{kind}/snapshot", s.clearSnapshot)
	})
	return r
}

func (s *feedServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
		ctx = logger.WithLogger(ctx, s.log)
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.L(ctx).Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

type healthBody struct {
	Status  string           `json:"status"`
	Breaker string           `json:"breaker"`
	Storage *storage.KVStats `json:"storage,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// health reports "degraded" when the snapshot engine cannot answer.
func (s *feedServer) health(w http.ResponseWriter, r *http.Request) {
	body := healthBody{Status: "ok", Breaker: s.rt.client.BreakerState()}
	stats, err := s.rt.kv.Stats(r.Context())
	if err != nil {
		body.Status = "degraded"
		body.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body.Storage = stats
	writeJSON(w, http.StatusOK, body)
}

func (s *feedServer) listFeeds(w http.ResponseWriter, _ *http.Request) {
	out := make([]metric.FeedStatus, 0, len(feed.Kinds()))
	for _, ctrl := range s.rt.feeds.All() {
		out = append(out, ctrl.Status())
	}
	writeJSON(w, http.StatusOK, out)
}

// controller resolves {kind} and mounts the feed on first use.
func (s *feedServer) controller(r *http.Request) (feed.Controller, error) {
	ctrl, err := s.rt.controller(chi.URLParam(r, "kind"))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	first := !s.mounted[ctrl.Kind()]
	s.mounted[ctrl.Kind()] = true
	s.mu.Unlock()

	if first {
		if err := waitRequest(r.Context(), ctrl.Mount(r.Context())); err != nil {
			s.mu.Lock()
			s.mounted[ctrl.Kind()] = false
			s.mu.Unlock()
			return nil, err
		}
	}
	return ctrl, nil
}

func (s *feedServer) getFeed(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *feedServer) loadMore(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if ctrl.View().HasMore {
		if err := waitRequest(r.Context(), ctrl.LoadMore(r.Context())); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *feedServer) reload(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.rt.controller(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	s.mounted[ctrl.Kind()] = true
	s.mu.Unlock()

	if err := waitRequest(r.Context(), ctrl.Reload(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *feedServer) getSnapshot(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.rt.controller(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	view, ok, err := ctrl.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, domain.ErrInvalidArgument.WithDetails("no snapshot for "+string(ctrl.Kind())))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *feedServer) clearSnapshot(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.rt.controller(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ctrl.ClearSnapshot(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownFeed):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRemoteUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRemoteStatus), errors.Is(err, domain.ErrFetchFailed):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, errorBody{Code: domain.GetErrorCode(err), Message: err.Error()})
}
