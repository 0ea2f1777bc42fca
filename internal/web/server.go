// Package web serves the HTTP JSON API and the websocket snapshot feed.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/railsim/internal/controller"
	"github.com/signalsfoundry/railsim/internal/demo"
	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/observability"
	"github.com/signalsfoundry/railsim/internal/scenario"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

// DefaultWebsocketBuffer is the per-client snapshot buffer.
const DefaultWebsocketBuffer = 8

// ScenarioController is the controller surface the HTTP layer drives.
type ScenarioController interface {
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context)
	Status() controller.Status
	Snapshot() state.Snapshot
	Notifications() []model.Notification
	View() (state.Snapshot, []model.Notification)
	Scenarios() []*scenario.Scenario
	Subscribe(buffer int) (<-chan state.Update, func())

	Demo() demo.Snapshot
	PlayDemo(ctx context.Context) (demo.Snapshot, error)
	PauseDemo(ctx context.Context) demo.Snapshot
	ResetDemo(ctx context.Context) demo.Snapshot
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAPICollector records HTTP and websocket metrics and serves /metrics.
func WithAPICollector(c *observability.APICollector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithWebsocketBuffer sets how many snapshots a slow websocket client may lag.
func WithWebsocketBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.wsBuffer = n
		}
	}
}

// WithCheckOrigin overrides the websocket origin check. The default accepts
// every origin.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		if fn != nil {
			s.upgrader.CheckOrigin = fn
		}
	}
}

// Server routes HTTP requests to a ScenarioController.
type Server struct {
	ctrl     ScenarioController
	log      logging.Logger
	metrics  *observability.APICollector
	wsBuffer int
	upgrader websocket.Upgrader
	router   chi.Router
}

// New builds a Server and its routes.
func New(ctrl ScenarioController, opts ...Option) *Server {
	s := &Server{
		ctrl:     ctrl,
		log:      logging.Noop(),
		wsBuffer: DefaultWebsocketBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/scenarios", s.handleScenarios)
		r.Post("/scenarios/{id}/activate", s.handleActivate)
		r.Get("/scenario/active", s.handleActive)
		r.Post("/scenario/deactivate", s.handleDeactivate)

		r.Get("/demo", s.handleDemo)
		r.Post("/demo/play", s.handleDemoPlay)
		r.Post("/demo/pause", s.handleDemoPause)
		r.Post("/demo/reset", s.handleDemoReset)
	})

	r.Get("/ws", s.handleWebsocket)
	return r
}

// requestContext attaches a request id and request-scoped logger.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log.With(
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set("X-Request-ID", logging.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe records one sample per request labelled with the chi route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveHTTP(route, r.Method, code, time.Since(start))
	})
}
