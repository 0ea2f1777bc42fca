// Command railsim serves the rail scenario replay engine over gRPC, HTTP
// and websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/railsim/internal/config"
	"github.com/signalsfoundry/railsim/internal/controller"
	"github.com/signalsfoundry/railsim/internal/demo"
	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/nbi"
	"github.com/signalsfoundry/railsim/internal/observability"
	"github.com/signalsfoundry/railsim/internal/scenario"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/internal/timeline"
	"github.com/signalsfoundry/railsim/internal/web"
	"github.com/signalsfoundry/railsim/timectrl"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "railsim: %v\n", err)
		os.Exit(2)
	}
	if err := applyFlags(flag.CommandLine, os.Args[1:], &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "railsim: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, grpcLis, httpLis); err != nil {
		log.Error(ctx, "railsim exited", logging.Err(err))
		os.Exit(1)
	}
}

// applyFlags parses args into fs, using cfg's current values as defaults.
func applyFlags(fs *flag.FlagSet, args []string, cfg *config.Config) error {
	mode := cfg.Mode.String()
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "TCP address the gRPC server listens on")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "TCP address for the HTTP API, websocket feed and /metrics")
	fs.DurationVar(&cfg.Tick, "tick", cfg.Tick, "time controller tick interval")
	fs.StringVar(&mode, "mode", mode, "time mode: realtime or accelerated")
	fs.StringVar(&cfg.DefaultScenario, "scenario", cfg.DefaultScenario, "scenario to activate at startup")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "panic when a scheduled step is rejected")
	fs.IntVar(&cfg.WSBuffer, "ws-buffer", cfg.WSBuffer, "snapshots buffered per websocket client")
	fs.DurationVar(&cfg.DemoInterval, "demo-interval", cfg.DemoInterval, "time each demo phase stays on screen")
	fs.BoolVar(&cfg.DemoAutoplay, "demo-autoplay", cfg.DemoAutoplay, "start the demo walkthrough at startup")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch mode {
	case "realtime", "accelerated":
		cfg.Mode = timectrl.ParseMode(mode)
	default:
		return fmt.Errorf("-mode must be realtime or accelerated, got %q", mode)
	}
	if cfg.Tick <= 0 {
		return fmt.Errorf("-tick must be positive, got %s", cfg.Tick)
	}
	if cfg.DemoInterval <= 0 {
		return fmt.Errorf("-demo-interval must be positive, got %s", cfg.DemoInterval)
	}
	return nil
}

// engine bundles the simulation core driven by the time controller.
type engine struct {
	clock *timectrl.TimeController
	sched timeline.EventScheduler
	ctrl  *controller.Controller
}

func newEngine(cfg config.Config, log logging.Logger, sim *observability.SimCollector) *engine {
	registry := scenario.MustDefaultRegistry()

	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Tick, cfg.Mode)
	sched := timeline.NewEventScheduler(tc)
	tc.AddListener(func(time.Time) {
		sched.RunDue()
		sim.SetPendingEvents(sched.Pending())
	})

	store := state.NewStore(
		registry.Baseline(),
		state.NewNotificationLog(state.DefaultNotificationCapacity, tc.Now),
		state.WithMetricsRecorder(sim),
		state.WithLogger(log),
	)
	ctrl := controller.New(registry, store, timeline.New(sched),
		controller.WithLogger(log),
		controller.WithMetrics(sim),
		controller.WithStrict(cfg.Strict),
		controller.WithDemoOptions(
			demo.WithInterval(cfg.DemoInterval),
			demo.WithMetrics(sim),
		),
	)
	return &engine{clock: tc, sched: sched, ctrl: ctrl}
}

// run serves until ctx is cancelled, then shuts everything down.
func run(ctx context.Context, cfg config.Config, log logging.Logger, grpcLis, httpLis net.Listener) error {
	cfg.Tracing.TimeMode = cfg.Mode.String()
	for _, sc := range scenario.MustDefaultRegistry().List() {
		cfg.Tracing.Scenarios = append(cfg.Tracing.Scenarios, sc.ID)
	}
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	api, err := observability.NewAPICollector(reg)
	if err != nil {
		return fmt.Errorf("api metrics: %w", err)
	}
	sim, err := observability.NewSimCollector(reg)
	if err != nil {
		return fmt.Errorf("simulation metrics: %w", err)
	}

	eng := newEngine(cfg, log, sim)
	clockCtx, stopClock := context.WithCancel(ctx)
	defer stopClock()
	clockDone := eng.clock.Start(clockCtx, 0)

	if cfg.DefaultScenario != "" {
		if err := eng.ctrl.Activate(ctx, cfg.DefaultScenario); err != nil {
			return fmt.Errorf("activate default scenario: %w", err)
		}
	}
	if cfg.DemoAutoplay {
		if _, err := eng.ctrl.PlayDemo(ctx); err != nil {
			return fmt.Errorf("start demo: %w", err)
		}
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RequestIDUnaryServerInterceptor(log),
			nbi.LoggingUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			api.UnaryServerInterceptor(),
		),
	)
	nbi.RegisterScenarioServiceServer(grpcServer, nbi.NewScenarioService(eng.ctrl, log))

	httpServer := &http.Server{
		Handler: web.New(eng.ctrl,
			web.WithLogger(log),
			web.WithAPICollector(api),
			web.WithWebsocketBuffer(cfg.WSBuffer),
		).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "serving gRPC", logging.String("addr", grpcLis.Addr().String()))
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		log.Info(ctx, "serving HTTP", logging.String("addr", httpLis.Addr().String()))
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down railsim")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	eng.ctrl.Deactivate(shutdownCtx)
	eng.ctrl.ResetDemo(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "http shutdown", logging.Err(err))
	}
	stopGRPC(shutdownCtx, grpcServer)
	stopClock()
	<-clockDone
	return serveErr
}

// stopGRPC drains in-flight RPCs, forcing a stop when ctx expires first.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}
