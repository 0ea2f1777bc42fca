package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// APICollector bundles Prometheus metrics for the gRPC and HTTP surfaces and
// provides helpers to wire them into servers and handlers.
type APICollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	WebsocketClients prometheus.Gauge
}

// NewAPICollector registers API metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewAPICollector(reg prometheus.Registerer) (*APICollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_grpc_requests_total",
		Help: "Total number of handled gRPC calls, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "railsim_grpc_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railsim_grpc_request_duration_seconds",
		Help:    "gRPC call latency in seconds.",
		Buckets: buckets,
	}, []string{"service", "method"}), "railsim_grpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route pattern, method, and status code.",
	}, []string{"route", "method", "code"}), "railsim_http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railsim_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: buckets,
	}, []string{"route", "method"}), "railsim_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	wsClients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_websocket_clients",
		Help: "Current number of connected websocket snapshot subscribers.",
	}), "railsim_websocket_clients")
	if err != nil {
		return nil, err
	}

	return &APICollector{
		gatherer:         gatherer,
		RPCRequests:      requests,
		RPCDurations:     durations,
		HTTPRequests:     httpRequests,
		HTTPDurations:    httpDurations,
		WebsocketClients: wsClients,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *APICollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// ObserveHTTP records one served HTTP request. route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func (c *APICollector) ObserveHTTP(route, method string, code int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(route, method).Observe(d.Seconds())
	}
}

// WebsocketConnected adjusts the connected-client gauge by delta.
func (c *APICollector) WebsocketConnected(delta int) {
	if c == nil || c.WebsocketClients == nil {
		return
	}
	c.WebsocketClients.Add(float64(delta))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *APICollector) Handler() http.Handler {
	gatherer := prometheus.Gatherer(prometheus.DefaultGatherer)
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
