package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/railsim/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Span exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	defaultOTLPEndpoint = "localhost:4317"
)

// ControlSpanPrefix names the controller spans: scenario switches and demo
// controls. They are always sampled; the ratio applies to everything else,
// which is mostly snapshot polling.
const ControlSpanPrefix = "Controller."

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string
	Endpoint    string
	SampleRatio float64

	// TimeMode and Scenarios describe the engine on the trace resource.
	TimeMode  string
	Scenarios []string

	// Writer receives stdout exporter output; nil means os.Stdout.
	Writer io.Writer
}

// TracingConfigFromEnv reads the RAILSIM_TRACING_* variables.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("RAILSIM_TRACING_ENABLED"), "true"),
		ServiceName: envOr("RAILSIM_TRACING_SERVICE_NAME", "railsim"),
		Exporter:    strings.ToLower(envOr("RAILSIM_TRACING_EXPORTER", ExporterStdout)),
		Endpoint:    os.Getenv("RAILSIM_OTLP_ENDPOINT"),
		SampleRatio: 1,
	}
	if raw := os.Getenv("RAILSIM_TRACING_SAMPLE_RATIO"); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil && r >= 0 && r <= 1 {
			cfg.SampleRatio = r
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Resource builds the trace resource for the engine.
func (cfg TracingConfig) Resource(ctx context.Context) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "railsim"),
		attribute.String("railsim.exporter", cfg.Exporter),
	}
	if cfg.TimeMode != "" {
		attrs = append(attrs, attribute.String("railsim.time_mode", cfg.TimeMode))
	}
	if len(cfg.Scenarios) > 0 {
		attrs = append(attrs, attribute.StringSlice("railsim.scenarios", cfg.Scenarios))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

// NewControlSampler samples every controller span and ratio of the rest.
// Children follow their parent.
func NewControlSampler(ratio float64) sdktrace.Sampler {
	return sdktrace.ParentBased(controlSampler{rest: sdktrace.TraceIDRatioBased(ratio), ratio: ratio})
}

type controlSampler struct {
	rest  sdktrace.Sampler
	ratio float64
}

func (s controlSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if strings.HasPrefix(p.Name, ControlSpanPrefix) {
		return sdktrace.SamplingResult{
			Decision:   sdktrace.RecordAndSample,
			Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
		}
	}
	return s.rest.ShouldSample(p)
}

func (s controlSampler) Description() string {
	return fmt.Sprintf("RailsimControl{ratio=%.2f}", s.ratio)
}

// InitTracing installs the global tracer provider and propagators. With
// tracing disabled it installs a noop provider. The returned func flushes
// and stops the exporter.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := cfg.Resource(ctx)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	sampler := NewControlSampler(cfg.SampleRatio)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.String("sampler", sampler.Description()),
		logging.Int("scenarios", len(cfg.Scenarios)),
	)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case ExporterStdout, "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP, "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
}

// ShutdownWithTimeout runs shutdown with a five second bound and logs, rather
// than returns, its error.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
