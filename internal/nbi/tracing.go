package nbi

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/observability"
)

const tracerName = "github.com/signalsfoundry/railsim/internal/nbi"

// TracingUnaryServerInterceptor names and annotates the server span for each
// RPC, creating one when the otelgrpc stats handler is not installed.
func TracingUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := observability.SplitMethod(info.FullMethod)
		spanName := fmt.Sprintf("railsim/%s/%s", service, method)

		span := trace.SpanFromContext(ctx)
		created := false
		if !span.SpanContext().IsValid() {
			ctx, span = tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
			created = true
		} else {
			span.SetName(spanName)
		}

		attrs := []attribute.KeyValue{
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
			attribute.String("rpc.full_method", strings.TrimPrefix(info.FullMethod, "/")),
		}
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			attrs = append(attrs, attribute.String("request_id", reqID))
		}
		if id, ok := req.(*wrapperspb.StringValue); ok && id.GetValue() != "" {
			attrs = append(attrs, attribute.String("scenario.id", id.GetValue()))
		}
		span.SetAttributes(attrs...)

		resp, err := handler(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, status.Code(err).String())
		}

		if created {
			span.End()
		}
		return resp, err
	}
}
