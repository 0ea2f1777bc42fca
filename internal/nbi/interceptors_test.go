package nbi

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/signalsfoundry/railsim/internal/logging"
)

func TestRequestIDInterceptorUsesIncomingMetadata(t *testing.T) {
	interceptor := RequestIDUnaryServerInterceptor(logging.Noop())
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDMetadataKey, "req-42"))
	info := &grpc.UnaryServerInfo{FullMethod: ScenarioService_GetSnapshot_FullMethodName}

	var seen string
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logging.RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "req-42" {
		t.Fatalf("request id = %q, want req-42", seen)
	}
}

func TestRequestIDInterceptorGeneratesID(t *testing.T) {
	interceptor := RequestIDUnaryServerInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: ScenarioService_GetSnapshot_FullMethodName}

	var seen string
	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logging.RequestIDFromContext(ctx)
		return nil, nil
	})
	if seen == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	interceptor := LoggingUnaryServerInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: ScenarioService_ActivateScenario_FullMethodName}
	boom := errors.New("boom")

	resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "resp", boom
	})
	if resp != "resp" || !errors.Is(err, boom) {
		t.Fatalf("got (%v, %v), want (resp, boom)", resp, err)
	}
}
