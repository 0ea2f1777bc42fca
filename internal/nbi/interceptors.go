package nbi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/railsim/internal/logging"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor ensures a request_id is present on the
// context, sourcing it from inbound metadata if provided, echoes it back as
// response header metadata, and attaches a per-request logger annotated with
// request_id and method.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}
		}

		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("method", info.FullMethod)))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		// Not fatal: SetHeader fails only outside a server transport, as in
		// direct handler tests.
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, logging.RequestIDFromContext(ctx)))

		return handler(ctx, req)
	}
}

// LoggingUnaryServerInterceptor logs one line per completed RPC using the
// request-scoped logger when RequestIDUnaryServerInterceptor ran first.
func LoggingUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		log := logging.FromContext(ctx, base)
		fields := []logging.Field{
			logging.String("code", status.Code(err).String()),
			logging.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn(ctx, "rpc failed", append(fields, logging.Err(err))...)
		} else {
			log.Debug(ctx, "rpc completed", fields...)
		}
		return resp, err
	}
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
