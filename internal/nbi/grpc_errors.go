package nbi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/railsim/internal/scenario"
)

// ErrInvalidArgument is a package-level sentinel used for request validation failures.
var ErrInvalidArgument = errors.New("invalid argument")

// ToStatusError maps simulator errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, scenario.ErrUnknownScenario):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, scenario.ErrMalformedScenario):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
