// Package nbi exposes the scenario controller over gRPC.
package nbi

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/railsim/internal/demo"
	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

// ScenarioController is the slice of the controller the service needs.
type ScenarioController interface {
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context)
	Snapshot() state.Snapshot
	Notifications() []model.Notification
	ActiveScenario() (string, bool)

	Demo() demo.Snapshot
	PlayDemo(ctx context.Context) (demo.Snapshot, error)
	PauseDemo(ctx context.Context) demo.Snapshot
	ResetDemo(ctx context.Context) demo.Snapshot
}

// ScenarioService implements ScenarioServiceServer on top of a controller.
//
// Semantics:
//   - ActivateScenario switches scenarios; an unknown id maps to NotFound and
//     leaves the running scenario untouched.
//   - DeactivateScenario is idempotent.
//   - GetSnapshot and GetNotifications are pure reads encoded as
//     google.protobuf.Struct / ListValue with the same field names as the
//     HTTP JSON API.
//   - The demo RPCs return the walkthrough state after the call.
type ScenarioService struct {
	UnimplementedScenarioServiceServer

	ctrl ScenarioController
	log  logging.Logger
}

// NewScenarioService constructs a ScenarioService bound to ctrl.
func NewScenarioService(ctrl ScenarioController, log logging.Logger) *ScenarioService {
	if log == nil {
		log = logging.Noop()
	}
	return &ScenarioService{ctrl: ctrl, log: log}
}

// ActivateScenario activates the scenario named by req.
func (s *ScenarioService) ActivateScenario(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		return nil, ToStatusError(fmt.Errorf("%w: scenario id is required", ErrInvalidArgument))
	}
	if err := s.ctrl.Activate(ctx, id); err != nil {
		return nil, ToStatusError(err)
	}
	return &emptypb.Empty{}, nil
}

// DeactivateScenario stops the active scenario, if any.
func (s *ScenarioService) DeactivateScenario(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	s.ctrl.Deactivate(ctx)
	return &emptypb.Empty{}, nil
}

// GetSnapshot returns the latest world snapshot.
func (s *ScenarioService) GetSnapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	out, err := SnapshotToStruct(s.ctrl.Snapshot())
	if err != nil {
		logging.FromContext(ctx, s.log).Error(ctx, "encode snapshot failed", logging.Err(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// GetNotifications returns the retained notifications, newest first.
func (s *ScenarioService) GetNotifications(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	out, err := NotificationsToList(s.ctrl.Notifications())
	if err != nil {
		logging.FromContext(ctx, s.log).Error(ctx, "encode notifications failed", logging.Err(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// GetActiveScenario returns the active scenario id, or "" when inactive.
func (s *ScenarioService) GetActiveScenario(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, _ := s.ctrl.ActiveScenario()
	return wrapperspb.String(id), nil
}

// GetDemo returns the demo walkthrough state.
func (s *ScenarioService) GetDemo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return s.demoStruct(ctx, s.ctrl.Demo())
}

// PlayDemo starts the demo walkthrough.
func (s *ScenarioService) PlayDemo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	snap, err := s.ctrl.PlayDemo(ctx)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return s.demoStruct(ctx, snap)
}

// PauseDemo stops the demo walkthrough where it is.
func (s *ScenarioService) PauseDemo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return s.demoStruct(ctx, s.ctrl.PauseDemo(ctx))
}

// ResetDemo rewinds the demo walkthrough to its first phase.
func (s *ScenarioService) ResetDemo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return s.demoStruct(ctx, s.ctrl.ResetDemo(ctx))
}

func (s *ScenarioService) demoStruct(ctx context.Context, snap demo.Snapshot) (*structpb.Struct, error) {
	out, err := DemoToStruct(snap)
	if err != nil {
		logging.FromContext(ctx, s.log).Error(ctx, "encode demo failed", logging.Err(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *ScenarioService) ensureReady() error {
	if s == nil || s.ctrl == nil {
		return status.Error(codes.FailedPrecondition, "scenario controller is not configured")
	}
	return nil
}
