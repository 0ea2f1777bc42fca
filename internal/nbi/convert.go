package nbi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/railsim/internal/demo"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

// SnapshotToStruct encodes s with its JSON field names so gRPC and HTTP
// clients see the same document.
func SnapshotToStruct(s state.Snapshot) (*structpb.Struct, error) {
	var fields map[string]interface{}
	if err := jsonRoundTrip(s, &fields); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return structpb.NewStruct(fields)
}

// DemoToStruct encodes the demo walkthrough state.
func DemoToStruct(d demo.Snapshot) (*structpb.Struct, error) {
	var fields map[string]interface{}
	if err := jsonRoundTrip(d, &fields); err != nil {
		return nil, fmt.Errorf("encode demo: %w", err)
	}
	return structpb.NewStruct(fields)
}

// NotificationsToList encodes notifications newest first.
func NotificationsToList(notes []model.Notification) (*structpb.ListValue, error) {
	items := make([]interface{}, 0, len(notes))
	if err := jsonRoundTrip(notes, &items); err != nil {
		return nil, fmt.Errorf("encode notifications: %w", err)
	}
	return structpb.NewList(items)
}

func jsonRoundTrip(in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
