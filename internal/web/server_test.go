package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/railsim/internal/controller"
	"github.com/signalsfoundry/railsim/internal/observability"
	"github.com/signalsfoundry/railsim/internal/scenario"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/internal/timeline"
	"github.com/signalsfoundry/railsim/model"
)

var t0 = time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)

type fixture struct {
	ctrl *controller.Controller
	fake *timeline.FakeEventScheduler
	api  *observability.APICollector
	srv  *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := scenario.MustDefaultRegistry()
	fake := timeline.NewFakeEventScheduler(t0)
	store := state.NewStore(reg.Baseline(), state.NewNotificationLog(0, fake.Now))
	ctrl := controller.New(reg, store, timeline.New(fake))

	api, err := observability.NewAPICollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	return &fixture{
		ctrl: ctrl,
		fake: fake,
		api:  api,
		srv:  New(ctrl, WithAPICollector(api)),
	}
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestActivateAndReadSnapshot(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/scenarios/conflict/activate")
	if rr.Code != http.StatusOK {
		t.Fatalf("activate status = %d, body %s", rr.Code, rr.Body.String())
	}
	var st controller.Status
	decode(t, rr, &st)
	if !st.Active || st.ScenarioID != "conflict" || st.StepsPending != 6 {
		t.Fatalf("status = %+v", st)
	}

	f.fake.Advance(4 * time.Second)

	rr = f.do(t, http.MethodGet, "/api/snapshot")
	var snap struct {
		ConflictDetected bool              `json:"conflictDetected"`
		Signals          map[string]string `json:"signals"`
		Metrics          struct {
			Efficiency float64 `json:"efficiency"`
		} `json:"metrics"`
		Trains []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"trains"`
	}
	decode(t, rr, &snap)
	if !snap.ConflictDetected {
		t.Fatalf("conflictDetected = false at 4s")
	}
	if snap.Signals["s1"] != "red" {
		t.Fatalf("s1 = %q, want red", snap.Signals["s1"])
	}
	if snap.Metrics.Efficiency != 76.5 {
		t.Fatalf("efficiency = %v, want 76.5", snap.Metrics.Efficiency)
	}
	if len(snap.Trains) != 3 {
		t.Fatalf("trains = %d, want 3", len(snap.Trains))
	}

	rr = f.do(t, http.MethodGet, "/api/notifications")
	var notes []struct {
		Message  string `json:"message"`
		Type     string `json:"type"`
		Priority string `json:"priority"`
	}
	decode(t, rr, &notes)
	if len(notes) == 0 || notes[0].Type != "error" || notes[0].Priority != "critical" {
		t.Fatalf("newest notification = %+v", notes)
	}
	if len(notes) > state.DefaultNotificationCapacity {
		t.Fatalf("log holds %d entries", len(notes))
	}
}

func TestActivateUnknownScenario(t *testing.T) {
	f := newFixture(t)
	if rr := f.do(t, http.MethodPost, "/api/scenarios/emergency/activate"); rr.Code != http.StatusOK {
		t.Fatalf("activate emergency = %d", rr.Code)
	}

	rr := f.do(t, http.MethodPost, "/api/scenarios/meteor/activate")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var body errorResponse
	decode(t, rr, &body)
	if !strings.Contains(body.Error, "meteor") {
		t.Fatalf("error body = %q", body.Error)
	}

	rr = f.do(t, http.MethodGet, "/api/scenario/active")
	var st controller.Status
	decode(t, rr, &st)
	if st.ScenarioID != "emergency" {
		t.Fatalf("active = %q, want emergency", st.ScenarioID)
	}

	if got := testutil.ToFloat64(f.api.HTTPRequests.WithLabelValues("/api/scenarios/{id}/activate", "POST", "404")); got != 1 {
		t.Fatalf("404 counter = %v, want 1", got)
	}
}

func TestDeactivate(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/scenarios/normal/activate")

	for i := 0; i < 2; i++ {
		if rr := f.do(t, http.MethodPost, "/api/scenario/deactivate"); rr.Code != http.StatusOK {
			t.Fatalf("deactivate #%d = %d", i+1, rr.Code)
		}
	}
	if id, ok := f.ctrl.ActiveScenario(); ok {
		t.Fatalf("still active: %q", id)
	}
}

func TestScenarioCatalogue(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/scenarios")
	var list []ScenarioInfo
	decode(t, rr, &list)

	want := []string{"normal", "conflict", "emergency", "optimization"}
	if len(list) != len(want) {
		t.Fatalf("scenarios = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("scenario[%d] = %q, want %q", i, list[i].ID, id)
		}
	}
	if list[1].DurationMs != 12000 || list[1].Steps != len(list[1].OffsetsMs) {
		t.Fatalf("conflict info = %+v", list[1])
	}
}

func TestHealthMetricsAndRequestID(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rr.Code)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	rr = f.do(t, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "railsim_http_requests_total") {
		t.Fatalf("metrics = %d %q", rr.Code, rr.Body.String())
	}

	if rr := f.do(t, http.MethodGet, "/nope"); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", rr.Code)
	}
	if got := testutil.ToFloat64(f.api.HTTPRequests.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Fatalf("unmatched counter = %v, want 1", got)
	}
}

// wireFrame mirrors Frame with string enums as they appear on the wire.
type wireFrame struct {
	Snapshot struct {
		Trains          []json.RawMessage `json:"trains"`
		EmergencyActive bool              `json:"emergencyActive"`
		StepIndex       int               `json:"stepIndex"`
	} `json:"snapshot"`
	Notifications []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"notifications"`
}

func TestWebsocketFeed(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first wireFrame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if len(first.Snapshot.Trains) != 3 {
		t.Fatalf("initial frame trains = %d", len(first.Snapshot.Trains))
	}
	if len(first.Notifications) == 0 || first.Notifications[0].Message != "System operational" {
		t.Fatalf("initial notifications = %+v", first.Notifications)
	}

	if err := f.ctrl.Activate(t.Context(), scenario.EmergencyID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	f.fake.Advance(4 * time.Second)

	// Frames arrive in publication order; read until the emergency step.
	for {
		var frame wireFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if frame.Snapshot.EmergencyActive {
			if len(frame.Notifications) == 0 || frame.Notifications[0].Type != model.NotifyError.String() {
				t.Fatalf("notifications = %+v", frame.Notifications)
			}
			break
		}
	}

	if got := testutil.ToFloat64(f.api.WebsocketClients); got != 1 {
		t.Fatalf("websocket clients = %v, want 1", got)
	}
}

func TestWebsocketFramesPairStepWithItsNotifications(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first wireFrame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}

	s := scenario.Conflict()
	newest := map[int]string{-1: s.Intro.Message}
	last := s.Intro.Message
	for i, step := range s.Steps {
		if n := len(step.Notifications); n > 0 {
			last = step.Notifications[n-1].Message
		}
		newest[i] = last
	}

	if err := f.ctrl.Activate(t.Context(), s.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	f.fake.Advance(12 * time.Second)

	sawIntro := false
	for {
		var frame wireFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if len(frame.Notifications) == 0 {
			t.Fatalf("frame at step %d has no notifications", frame.Snapshot.StepIndex)
		}
		got := frame.Notifications[0].Message
		if frame.Snapshot.StepIndex == -1 {
			sawIntro = sawIntro || got == s.Intro.Message
			continue
		}
		if want := newest[frame.Snapshot.StepIndex]; got != want {
			t.Fatalf("frame at step %d has newest note %q, want %q", frame.Snapshot.StepIndex, got, want)
		}
		if frame.Snapshot.StepIndex == len(s.Steps)-1 {
			break
		}
	}
	if !sawIntro {
		t.Fatalf("activation intro was never pushed")
	}
}

// wireDemo mirrors demo.Snapshot with string enums.
type wireDemo struct {
	Playing bool `json:"playing"`
	Step    int  `json:"step"`
	Phase   struct {
		Title  string `json:"title"`
		Action string `json:"action"`
	} `json:"phase"`
	Trains []struct {
		ID       int    `json:"id"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	} `json:"trains"`
	Metrics struct {
		OnTimePercent   float64 `json:"onTimePercent"`
		ActiveConflicts int     `json:"activeConflicts"`
	} `json:"metrics"`
}

func TestDemoEndpoints(t *testing.T) {
	f := newFixture(t)

	var d wireDemo
	rr := f.do(t, http.MethodGet, "/api/demo")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/demo = %d", rr.Code)
	}
	decode(t, rr, &d)
	if d.Playing || d.Step != 0 || d.Phase.Title != "Normal Operations" || len(d.Trains) != 4 {
		t.Fatalf("initial demo = %+v", d)
	}
	if d.Trains[0].Priority != "high" {
		t.Fatalf("priority on the wire = %q", d.Trains[0].Priority)
	}

	rr = f.do(t, http.MethodPost, "/api/demo/play")
	decode(t, rr, &d)
	if rr.Code != http.StatusOK || !d.Playing || d.Metrics.OnTimePercent != 94 {
		t.Fatalf("play = %d %+v", rr.Code, d)
	}

	f.fake.Advance(3 * time.Second)
	decode(t, f.do(t, http.MethodGet, "/api/demo"), &d)
	if d.Step != 1 || d.Phase.Action != "alert" || d.Metrics.ActiveConflicts != 1 {
		t.Fatalf("after one interval = %+v", d)
	}

	decode(t, f.do(t, http.MethodPost, "/api/demo/pause"), &d)
	if d.Playing || d.Step != 1 {
		t.Fatalf("pause = %+v", d)
	}

	decode(t, f.do(t, http.MethodPost, "/api/demo/reset"), &d)
	if d.Playing || d.Step != 0 || d.Metrics.ActiveConflicts != 0 {
		t.Fatalf("reset = %+v", d)
	}
	if got := testutil.ToFloat64(f.api.HTTPRequests.WithLabelValues("/api/demo/play", "POST", "200")); got != 1 {
		t.Fatalf("play requests counted = %v", got)
	}
}
