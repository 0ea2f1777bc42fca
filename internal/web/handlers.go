package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signalsfoundry/railsim/internal/controller"
	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/scenario"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ScenarioInfo is the catalogue entry returned by GET /api/scenarios.
type ScenarioInfo struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Summary         string  `json:"summary"`
	InitialLabel    string  `json:"initialLabel"`
	ResolutionLabel string  `json:"resolutionLabel"`
	Steps           int     `json:"steps"`
	OffsetsMs       []int64 `json:"offsetsMs"`
	DurationMs      int64   `json:"durationMs"`
}

func scenarioInfo(s *scenario.Scenario) ScenarioInfo {
	offsets := s.Offsets()
	ms := make([]int64, len(offsets))
	for i, off := range offsets {
		ms[i] = off.Milliseconds()
	}
	return ScenarioInfo{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Summary:         s.Summary,
		InitialLabel:    s.InitialLabel,
		ResolutionLabel: s.ResolutionLabel,
		Steps:           len(s.Steps),
		OffsetsMs:       ms,
		DurationMs:      s.Duration().Milliseconds(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Notifications())
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	list := s.ctrl.Scenarios()
	out := make([]ScenarioInfo, 0, len(list))
	for _, sc := range list {
		out = append(out, scenarioInfo(sc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := s.ctrl.Activate(ctx, id); err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			logging.FromContext(ctx, s.log).Error(ctx, "activate failed",
				logging.String("scenario_id", id), logging.Err(err))
		}
		writeJSON(w, code, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Deactivate(r.Context())
	writeJSON(w, http.StatusOK, controller.Status{})
}

func (s *Server) handleDemo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Demo())
}

func (s *Server) handleDemoPlay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.ctrl.PlayDemo(ctx)
	if err != nil {
		logging.FromContext(ctx, s.log).Error(ctx, "demo play failed", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDemoPause(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.PauseDemo(r.Context()))
}

func (s *Server) handleDemoReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.ResetDemo(r.Context()))
}

// statusFor maps controller errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrUnknownScenario):
		return http.StatusNotFound
	case errors.Is(err, scenario.ErrMalformedScenario):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
