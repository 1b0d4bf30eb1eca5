package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/lucasnoah/stagetrack/internal/pipeline"
	"github.com/lucasnoah/stagetrack/internal/registry"
)

// stageRequest is the body of POST /trackers/{id}/stages and an element of
// tracker bodies. An empty status means pending.
type stageRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type trackerRequest struct {
	PipelineID string         `json:"pipeline_id"`
	Stages     []stageRequest `json:"stages"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type updateTrackerResponse struct {
	Replaced bool                      `json:"replaced"`
	Tracker  *pipeline.TrackerSnapshot `json:"tracker,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTrackers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.reg.Snapshot()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAddTracker(w http.ResponseWriter, r *http.Request) {
	var req trackerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.PipelineID == "" {
		writeError(w, http.StatusBadRequest, errors.New("pipeline_id is required"))
		return
	}
	t, err := buildTracker(req.PipelineID, req.Stages)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Once registered, t belongs to the registry and is only read under mu.
	s.mu.Lock()
	registry.AddTrackerToRegistry(s.reg, t)
	total := s.reg.Len()
	snap := t.Snapshot()
	s.mu.Unlock()

	s.metrics.TrackerAdded(total)
	s.logger.Info("tracker added", "pipeline_id", snap.PipelineID, "stages", len(snap.Stages))
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetTracker(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.reg.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleUpdateTracker(w http.ResponseWriter, r *http.Request) {
	var req trackerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := r.PathValue("id")
	if req.PipelineID != "" && req.PipelineID != id {
		writeError(w, http.StatusBadRequest, fmt.Errorf("pipeline_id %q does not match path %q", req.PipelineID, id))
		return
	}
	t, err := buildTracker(id, req.Stages)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	replaced := s.reg.Contains(id)
	registry.UpdateTrackerInRegistry(s.reg, t)
	snap := t.Snapshot()
	s.mu.Unlock()

	s.metrics.TrackerUpdated(replaced)
	resp := updateTrackerResponse{Replaced: replaced}
	if replaced {
		resp.Tracker = &snap
		s.logger.Info("tracker replaced", "pipeline_id", id, "stages", len(snap.Stages))
	} else {
		s.logger.Debug("tracker update ignored", "pipeline_id", id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stage, err := newStage(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	t, err := s.reg.Get(id)
	if err == nil {
		pipeline.AddStageToTracker(t, stage)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.metrics.StageAdded()
	s.logger.Debug("stage added", "pipeline_id", id, "stage_id", stage.ID, "name", stage.Name)
	writeJSON(w, http.StatusCreated, stage)
}

// handleUpdateStage applies a status to a stage. An unknown stage leaves the
// tracker unchanged and still answers 200 with the tracker.
func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := uuid.Parse(r.PathValue("stageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid stage id: %w", err))
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := pipeline.ParseStageStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	t, err := s.reg.Get(r.PathValue("id"))
	var (
		applied bool
		snap    pipeline.TrackerSnapshot
	)
	if err == nil {
		applied = t.HasStage(stageID)
		pipeline.UpdateStageInTracker(t, pipeline.Stage{ID: stageID}, status)
		snap = t.Snapshot()
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.metrics.StageUpdated(applied)
	s.logger.Debug("stage update", "pipeline_id", snap.PipelineID, "stage_id", stageID, "status", status, "applied", applied)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCurrentStage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	t, err := s.reg.Get(r.PathValue("id"))
	var (
		cur pipeline.Stage
		ok  bool
	)
	if err == nil {
		cur, ok = pipeline.CurrentStageOf(t)
	}
	s.mu.RUnlock()

	switch {
	case err != nil:
		writeError(w, http.StatusNotFound, err)
	case !ok:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, cur)
	}
}

func buildTracker(id string, stages []stageRequest) (*pipeline.Tracker, error) {
	t := pipeline.NewTracker(id)
	for i, req := range stages {
		stage, err := newStage(req)
		if err != nil {
			return nil, fmt.Errorf("stages[%d]: %w", i, err)
		}
		t.AddStage(stage)
	}
	return t, nil
}

func newStage(req stageRequest) (pipeline.Stage, error) {
	status := pipeline.StatusPending
	if req.Status != "" {
		parsed, err := pipeline.ParseStageStatus(req.Status)
		if err != nil {
			return pipeline.Stage{}, err
		}
		status = parsed
	}
	return pipeline.NewStage(req.Name, status), nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
