package pipeline

import "github.com/google/uuid"

// Tracker holds the ordered stages of one pipeline. It is not safe for
// concurrent use; callers sharing a Tracker must synchronise access.
type Tracker struct {
	pipelineID string
	stages     []Stage
}

// NewTracker creates a Tracker with no stages.
func NewTracker(pipelineID string) *Tracker {
	return &Tracker{pipelineID: pipelineID}
}

// ID returns the pipeline identifier the tracker was created with.
func (t *Tracker) ID() string {
	return t.pipelineID
}

// AddStage appends stage to the end of the tracker. Adding a stage whose ID
// is already present is allowed; lookups only ever see the first copy.
func (t *Tracker) AddStage(stage Stage) {
	t.stages = append(t.stages, stage)
}

// UpdateStage sets the status of the first stored stage with stage's ID.
// It does nothing when the tracker holds no such stage.
func (t *Tracker) UpdateStage(stage Stage, status StageStatus) {
	if i := t.indexOf(stage.ID); i >= 0 {
		t.stages[i].Status = status
	}
}

// CurrentStage returns the earliest added stage that is in progress.
// The boolean is false when no stage is in progress.
func (t *Tracker) CurrentStage() (Stage, bool) {
	for _, s := range t.stages {
		if s.Status == StatusInProgress {
			return s, true
		}
	}
	return Stage{}, false
}

// Stage returns the first stored stage with the given ID.
func (t *Tracker) Stage(id uuid.UUID) (Stage, bool) {
	if i := t.indexOf(id); i >= 0 {
		return t.stages[i], true
	}
	return Stage{}, false
}

// HasStage reports whether a stage with the given ID is stored.
func (t *Tracker) HasStage(id uuid.UUID) bool {
	return t.indexOf(id) >= 0
}

// Stages returns a copy of the stages in insertion order.
func (t *Tracker) Stages() []Stage {
	out := make([]Stage, len(t.stages))
	copy(out, t.stages)
	return out
}

// Len returns the number of stored stages.
func (t *Tracker) Len() int {
	return len(t.stages)
}

// Clone returns an independent copy that keeps the pipeline ID and stage IDs.
func (t *Tracker) Clone() *Tracker {
	return &Tracker{pipelineID: t.pipelineID, stages: t.Stages()}
}

// Snapshot returns the serialisable view of the tracker.
func (t *Tracker) Snapshot() TrackerSnapshot {
	return TrackerSnapshot{PipelineID: t.pipelineID, Stages: t.Stages()}
}

func (t *Tracker) indexOf(id uuid.UUID) int {
	for i := range t.stages {
		if t.stages[i].ID == id {
			return i
		}
	}
	return -1
}
