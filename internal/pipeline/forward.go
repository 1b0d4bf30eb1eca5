package pipeline

// CreateTracker is shorthand for NewTracker.
func CreateTracker(pipelineID string) *Tracker {
	return NewTracker(pipelineID)
}

// AddStageToTracker appends stage to t.
func AddStageToTracker(t *Tracker, stage Stage) {
	t.AddStage(stage)
}

// UpdateStageInTracker sets the status of stage within t.
func UpdateStageInTracker(t *Tracker, stage Stage, status StageStatus) {
	t.UpdateStage(stage, status)
}

// CurrentStageOf returns the in-progress stage of t, if any.
func CurrentStageOf(t *Tracker) (Stage, bool) {
	return t.CurrentStage()
}
